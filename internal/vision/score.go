package vision

import (
	"math"
	"math/rand"
)

// Scoring constants. The weights encode a prior that structural
// clutter is the strongest occupancy signal, skin tone a secondary
// corroborating signal, and darkness a weak tertiary proxy.
const (
	edgeWeight   = 0.6
	skinWeight   = 0.3
	brightWeight = 0.1

	// rawFloor and rawSpan map the combined score onto 10-95 before
	// jitter is applied.
	rawFloor = 10
	rawSpan  = 85

	// jitterAmplitude is the full width of the uniform jitter band.
	jitterAmplitude = 6

	// minOccupancy and maxOccupancy clamp the final percentage so
	// the feed never shows a literal 0% or 100%.
	minOccupancy = 5
	maxOccupancy = 98
)

// Scorer turns FrameSignals into an occupancy percentage. The random
// source is injected so callers can fix seeds; production code passes
// a time-seeded source, tests a constant one.
type Scorer struct {
	rng *rand.Rand
}

// NewScorer creates a scorer drawing jitter from rng.
func NewScorer(rng *rand.Rand) *Scorer {
	return &Scorer{rng: rng}
}

// Score converts signals into an occupancy percent in [5, 98].
//
// The mapping is a fixed weighted sum of normalised signals plus a
// small uniform jitter, so repeated calls over the same frame vary by
// a few points. Bounds hold for any input.
func (s *Scorer) Score(sig FrameSignals) int {
	jitter := (s.rng.Float64() - 0.5) * jitterAmplitude
	raw := rawFloor + combined(sig)*rawSpan + jitter

	pct := int(math.Round(raw))
	if pct < minOccupancy {
		pct = minOccupancy
	}
	if pct > maxOccupancy {
		pct = maxOccupancy
	}
	return pct
}

// combined collapses the three signals into a single score in [0, 1].
// Deterministic; all randomness stays in Score.
func combined(sig FrameSignals) float64 {
	edgeScore := math.Min(1, sig.EdgeDensity*3)
	skinScore := math.Min(1, sig.SkinDensity*4)
	brightScore := 1 - math.Min(1, sig.AvgBrightness/255)

	c := edgeWeight*edgeScore + skinWeight*skinScore + brightWeight*brightScore
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
