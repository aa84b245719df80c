package video

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crowdsight/crowdsight-core/internal/infrastructure/logging"
)

// Sampling constants.
const (
	// DefaultMaxFrames caps how many frames one video contributes.
	DefaultMaxFrames = 8

	// minSampleTimeout is the floor for the whole extraction pass.
	minSampleTimeout = 2 * time.Second

	// DefaultPerFrameTimeout scales the pass timeout with frame count.
	DefaultPerFrameTimeout = 700 * time.Millisecond
)

// FrameExtractor yields frames from a video file. Implemented by
// Extractor; narrowed to an interface so sampler tests can stub
// extraction without ffmpeg installed.
type FrameExtractor interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ExtractFrame(ctx context.Context, path string, timestampSec float64) ([]byte, error)
	ExtractFallbackFrame(ctx context.Context, path string) ([]byte, error)
}

// FrameScorer turns one extracted frame into an occupancy percent.
// The analysis engine wires this to the decode/extract/score chain.
type FrameScorer func(frame []byte) (int, error)

// Sampler drives frame extraction and per-frame scoring for a video
// and aggregates the samples into one occupancy percentage.
type Sampler struct {
	extractor       FrameExtractor
	scoreFrame      FrameScorer
	logger          *logging.Logger
	maxFrames       int
	perFrameTimeout time.Duration
}

// NewSampler creates a sampler. maxFrames <= 0 means
// DefaultMaxFrames; perFrameTimeout <= 0 means DefaultPerFrameTimeout.
func NewSampler(extractor FrameExtractor, scoreFrame FrameScorer, logger *logging.Logger, maxFrames int, perFrameTimeout time.Duration) *Sampler {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	if perFrameTimeout <= 0 {
		perFrameTimeout = DefaultPerFrameTimeout
	}
	return &Sampler{
		extractor:       extractor,
		scoreFrame:      scoreFrame,
		logger:          logger.With("component", "video"),
		maxFrames:       maxFrames,
		perFrameTimeout: perFrameTimeout,
	}
}

// SampleTimestamps selects the moments to extract frames at.
//
// For a known duration, up to maxFrames timestamps are spread evenly
// from 0, and the final second is always included so a video that
// fills up late is not misread. Unknown or zero duration falls back
// to the first three seconds.
func SampleTimestamps(durationSec float64, maxFrames int) []float64 {
	if maxFrames < 1 {
		return nil
	}

	if durationSec <= 0 {
		ts := []float64{0, 1, 2}
		if maxFrames < len(ts) {
			ts = ts[:maxFrames]
		}
		return ts
	}

	n := min(maxFrames, int(durationSec))
	if n < 1 {
		n = 1
	}
	step := math.Floor(durationSec / float64(n))
	if step < 1 {
		step = 1
	}

	var ts []float64
	for t := 0.0; t < durationSec && len(ts) < maxFrames; t += step {
		ts = append(ts, t)
	}
	if len(ts) < maxFrames {
		ts = append(ts, math.Max(0, durationSec-1))
	}
	return ts
}

// Score samples the video at path and returns the aggregate occupancy
// percent, the mean of all successful per-frame scores rounded to the
// nearest integer.
//
// Per-frame failures are skipped. If nothing could be extracted, a
// single fallback frame at the start of the video is tried; if that
// fails too, ErrNoFrames is returned and the caller must not commit
// any occupancy state.
func (s *Sampler) Score(ctx context.Context, path string) (int, error) {
	duration, err := s.extractor.ProbeDuration(ctx, path)
	if err != nil {
		s.logger.Warn("video probe failed, assuming unknown duration",
			"path", path, "error", err)
		duration = 0
	}

	timestamps := SampleTimestamps(duration, s.maxFrames)

	// Bound the whole pass so a wedged extraction cannot hang the run.
	timeout := time.Duration(len(timestamps)) * s.perFrameTimeout
	if timeout < minSampleTimeout {
		timeout = minSampleTimeout
	}
	sampleCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	samples := s.scoreTimestamps(sampleCtx, path, timestamps)

	if len(samples) == 0 {
		// Fresh deadline: the sampling budget may already be spent.
		fallbackCtx, cancelFallback := context.WithTimeout(ctx, minSampleTimeout)
		defer cancelFallback()

		frame, err := s.extractor.ExtractFallbackFrame(fallbackCtx, path)
		if err != nil {
			return 0, ErrNoFrames
		}
		pct, err := s.scoreFrame(frame)
		if err != nil {
			return 0, ErrNoFrames
		}
		samples = []int{pct}
	}

	sum := 0
	for _, pct := range samples {
		sum += pct
	}
	aggregate := int(math.Round(float64(sum) / float64(len(samples))))

	s.logger.Debug("video sampled",
		"path", path,
		"duration_sec", duration,
		"frames_scored", len(samples),
		"occupancy", aggregate)

	return aggregate, nil
}

// scoreTimestamps extracts and scores frames concurrently. Samples
// are independent, so failures only shrink the result set.
func (s *Sampler) scoreTimestamps(ctx context.Context, path string, timestamps []float64) []int {
	var (
		mu      sync.Mutex
		samples []int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, ts := range timestamps {
		ts := ts
		g.Go(func() error {
			frame, err := s.extractor.ExtractFrame(gctx, path, ts)
			if err != nil {
				s.logger.Debug("frame extraction failed, skipping",
					"path", path, "timestamp", ts, "error", err)
				return nil
			}
			pct, err := s.scoreFrame(frame)
			if err != nil {
				s.logger.Debug("frame scoring failed, skipping",
					"path", path, "timestamp", ts, "error", err)
				return nil
			}

			mu.Lock()
			samples = append(samples, pct)
			mu.Unlock()
			return nil
		})
	}
	// Workers swallow per-frame errors, so this only waits.
	_ = g.Wait() //nolint:errcheck // Per-frame failures are non-fatal
	return samples
}
