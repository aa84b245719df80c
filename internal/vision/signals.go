package vision

import "math"

// Signal extraction constants.
const (
	// edgeThreshold is the gradient magnitude above which a pixel
	// counts as an edge, on the 0-255 luma scale.
	edgeThreshold = 60

	// fastStrideDivisor sets the sampling stride for the fast edge
	// pass: step is roughly min(width,height)/40.
	fastStrideDivisor = 40

	// skinSamplesFull is the approximate number of pixels sampled by
	// the skin pass at full precision.
	skinSamplesFull = 20000

	// skinSamplesFast is the approximate number of pixels sampled by
	// the skin pass at fast precision.
	skinSamplesFast = 8000
)

// Precision selects how thoroughly signals are extracted from a grid.
// Full runs a 3x3 Sobel over every interior pixel and is used for
// single still images. Fast stride-samples the grid with a 2-tap
// gradient approximation and is used for video frames, where the same
// work runs once per sampled frame.
type Precision int

const (
	// PrecisionFull is the exhaustive single-image pass.
	PrecisionFull Precision = iota

	// PrecisionFast is the strided per-video-frame pass.
	PrecisionFast
)

// FrameSignals holds the three scalar features extracted from one
// frame. Ephemeral: consumed by the scorer and discarded.
type FrameSignals struct {
	// AvgBrightness is the mean luma over all pixels, 0-255.
	AvgBrightness float64

	// EdgeDensity is the fraction of examined pixels whose gradient
	// magnitude exceeds edgeThreshold, 0-1.
	EdgeDensity float64

	// SkinDensity is the fraction of sampled pixels matching the
	// skin-tone classifier, 0-1.
	SkinDensity float64
}

// Extract computes brightness, edge density and skin-tone density
// from a grid. Fully deterministic: identical grids always yield
// identical signals.
func Extract(grid *PixelGrid, precision Precision) FrameSignals {
	return FrameSignals{
		AvgBrightness: avgBrightness(grid),
		EdgeDensity:   edgeDensity(grid, precision),
		SkinDensity:   skinDensity(grid, precision),
	}
}

// avgBrightness returns the mean luma over every pixel.
func avgBrightness(grid *PixelGrid) float64 {
	total := grid.Width * grid.Height
	if total == 0 {
		return 0
	}

	var sum float64
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			sum += grid.Luma(x, y)
		}
	}
	return sum / float64(total)
}

// edgeDensity counts pixels whose luma gradient magnitude exceeds
// edgeThreshold, normalised by the number of pixels examined.
func edgeDensity(grid *PixelGrid, precision Precision) float64 {
	if grid.Width < 3 || grid.Height < 3 {
		return 0
	}

	// Precompute the luma plane once; both variants read it heavily.
	luma := make([]float64, grid.Width*grid.Height)
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			luma[y*grid.Width+x] = grid.Luma(x, y)
		}
	}

	if precision == PrecisionFast {
		return edgeDensityFast(luma, grid.Width, grid.Height)
	}
	return edgeDensityFull(luma, grid.Width, grid.Height)
}

// edgeDensityFull runs a 3x3 Sobel over every interior pixel,
// excluding the 1-pixel border. The count is normalised by the total
// pixel count of the grid.
func edgeDensityFull(luma []float64, w, h int) float64 {
	edges := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			gx := -luma[i-w-1] + luma[i-w+1] +
				-2*luma[i-1] + 2*luma[i+1] +
				-luma[i+w-1] + luma[i+w+1]
			gy := -luma[i-w-1] - 2*luma[i-w] - luma[i-w+1] +
				luma[i+w-1] + 2*luma[i+w] + luma[i+w+1]
			if math.Sqrt(gx*gx+gy*gy) > edgeThreshold {
				edges++
			}
		}
	}
	return float64(edges) / float64(w*h)
}

// edgeDensityFast stride-samples the grid and uses a 2-tap central
// difference per axis instead of the full Sobel kernels. Same
// threshold, but normalised by the number of samples actually taken.
func edgeDensityFast(luma []float64, w, h int) float64 {
	step := min(w, h) / fastStrideDivisor
	if step < 1 {
		step = 1
	}

	edges, samples := 0, 0
	for y := 1; y < h-1; y += step {
		for x := 1; x < w-1; x += step {
			i := y*w + x
			gx := luma[i+1] - luma[i-1]
			gy := luma[i+w] - luma[i-w]
			if math.Sqrt(gx*gx+gy*gy) > edgeThreshold {
				edges++
			}
			samples++
		}
	}
	if samples == 0 {
		return 0
	}
	return float64(edges) / float64(samples)
}

// skinDensity samples pixels at a stride chosen to examine roughly
// skinSamplesFull (or skinSamplesFast) pixels, classifying each with
// an RGB skin-tone heuristic.
func skinDensity(grid *PixelGrid, precision Precision) float64 {
	total := grid.Width * grid.Height
	if total == 0 {
		return 0
	}

	budget := skinSamplesFull
	if precision == PrecisionFast {
		budget = skinSamplesFast
	}
	stride := total / budget
	if stride < 1 {
		stride = 1
	}

	matches, samples := 0, 0
	for i := 0; i < total; i += stride {
		r := grid.Pix[i*4]
		g := grid.Pix[i*4+1]
		b := grid.Pix[i*4+2]
		if isSkinTone(r, g, b) {
			matches++
		}
		samples++
	}
	return float64(matches) / float64(samples)
}

// isSkinTone applies the classic RGB skin classifier. It is crude and
// lighting-sensitive, which is acceptable: the result only nudges the
// occupancy estimate, it never identifies anyone.
func isSkinTone(r, g, b uint8) bool {
	maxC := max(r, max(g, b))
	minC := min(r, min(g, b))
	return r > 95 && g > 40 && b > 20 &&
		maxC-minC > 15 &&
		r > g && r > b
}
