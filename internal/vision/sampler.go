package vision

import (
	"bytes"
	"fmt"
	"image"
	"math"

	// Register decoders for the formats accepted on upload.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxWidth is the working-resolution cap applied on decode.
// Larger sources are downsized proportionally before any signal pass.
const DefaultMaxWidth = 320

// PixelGrid is a decoded image in RGBA layout, ready for signal
// extraction. Pix holds 4 bytes per pixel (R, G, B, A) in row-major
// order; alpha is carried but ignored by every signal computation.
type PixelGrid struct {
	Width  int
	Height int
	Pix    []uint8
}

// RGB returns the red, green and blue channels of the pixel at (x, y).
// Callers are expected to stay in bounds; no checking is performed on
// this hot path.
func (g *PixelGrid) RGB(x, y int) (r, gr, b uint8) {
	i := (y*g.Width + x) * 4
	return g.Pix[i], g.Pix[i+1], g.Pix[i+2]
}

// Luma returns the perceptual brightness of the pixel at (x, y) on a
// 0-255 scale, using the Rec. 601 weights.
func (g *PixelGrid) Luma(x, y int) float64 {
	r, gr, b := g.RGB(x, y)
	return 0.299*float64(r) + 0.587*float64(gr) + 0.114*float64(b)
}

// Decode parses an image buffer into a PixelGrid, downsizing to at
// most maxWidth pixels wide (aspect ratio preserved). A maxWidth of 0
// or less means DefaultMaxWidth.
//
// Supported formats: JPEG, PNG, GIF and WebP. Anything else fails
// with ErrDecode.
//
// Parameters:
//   - buf: raw image bytes as received from the upload handler
//   - maxWidth: working-resolution cap in pixels
//
// Returns:
//   - *PixelGrid: decoded, possibly downsized image
//   - error: ErrDecode if the buffer is not a recognised image
func Decode(buf []byte, maxWidth int) (*PixelGrid, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}

	src, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmptyImage
	}

	if w > maxWidth {
		// Height is derived from the width cap, never set independently.
		scaled := int(math.Round(float64(h) * float64(maxWidth) / float64(w)))
		if scaled < 1 {
			scaled = 1
		}
		w, h = maxWidth, scaled
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)

	return &PixelGrid{
		Width:  w,
		Height: h,
		Pix:    dst.Pix,
	}, nil
}
