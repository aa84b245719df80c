package vision

import "errors"

// Domain errors for the vision package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, vision.ErrDecode) {
//	    // handle unreadable image
//	}
var (
	// ErrDecode is returned when a buffer is not a recognised raster image format.
	ErrDecode = errors.New("vision: image decode failed")

	// ErrEmptyImage is returned when a decoded image has zero pixels.
	ErrEmptyImage = errors.New("vision: empty image")
)
