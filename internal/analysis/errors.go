package analysis

import "errors"

// Domain errors for the analysis package.
var (
	// ErrNoImage is returned when an image analysis is requested for a
	// place that has no image uploaded.
	ErrNoImage = errors.New("analysis: place has no image")

	// ErrNoVideo is returned when a video analysis is requested for a
	// place that has no video uploaded.
	ErrNoVideo = errors.New("analysis: place has no video")

	// ErrRemoteFetch is returned when a place's image URL points at a
	// remote host that could not be fetched. Non-retryable from the
	// engine's perspective: the run aborts and is logged.
	ErrRemoteFetch = errors.New("analysis: remote image fetch failed")
)
