package video

import "errors"

// Domain errors for the video package.
var (
	// ErrNoFrames is returned when no frame could be extracted from a
	// video, fallback included. Callers must treat this as "no data",
	// never as a 0% occupancy reading.
	ErrNoFrames = errors.New("video: no frames could be extracted")

	// ErrFFmpegNotFound is returned when the ffmpeg or ffprobe binary
	// is not on PATH.
	ErrFFmpegNotFound = errors.New("video: ffmpeg not found in PATH")
)
