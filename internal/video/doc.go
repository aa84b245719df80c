// Package video samples frames from uploaded videos and aggregates
// per-frame occupancy estimates into a single reading.
//
// Frame extraction shells out to ffmpeg/ffprobe, which must be on
// PATH. The Extractor probes the container for its duration, then
// pulls one frame per selected timestamp; SampleTimestamps decides
// which moments to look at (bounded by maxFrames, spread across the
// runtime, always touching the final second).
//
// Extraction is best-effort throughout. A frame that fails to decode
// or extract is skipped, not fatal; if every timestamp fails, a
// single fallback frame at t=0 is attempted before the run is
// declared to have no data. A run with zero usable frames returns
// ErrNoFrames rather than a fabricated 0% reading.
//
// Frames are scored concurrently since samples are independent; the
// whole pass is bounded by a timeout proportional to frame count so a
// wedged ffmpeg cannot hang an analysis run.
package video
