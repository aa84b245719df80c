package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/crowdsight/crowdsight-core/internal/infrastructure/logging"
)

// Extractor shells out to ffmpeg and ffprobe for frame extraction.
// Binary paths are resolved once at construction so a missing install
// fails at startup, not mid-analysis.
type Extractor struct {
	logger      *logging.Logger
	ffmpegPath  string
	ffprobePath string
}

// NewExtractor resolves the ffmpeg and ffprobe binaries and returns
// an extractor bound to them.
//
// Returns:
//   - *Extractor: ready-to-use extractor
//   - error: ErrFFmpegNotFound if either binary is missing from PATH
func NewExtractor(logger *logging.Logger) (*Extractor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}

	return &Extractor{
		logger:      logger.With("component", "video"),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}, nil
}

// probeResult matches the subset of ffprobe JSON output we read.
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration returns the video's duration in seconds, or 0 when
// the container does not report one. Unknown duration is not an
// error; the sampler falls back to fixed early timestamps.
func (e *Extractor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return 0, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	dur, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil || dur < 0 {
		// Some containers omit duration; report unknown.
		return 0, nil
	}
	return dur, nil
}

// ExtractFrame pulls a single frame at the given timestamp, returned
// as PNG bytes on stdout. Seeking before the input keeps extraction
// fast on long videos.
func (e *Extractor) ExtractFrame(ctx context.Context, path string, timestampSec float64) ([]byte, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(timestampSec, 'f', 2, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	}
	return e.runFrameCommand(ctx, args)
}

// ExtractFallbackFrame pulls one frame from the very start of the
// video, downscaled in ffmpeg itself. Used when every timestamped
// extraction failed; the scale filter sidesteps decoders that choke
// on odd source resolutions.
func (e *Extractor) ExtractFallbackFrame(ctx context.Context, path string) ([]byte, error) {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-frames:v", "1",
		"-vf", "scale=320:-1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	}
	return e.runFrameCommand(ctx, args)
}

// runFrameCommand executes ffmpeg and returns its stdout bytes.
func (e *Extractor) runFrameCommand(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, stderr.String())
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}
	return stdout.Bytes(), nil
}
