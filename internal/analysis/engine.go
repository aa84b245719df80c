package analysis

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/crowdsight/crowdsight-core/internal/history"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/config"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/logging"
	"github.com/crowdsight/crowdsight-core/internal/live"
	"github.com/crowdsight/crowdsight-core/internal/place"
	"github.com/crowdsight/crowdsight-core/internal/seating"
	"github.com/crowdsight/crowdsight-core/internal/video"
	"github.com/crowdsight/crowdsight-core/internal/vision"
)

// remoteFetchTimeout bounds downloads of remotely hosted place images.
const remoteFetchTimeout = 10 * time.Second

// Engine runs occupancy analyses. One engine serves all places; a
// per-place lock keeps concurrent runs for the same place from
// interleaving their writes.
type Engine struct {
	places    place.Repository
	liveRepo  live.Repository
	histRepo  history.Repository
	extractor video.FrameExtractor
	logger    *logging.Logger
	cfg       config.AnalysisConfig
	uploadDir string
	locks     *keyedMutex
	client    *http.Client

	// seed produces per-run random seeds. Overridable in tests for
	// deterministic synthesis.
	seed func() int64

	// now is the clock used for snapshot and history timestamps.
	now func() time.Time
}

// NewEngine creates an analysis engine. extractor may be nil when
// ffmpeg is unavailable; video analyses then fail with ErrNoVideo
// semantics at call time rather than at startup.
func NewEngine(
	places place.Repository,
	liveRepo live.Repository,
	histRepo history.Repository,
	extractor video.FrameExtractor,
	cfg config.AnalysisConfig,
	uploadDir string,
	logger *logging.Logger,
) *Engine {
	return &Engine{
		places:    places,
		liveRepo:  liveRepo,
		histRepo:  histRepo,
		extractor: extractor,
		logger:    logger.With("component", "analysis"),
		cfg:       cfg,
		uploadDir: uploadDir,
		locks:     newKeyedMutex(),
		client:    &http.Client{Timeout: remoteFetchTimeout},
		seed:      func() int64 { return time.Now().UnixNano() },
		now:       time.Now,
	}
}

// AnalyzeImage scores a place's uploaded image and commits a fresh
// occupancy snapshot.
//
// Returns:
//   - *live.Snapshot: the committed snapshot
//   - error: ErrNoImage when nothing is uploaded, vision.ErrDecode for
//     unreadable images, ErrRemoteFetch for unreachable remote URLs
func (e *Engine) AnalyzeImage(ctx context.Context, placeID string) (*live.Snapshot, error) {
	unlock := e.locks.Lock(placeID)
	defer unlock()

	p, err := e.places.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if p.ImageURL == "" {
		return nil, ErrNoImage
	}

	buf, err := e.loadImage(ctx, p.ImageURL)
	if err != nil {
		return nil, err
	}

	grid, err := vision.Decode(buf, e.cfg.MaxWidth)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(e.seed()))
	signals := vision.Extract(grid, vision.PrecisionFull)
	pct := vision.NewScorer(rng).Score(signals)

	snap, err := e.commitSnapshot(ctx, p, pct, rng)
	if err != nil {
		return nil, err
	}

	e.logger.Info("image analysed",
		"place_id", p.ID,
		"occupancy", pct,
		"edge_density", signals.EdgeDensity,
		"skin_density", signals.SkinDensity,
		"brightness", signals.AvgBrightness)

	return snap, nil
}

// AnalyzeVideo samples and scores a place's uploaded video and
// commits a fresh occupancy snapshot.
//
// Per-frame extraction failures are tolerated; only a video yielding
// no usable frames at all aborts the run, with video.ErrNoFrames and
// no state change.
func (e *Engine) AnalyzeVideo(ctx context.Context, placeID string) (*live.Snapshot, error) {
	unlock := e.locks.Lock(placeID)
	defer unlock()

	p, err := e.places.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if p.VideoURL == "" || e.extractor == nil {
		return nil, ErrNoVideo
	}

	// Frames are scored concurrently, so each scorer call gets its own
	// random source; *rand.Rand is not safe for concurrent use.
	var frameSeed atomic.Int64
	frameSeed.Store(e.seed())
	scoreFrame := func(frame []byte) (int, error) {
		grid, err := vision.Decode(frame, e.cfg.MaxWidth)
		if err != nil {
			return 0, err
		}
		rng := rand.New(rand.NewSource(frameSeed.Add(1)))
		signals := vision.Extract(grid, vision.PrecisionFast)
		return vision.NewScorer(rng).Score(signals), nil
	}

	sampler := video.NewSampler(e.extractor, scoreFrame, e.logger,
		e.cfg.MaxFrames, e.cfg.FrameTimeout())

	pct, err := sampler.Score(ctx, e.localPath(p.VideoURL))
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(e.seed()))
	snap, err := e.commitSnapshot(ctx, p, pct, rng)
	if err != nil {
		return nil, err
	}

	if err := e.places.MarkVideoAnalyzed(ctx, p.ID); err != nil {
		e.logger.Warn("marking video analysed failed", "place_id", p.ID, "error", err)
	}

	e.logger.Info("video analysed", "place_id", p.ID, "occupancy", pct)
	return snap, nil
}

// commitSnapshot synthesizes the seat map for pct and persists the
// snapshot plus its history update. Nothing is written unless
// synthesis fully succeeded.
func (e *Engine) commitSnapshot(ctx context.Context, p *place.Place, pct int, rng *rand.Rand) (*live.Snapshot, error) {
	synth := seating.NewSynthesizer(rng)

	seats, err := synth.Grid(p.Capacity)
	if err != nil {
		return nil, err
	}
	tables, err := synth.Tables(p.Capacity)
	if err != nil {
		return nil, err
	}
	if err := synth.ApplyOccupancy(seats, pct, p.Capacity); err != nil {
		return nil, err
	}
	seating.MirrorTables(tables, seats)

	snap := &live.Snapshot{
		PlaceID:          p.ID,
		PlaceName:        p.Name,
		Seats:            seats,
		Tables:           tables,
		OccupancyPercent: pct,
		LastUpdate:       e.now(),
	}

	if err := e.liveRepo.Put(ctx, snap); err != nil {
		return nil, fmt.Errorf("storing snapshot: %w", err)
	}

	e.trackHistory(ctx, snap)
	return snap, nil
}

// trackHistory folds the snapshot into the place's hourly buckets.
// Best-effort: a history write failure does not fail the run, the
// snapshot is already committed and is the primary output.
func (e *Engine) trackHistory(ctx context.Context, snap *live.Snapshot) {
	h, err := e.histRepo.Get(ctx, snap.PlaceID)
	if err != nil {
		h = history.New(snap.PlaceID, snap.PlaceName, e.now())
	}

	h.PlaceName = snap.PlaceName
	h.Record(snap.OccupiedSeats(), len(snap.Seats), e.now())

	if err := e.histRepo.Put(ctx, h); err != nil {
		e.logger.Warn("history update failed", "place_id", snap.PlaceID, "error", err)
	}
}

// loadImage reads a place's image from the upload directory, or
// fetches it when the URL points at a remote host.
func (e *Engine) loadImage(ctx context.Context, imageURL string) ([]byte, error) {
	if strings.HasPrefix(imageURL, "http://") || strings.HasPrefix(imageURL, "https://") {
		return e.fetchRemote(ctx, imageURL)
	}

	buf, err := os.ReadFile(e.localPath(imageURL))
	if err != nil {
		return nil, fmt.Errorf("reading image file: %w", err)
	}
	return buf, nil
}

// fetchRemote downloads a remotely hosted image.
func (e *Engine) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRemoteFetch, resp.StatusCode)
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteFetch, err)
	}
	return buf, nil
}

// localPath maps a stored media URL like "/uploads/abc.jpg" onto the
// upload directory. Only the base name is honoured, so a crafted URL
// cannot escape the directory.
func (e *Engine) localPath(mediaURL string) string {
	return filepath.Join(e.uploadDir, filepath.Base(mediaURL))
}
