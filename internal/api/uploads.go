package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crowdsight/crowdsight-core/internal/analysis"
	"github.com/crowdsight/crowdsight-core/internal/infrastructure/mqtt"
	"github.com/crowdsight/crowdsight-core/internal/live"
	"github.com/crowdsight/crowdsight-core/internal/place"
	"github.com/crowdsight/crowdsight-core/internal/video"
	"github.com/crowdsight/crowdsight-core/internal/vision"
)

// videoAnalysisTimeout bounds the background analysis run after a
// video upload. Generous: covers probing plus per-frame extraction on
// slow disks.
const videoAnalysisTimeout = 5 * time.Minute

// Accepted upload extensions, keyed by lowercase extension.
var (
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	}
	videoExtensions = map[string]bool{
		".mp4": true, ".webm": true, ".mov": true, ".ogg": true,
	}
)

// handleUploadImage stores a place image and analyses it immediately.
// Manager only.
//
// Image analysis is a single decode-and-score pass, cheap enough to
// run inline; the response carries the committed snapshot.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "id")
	ctx := r.Context()

	if _, err := s.places.GetByID(ctx, placeID); err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			writeNotFound(w, "place not found")
			return
		}
		writeInternalError(w, "failed to get place")
		return
	}

	mediaURL, ok := s.saveUpload(w, r, "image", imageExtensions, s.mediaCfg.MaxImageBytes())
	if !ok {
		return
	}

	if err := s.places.SetImage(ctx, placeID, mediaURL); err != nil {
		writeInternalError(w, "failed to record image")
		return
	}

	snap, err := s.engine.AnalyzeImage(ctx, placeID)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	s.fanOutSnapshot(snap)

	writeJSON(w, http.StatusOK, map[string]any{
		"image_url": mediaURL,
		"live_data": snap,
	})
}

// handleUploadVideo stores a place video and kicks off analysis in the
// background. Manager only.
//
// Video analysis probes and decodes multiple frames through ffmpeg, so
// the request returns 202 as soon as the file is stored. The result
// arrives via the live_data.updated channel and the occupancy topic.
func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "id")
	ctx := r.Context()

	if _, err := s.places.GetByID(ctx, placeID); err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			writeNotFound(w, "place not found")
			return
		}
		writeInternalError(w, "failed to get place")
		return
	}

	mediaURL, ok := s.saveUpload(w, r, "video", videoExtensions, s.mediaCfg.MaxVideoBytes())
	if !ok {
		return
	}

	if err := s.places.SetVideo(ctx, placeID, mediaURL, time.Now().UTC()); err != nil {
		writeInternalError(w, "failed to record video")
		return
	}

	go s.analyzeVideoAsync(placeID)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"video_url": mediaURL,
		"status":    "analysis_queued",
	})
}

// handleAnalyzeVideo re-runs video analysis synchronously. Manager only.
func (s *Server) handleAnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "id")

	snap, err := s.engine.AnalyzeVideo(r.Context(), placeID)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	s.fanOutSnapshot(snap)
	writeJSON(w, http.StatusOK, liveDataResponse{Snapshot: snap, Initialized: true})
}

// analyzeVideoAsync runs video analysis detached from the upload
// request and fans the result out on success.
func (s *Server) analyzeVideoAsync(placeID string) {
	ctx, cancel := context.WithTimeout(context.Background(), videoAnalysisTimeout)
	defer cancel()

	snap, err := s.engine.AnalyzeVideo(ctx, placeID)
	if err != nil {
		s.logger.Error("background video analysis failed", "place_id", placeID, "error", err)
		return
	}
	s.fanOutSnapshot(snap)
}

// saveUpload extracts the named multipart file, validates its
// extension, and writes it into the upload directory under a random
// name. On failure it writes the error response and returns ok=false.
//
// Returns the stored media URL ("/uploads/<name>") on success.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request, field string, allowed map[string]bool, maxBytes int64) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "upload exceeds size limit")
			return "", false
		}
		writeBadRequest(w, "missing "+field+" file")
		return "", false
	}
	defer file.Close() //nolint:errcheck // Read-only multipart file

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowed[ext] {
		writeBadRequest(w, "unsupported file type: "+ext)
		return "", false
	}

	if err := os.MkdirAll(s.mediaCfg.UploadDir, 0o750); err != nil {
		s.logger.Error("failed to create upload directory", "error", err)
		writeInternalError(w, "failed to store upload")
		return "", false
	}

	name := field + "-" + uuid.NewString() + ext
	path := filepath.Join(s.mediaCfg.UploadDir, name)

	dst, err := os.Create(path) //nolint:gosec // name is server-generated, not caller input
	if err != nil {
		s.logger.Error("failed to create upload file", "path", path, "error", err)
		writeInternalError(w, "failed to store upload")
		return "", false
	}
	defer dst.Close() //nolint:errcheck // Close error handled via io.Copy result below

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path) //nolint:errcheck // Best-effort cleanup of partial file
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "upload exceeds size limit")
			return "", false
		}
		s.logger.Error("failed to write upload", "path", path, "error", err)
		writeInternalError(w, "failed to store upload")
		return "", false
	}

	return "/uploads/" + name, true
}

// fanOutSnapshot pushes a committed snapshot to every live consumer:
// WebSocket subscribers, the MQTT occupancy topic, and InfluxDB.
// All paths are best-effort; the snapshot is already persisted.
func (s *Server) fanOutSnapshot(snap *live.Snapshot) {
	if snap == nil {
		return
	}

	s.broadcastSnapshot(snap)

	if s.influx != nil {
		s.influx.WriteOccupancySample(snap.PlaceID, snap.OccupancyPercent, snap.OccupiedSeats(), len(snap.Seats))
	}
}

// broadcastSnapshot pushes snapshot state to WebSocket subscribers and
// the retained MQTT occupancy topic. Used for fresh analysis results
// and for refresh re-broadcasts of already persisted state.
func (s *Server) broadcastSnapshot(snap *live.Snapshot) {
	if s.hub != nil {
		s.hub.Broadcast(ChannelLiveData, snap)
	}

	if s.mqtt != nil {
		topic := mqtt.Topics{}.Occupancy(snap.PlaceID)
		if err := s.mqtt.PublishJSON(topic, snap, true); err != nil {
			s.logger.Warn("occupancy publish failed", "topic", topic, "error", err)
		}
	}
}

// writeAnalysisError maps analysis pipeline errors onto HTTP responses.
func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, place.ErrPlaceNotFound):
		writeNotFound(w, "place not found")
	case errors.Is(err, analysis.ErrNoImage):
		writeBadRequest(w, "place has no image to analyse")
	case errors.Is(err, analysis.ErrNoVideo):
		writeBadRequest(w, "place has no video to analyse")
	case errors.Is(err, analysis.ErrRemoteFetch):
		writeError(w, http.StatusBadGateway, ErrCodeInternal, "remote image fetch failed")
	case errors.Is(err, vision.ErrDecode), errors.Is(err, vision.ErrEmptyImage):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeBadRequest, "image could not be decoded")
	case errors.Is(err, video.ErrNoFrames):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeBadRequest, "no frames could be extracted from video")
	default:
		s.logger.Error("analysis failed", "error", err)
		writeInternalError(w, "analysis failed")
	}
}
