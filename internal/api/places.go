package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crowdsight/crowdsight-core/internal/infrastructure/mqtt"
	"github.com/crowdsight/crowdsight-core/internal/place"
)

// createPlaceRequest is the request body for POST /places.
type createPlaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
}

// updatePlaceRequest is the request body for PATCH /places/{id}.
// Pointer fields distinguish "not sent" from zero values.
type updatePlaceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Capacity    *int    `json:"capacity"`
}

// handleListPlaces returns all places ordered by name.
func (s *Server) handleListPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := s.places.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list places")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": places, "count": len(places)})
}

// handleGetPlace returns a single place by ID.
func (s *Server) handleGetPlace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.places.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			writeNotFound(w, "place not found")
			return
		}
		writeInternalError(w, "failed to get place")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// handleCreatePlace creates a new place. Manager only.
func (s *Server) handleCreatePlace(w http.ResponseWriter, r *http.Request) {
	var req createPlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	now := time.Now().UTC()
	p := &place.Place{
		ID:          "plc-" + uuid.NewString()[:8],
		Name:        req.Name,
		Description: req.Description,
		Capacity:    req.Capacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.places.Create(r.Context(), p); err != nil {
		if errors.Is(err, place.ErrPlaceExists) {
			writeConflict(w, "place already exists")
			return
		}
		writeInternalError(w, "failed to create place")
		return
	}

	s.logger.Info("place created", "place_id", p.ID, "name", p.Name)
	s.publishPlaceEvent("created", p)

	writeJSON(w, http.StatusCreated, p)
}

// handleUpdatePlace applies a partial update to a place. Manager only.
func (s *Server) handleUpdatePlace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.places.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			writeNotFound(w, "place not found")
			return
		}
		writeInternalError(w, "failed to get place")
		return
	}

	var req updatePlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Capacity != nil {
		p.Capacity = *req.Capacity
	}
	p.UpdatedAt = time.Now().UTC()

	if err := p.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.places.Update(r.Context(), p); err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			writeNotFound(w, "place not found")
			return
		}
		writeInternalError(w, "failed to update place")
		return
	}

	s.publishPlaceEvent("updated", p)

	writeJSON(w, http.StatusOK, p)
}

// handleDeletePlace removes a place and its derived data. Manager only.
//
// Live snapshots and history rows are removed alongside the place (the
// schema cascades, the explicit deletes cover databases opened without
// foreign keys). Media files are removed best-effort.
func (s *Server) handleDeletePlace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	p, err := s.places.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			writeNotFound(w, "place not found")
			return
		}
		writeInternalError(w, "failed to get place")
		return
	}

	if err := s.places.Delete(ctx, id); err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			writeNotFound(w, "place not found")
			return
		}
		writeInternalError(w, "failed to delete place")
		return
	}

	if err := s.liveRepo.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete live data", "place_id", id, "error", err)
	}
	if err := s.histRepo.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete history", "place_id", id, "error", err)
	}
	s.removeMediaFiles(p)

	s.logger.Info("place deleted", "place_id", id)
	s.publishPlaceEvent("deleted", p)

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// publishPlaceEvent fans a place lifecycle event out to WebSocket
// clients and the MQTT broker. Both paths are best-effort.
func (s *Server) publishPlaceEvent(event string, p *place.Place) {
	payload := map[string]any{
		"event": event,
		"place": p,
	}

	if s.hub != nil {
		s.hub.Broadcast(ChannelPlaces, payload)
	}
	if s.mqtt != nil {
		topic := mqtt.Topics{}.PlaceEvent(event)
		if err := s.mqtt.PublishJSON(topic, payload, false); err != nil {
			s.logger.Warn("place event publish failed", "topic", topic, "error", err)
		}
	}
}

// removeMediaFiles deletes a place's uploaded image and video, if any.
func (s *Server) removeMediaFiles(p *place.Place) {
	for _, mediaURL := range []string{p.ImageURL, p.VideoURL} {
		if mediaURL == "" {
			continue
		}
		path := filepath.Join(s.mediaCfg.UploadDir, filepath.Base(mediaURL))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove media file", "path", path, "error", err)
		}
	}
}
