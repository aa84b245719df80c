package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crowdsight/crowdsight-core/internal/live"
	"github.com/crowdsight/crowdsight-core/internal/place"
	"github.com/crowdsight/crowdsight-core/internal/seating"
)

// liveDataResponse is the wire shape for live occupancy reads.
// It matches live.Snapshot plus an initialised flag so clients can
// distinguish "empty room" from "never analysed".
type liveDataResponse struct {
	*live.Snapshot
	Initialized bool `json:"initialized"`
}

// handleGetLiveData returns the latest occupancy snapshot for a place.
//
// A place that has never been analysed still gets a well-formed
// response: empty seat and table lists, zero occupancy, and
// initialized=false. Clients render the same shape either way.
func (s *Server) handleGetLiveData(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "id")
	ctx := r.Context()

	snap, err := s.liveRepo.Get(ctx, placeID)
	if err == nil {
		writeJSON(w, http.StatusOK, liveDataResponse{Snapshot: snap, Initialized: true})
		return
	}
	if !errors.Is(err, live.ErrSnapshotNotFound) {
		writeInternalError(w, "failed to load live data")
		return
	}

	// No snapshot yet: respond with the default shape, named after the
	// place so dashboards can label the card before the first analysis.
	p, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			writeNotFound(w, "place not found")
			return
		}
		writeInternalError(w, "failed to load live data")
		return
	}

	writeJSON(w, http.StatusOK, liveDataResponse{
		Snapshot: &live.Snapshot{
			PlaceID:   p.ID,
			PlaceName: p.Name,
			Seats:     []seating.Seat{},
			Tables:    []seating.Table{},
		},
		Initialized: false,
	})
}

// handleRefreshLiveData re-broadcasts the stored snapshot for a place
// so every connected client converges on the persisted state. Manager
// only. No analysis runs here; snapshots change only when new media is
// analysed.
func (s *Server) handleRefreshLiveData(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "id")
	ctx := r.Context()

	p, err := s.places.GetByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			writeNotFound(w, "place not found")
			return
		}
		writeInternalError(w, "failed to refresh live data")
		return
	}

	snap, err := s.liveRepo.Get(ctx, placeID)
	if errors.Is(err, live.ErrSnapshotNotFound) {
		writeJSON(w, http.StatusOK, liveDataResponse{
			Snapshot: &live.Snapshot{
				PlaceID:   p.ID,
				PlaceName: p.Name,
				Seats:     []seating.Seat{},
				Tables:    []seating.Table{},
			},
			Initialized: false,
		})
		return
	}
	if err != nil {
		writeInternalError(w, "failed to refresh live data")
		return
	}

	// No telemetry point is written here; nothing was measured.
	s.broadcastSnapshot(snap)

	writeJSON(w, http.StatusOK, liveDataResponse{Snapshot: snap, Initialized: true})
}
