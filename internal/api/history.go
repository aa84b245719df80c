package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crowdsight/crowdsight-core/internal/history"
	"github.com/crowdsight/crowdsight-core/internal/place"
)

// historyResponse is the wire shape for occupancy trend reads.
type historyResponse struct {
	PlaceID    string                `json:"place_id"`
	PlaceName  string                `json:"place_name"`
	Date       time.Time             `json:"date"`
	HourlyData []history.HourlyBucket `json:"hourly_data"`
	TodayStats history.TodayStats    `json:"today_stats"`
	PeakHours  []history.PeakHour    `json:"peak_hours"`
}

// handleGetHistory returns the hourly occupancy trend for a place.
//
// A place with no tracked history yet gets a well-formed default:
// empty hourly data, zeroed today stats, and no peak hours. The place
// name falls back to "Unknown" when the place record is also missing,
// matching what trend dashboards expect.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "id")
	ctx := r.Context()

	h, err := s.histRepo.Get(ctx, placeID)
	if err == nil {
		writeJSON(w, http.StatusOK, historyResponse{
			PlaceID:    h.PlaceID,
			PlaceName:  h.PlaceName,
			Date:       h.Date,
			HourlyData: h.Hourly,
			TodayStats: h.TodayStats,
			PeakHours:  h.PeakHours(),
		})
		return
	}
	if !errors.Is(err, history.ErrHistoryNotFound) {
		writeInternalError(w, "failed to load history")
		return
	}

	placeName := "Unknown"
	if p, perr := s.places.GetByID(ctx, placeID); perr == nil {
		placeName = p.Name
	} else if !errors.Is(perr, place.ErrPlaceNotFound) {
		writeInternalError(w, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		PlaceID:    placeID,
		PlaceName:  placeName,
		Date:       time.Now().UTC(),
		HourlyData: []history.HourlyBucket{},
		TodayStats: history.TodayStats{PeakTime: "N/A", AvgWaitTime: "0 min"},
		PeakHours:  []history.PeakHour{},
	})
}
