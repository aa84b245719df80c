package api

import (
	"net/http"
	"time"
)

// componentStatus reports one dependency's health.
type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealth returns the server health status with per-component detail.
// Optional integrations that are not configured report "disabled".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]componentStatus{}

	db := componentStatus{Status: "ok"}
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			db = componentStatus{Status: "error", Error: err.Error()}
		}
	}
	components["database"] = db

	broker := componentStatus{Status: "disabled"}
	if s.mqtt != nil {
		broker.Status = "ok"
		if err := s.mqtt.HealthCheck(); err != nil {
			broker = componentStatus{Status: "error", Error: err.Error()}
		}
	}
	components["mqtt"] = broker

	tsdb := componentStatus{Status: "disabled"}
	if s.influx != nil {
		tsdb.Status = "ok"
		if err := s.influx.HealthCheck(r.Context()); err != nil {
			tsdb = componentStatus{Status: "error", Error: err.Error()}
		}
	}
	components["influxdb"] = tsdb

	status := "ok"
	if db.Status == "error" {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"components":     components,
	})
}
