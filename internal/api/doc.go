// Package api provides the HTTP REST API and WebSocket server for CrowdSight.
//
// It exposes place management, media uploads, live occupancy reads, and
// historical trend data to user interfaces (web dashboard, signage,
// mobile apps).
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Routes live under /api/v1. Reads (places, live data, history) require
// an authenticated user; writes (place CRUD, uploads) require the
// manager role. Uploaded media is served statically under /uploads.
//
// Real-time updates flow through the WebSocket hub: clients subscribe
// to the "live_data.updated" and "places.updated" channels and receive
// events whenever an analysis run commits a snapshot or a place record
// changes.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
