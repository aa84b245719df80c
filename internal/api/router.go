package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	// Uploaded media (place images and videos)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(s.mediaCfg.UploadDir))))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.With(s.jsonBodyLimitMiddleware).Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Group(func(r chi.Router) {
			r.Use(s.jsonBodyLimitMiddleware)
			r.Post("/auth/signup", s.handleSignup)
			r.Post("/auth/login", s.handleLogin)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// JSON endpoints share the standard body limit
			r.Group(func(r chi.Router) {
				r.Use(s.jsonBodyLimitMiddleware)

				r.Get("/auth/me", s.handleMe)

				// WS ticket requires authentication - user must be logged in
				// to request a ticket
				r.Post("/auth/ws-ticket", s.handleWSTicket)

				r.Route("/places", func(r chi.Router) {
					r.Get("/", s.handleListPlaces)
					r.With(s.requireManager).Post("/", s.handleCreatePlace)

					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", s.handleGetPlace)
						r.With(s.requireManager).Patch("/", s.handleUpdatePlace)
						r.With(s.requireManager).Delete("/", s.handleDeletePlace)

						r.Get("/live", s.handleGetLiveData)
						r.With(s.requireManager).Post("/refresh", s.handleRefreshLiveData)
						r.Get("/history", s.handleGetHistory)
						r.With(s.requireManager).Post("/analyze", s.handleAnalyzeVideo)
					})
				})
			})

			// Media uploads: size limits come from MediaConfig and are
			// applied inside the handlers, not the JSON body limit.
			r.Group(func(r chi.Router) {
				r.Use(s.requireManager)
				r.Post("/places/{id}/image", s.handleUploadImage)
				r.Post("/places/{id}/video", s.handleUploadVideo)
			})

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}
