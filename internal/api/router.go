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
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// League and game browsing
		r.Get("/leagues", s.handleListLeagues)
		r.Get("/leagues/{league}/teams", s.handleListTeams)
		r.Get("/leagues/{league}/games", s.handleListGames)

		// Fleet status
		r.Get("/status", s.handleStatusAll)

		// Device registry and control
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleCreateDevice)

			r.Route("/{host}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Delete("/", s.handleDeleteDevice)
				r.Put("/display", s.handleUpdateDisplay)
				r.Put("/postgame", s.handleUpdatePostGame)
				r.Put("/watchlist", s.handleUpdateWatchList)

				r.Post("/watch", s.handleWatch)
				r.Post("/stop", s.handleStop)
				r.Post("/simulate", s.handleSimulate)
				r.Post("/simulate/stop", s.handleSimulateStop)
			})
		})

		// Finished-game history
		r.Get("/history", s.handleListHistory)

		// System operations
		r.Post("/discovery/scan", s.handleDiscoveryScan)
		r.Post("/config/reload", s.handleConfigReload)

		// WebSocket event stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
