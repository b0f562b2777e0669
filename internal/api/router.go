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
	r.Use(s.bodySizeLimitMiddleware)

	// Realtime push (auth via query parameter, validated by the hub)
	r.Get(s.wsPath(), s.handleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/gardens/{gardenID}", func(r chi.Router) {
				r.Get("/schedules", s.handleListSchedules)
				r.Get("/schedules/history", s.handleScheduleHistory)
				r.Post("/schedules", s.handleCreateSchedule)
				r.Post("/schedules/weekly", s.handleCreateWeeklySchedule)
				r.Delete("/schedules/ai", s.handleDeleteAISchedules)

				r.Post("/agent/schedule", s.handleCreateAgentHeartbeat)
				r.Put("/agent/schedule/enabled", s.handleSetAgentScheduleEnabled)

				r.Post("/devices/{target}/{action}", s.handleControlDevices)
			})

			r.Route("/esps/{espID}", func(r chi.Router) {
				r.Post("/reset", s.handleBoardCommand(boardReset))
				r.Post("/stop", s.handleBoardCommand(boardStop))
				r.Post("/resume", s.handleBoardCommand(boardResume))
			})

			r.Route("/schedules/{jobID}", func(r chi.Router) {
				r.Put("/", s.handleUpdateSchedule)
				r.Put("/weekly", s.handleUpdateWeeklySchedule)
				r.Delete("/", s.handleDeleteSchedule)
				r.Post("/toggle", s.handleToggleSchedule)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     s.version,
		"subjects":    s.hub.SubjectCount(),
		"schedules":   s.schedules != nil,
		"devices":     s.commands != nil,
		"ws_endpoint": s.wsPath(),
	})
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/wsinit"
	}
	return s.wsCfg.Path
}
