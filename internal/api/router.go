package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/prasanna12art/skill-boost-automator/internal/advisory"
	"github.com/prasanna12art/skill-boost-automator/internal/companion"
	"github.com/prasanna12art/skill-boost-automator/internal/labs"
	"github.com/prasanna12art/skill-boost-automator/internal/store"
)

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(
	ctrl *companion.Controller,
	st *labs.Store,
	kv store.KV,
	advisor advisory.Advisor,
	apiKey string,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	healthH := NewHealthHandler(kv, st, advisor)
	labH := NewLabHandler(ctrl)
	copilotH := NewCopilotHandler(ctrl)
	sessionH := NewSessionHandler(ctrl)
	streamH := NewStreamHandler(st, logger)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Route("/labs", func(r chi.Router) {
			r.Get("/", labH.List)
			r.Get("/stats", labH.Stats)
			r.Get("/{id}", labH.Get)
			r.Patch("/{id}", labH.Update)
			r.Post("/{id}/steps/generate", labH.GenerateSteps)
			r.Post("/{id}/steps/{stepId}/toggle", labH.ToggleStep)
			r.Post("/{id}/copilot/run", copilotH.Run)
			r.Post("/{id}/copilot/pause", copilotH.Pause)
			r.Post("/{id}/copilot/reset", copilotH.Reset)
		})

		r.Get("/selection", sessionH.GetSelection)
		r.Put("/selection", sessionH.PutSelection)

		r.Get("/insights", sessionH.GetInsights)
		r.Post("/insights/refresh", sessionH.RefreshInsights)

		r.Route("/preferences/theme", func(r chi.Router) {
			r.Get("/", sessionH.GetTheme)
			r.Put("/", sessionH.PutTheme)
			r.Post("/toggle", sessionH.ToggleTheme)
		})

		r.Get("/stream", streamH.Stream)
	})

	return r
}
