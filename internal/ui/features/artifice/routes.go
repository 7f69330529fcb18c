package artifice

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/veetance/artifice/internal/curation"
)

// SetupRoutes configures routes for the artifice feature.
func SetupRoutes(
	router chi.Router,
	registry *curation.Registry,
	sessionStore sessions.Store,
	runtimeURL string,
	isDev bool,
) error {
	handlers := NewHandlers(registry, sessionStore, runtimeURL, isDev)

	router.Get("/", handlers.Page)
	router.Get("/sandbox/{contextID}", handlers.Sandbox)

	router.Route("/api/artifice", func(r chi.Router) {
		r.Get("/updates", handlers.Updates)
		r.Post("/keep", handlers.Keep)
		r.Post("/kill", handlers.Kill)
		r.Get("/flagged", handlers.Flagged)
		r.Post("/params", handlers.SketchMessage)
		r.Put("/params", handlers.Tune)
	})

	return nil
}
