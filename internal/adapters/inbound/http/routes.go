package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP API.
// prometheus, when non-nil, is served on /metrics.
func NewRouter(lights *StreetlightHandlers, system *SystemHandlers, prometheus http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestSize(1 << 20))
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", system.Health)
	if prometheus != nil {
		r.Handle("/metrics", prometheus)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/metrics", system.GetMetrics)

		r.Route("/streetlights", func(r chi.Router) {
			r.Get("/", lights.ListStreetlights)
			r.Post("/", lights.CreateStreetlight)
			r.Get("/{id}", lights.GetStreetlight)
			r.Post("/{id}/brightness", lights.SetBrightness)
		})
	})

	return r
}
