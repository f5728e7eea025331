package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every endpoint onto a chi router.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", h.Projects)
		r.Get("/insights", h.Insights)
		r.Get("/options", h.Options)
		r.Get("/export.csv", h.ExportCSV)

		r.Route("/filters", func(r chi.Router) {
			r.Get("/", h.Filters)
			r.Delete("/", h.ResetFilters)
			r.Post("/toggle", h.ToggleFilter)
			r.Put("/range", h.SetRange)
		})

		r.Post("/sync", h.Sync)
		r.Get("/sync/status", h.SyncStatus)
	})

	return r
}
