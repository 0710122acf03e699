// Package dashboard serves the establishment browser as a JSON API.
package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewRouter wires the API routes. /health, /ready and /metrics stay outside
// the readiness gate so health checks keep answering after a fatal error.
func NewRouter(h *Handler, metricsHandler http.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(MetricsMiddleware)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(LoggingMiddleware(logger))
		r.Use(RecoveryMiddleware(logger))
		r.Use(HaltWhenNotReady(h.readiness))

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/regions", h.ListRegions)
			r.Get("/establishments", h.ListEstablishments)
			r.Get("/cnes/{id}", h.GetEstablishment)
		})
	})

	return r
}
