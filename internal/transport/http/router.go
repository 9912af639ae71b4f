// Package httptransport assembles the HTTP router. It is the thin outer
// layer: middleware, route registration, and the metrics endpoint; all
// behavior lives in the handlers and services.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fairgate/internal/monitor/handler"
	"fairgate/internal/platform/middleware"
)

// NewRouter wires all endpoints. Admin routes sit behind bearer-token
// authentication; everything else is open to the platform network.
func NewRouter(h *handler.Handler, validator middleware.TokenValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Group(func(r chi.Router) {
		h.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		h.RegisterAdmin(r)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}
