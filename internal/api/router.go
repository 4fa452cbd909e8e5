package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Duel/internal/session"
	"github.com/MikeSquared-Agency/Duel/internal/store"
)

type RouterConfig struct {
	AdminToken         string
	RateLimitPerMinute int
}

// NewRouter builds the public API. s may be nil, in which case the place
// catalogue endpoints answer 503.
func NewRouter(m *session.Manager, s store.Store, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.RateLimitPerMinute))

	sessions := NewSessionsHandler(m, logger)
	places := NewPlacesHandler(s)
	admin := NewAdminHandler(s, m)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", sessions.Create)
		r.Get("/sessions/{id}", sessions.Get)
		r.Delete("/sessions/{id}", sessions.Delete)
		r.Post("/sessions/{id}/refill", sessions.Refill)
		r.Put("/sessions/{id}/filter", sessions.SetFilter)
		r.Post("/sessions/{id}/select", sessions.Select)
		r.Get("/sessions/{id}/selections", sessions.Selections)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminToken))
			r.Post("/places", places.Upsert)
			r.Get("/places", places.List)
			r.Get("/places/{id}", places.Get)
			r.Delete("/places/{id}", places.Delete)
			r.Get("/stats", admin.Stats)
		})
	})

	return r
}

// NewMetricsRouter serves /health and /metrics. A nil gatherer falls back to
// the default registry.
func NewMetricsRouter(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
