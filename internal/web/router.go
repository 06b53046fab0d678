package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"caremonitor/internal/platform/health"
	"caremonitor/internal/platform/metrics"
	"caremonitor/internal/platform/middleware"
	"caremonitor/internal/session"
)

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Handler        *Handler
	Sessions       *session.Service
	Health         *health.Handler
	Metrics        *metrics.Metrics
	ClientMetadata *middleware.ClientMetadata
	Logger         *slog.Logger
	RequestTimeout time.Duration
	// MetricsHandler serves /metrics; nil means promhttp.Handler().
	MetricsHandler http.Handler
}

// NewRouter builds the full HTTP surface. Middleware order: Recovery,
// RequestID, ClientMetadata, Logger, Timeout.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(cfg.ClientMetadata.Handler)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestTime)
	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))

	cfg.Health.Register(r)
	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.Sessions, cfg.Logger))

		cfg.Handler.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(cfg.Metrics))
			cfg.Handler.RegisterPages(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSessionJSON(cfg.Metrics))
			cfg.Handler.RegisterAPI(r)
		})
	})

	r.NotFound(cfg.Handler.HandleNotFound)

	return r
}
