package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"

	"github.com/marcelsud/bot-gateway/gateway"
	"github.com/marcelsud/bot-gateway/registry"
)

// Handlers sets up the gateway's HTTP surface: the per-token webhook
// endpoint, health, and metrics.
func Handlers(
	logger zerolog.Logger,
	table *gateway.Table,
	snapshot *registry.Snapshot,
	starter InstanceStarter,
	stats *gateway.Stats,
	metricsHandler http.Handler,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// Platform event delivery, keyed by the instance's secret token.
	r.Post("/{token}/", postUpdate(logger, table, snapshot, starter, stats).ServeHTTP)

	return r
}
