package routes

import (
	"net/http"
	"time"

	"github.com/fieldops/fieldmirror/internal/api"
	"github.com/fieldops/fieldmirror/internal/config"
	"github.com/fieldops/fieldmirror/internal/db"
	"github.com/fieldops/fieldmirror/internal/logging"
	"github.com/fieldops/fieldmirror/internal/metrics"
	"github.com/fieldops/fieldmirror/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes wires the HTTP surface: health and metrics on the bare
// router, the sync API under /api/v1 behind auth and rate limiting.
func RegisterRoutes(cfg *config.Config, metricsReg *metrics.MetricsRegistry, syncHandler *api.SyncHandler, upSince time.Time) http.Handler {

	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	logging.Info("Router initialized with metrics and logging middleware")

	r.Get("/health", api.HealthCheckHandler(db.DB, cfg.Store.Backend, upSince))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.RateLimitMiddleware)
		v1.Use(middleware.AuthMiddleware(cfg.Server.JWTSecret))

		v1.Get("/sync/status", syncHandler.GetStatus())
		v1.Get("/sync/status/{resource}", syncHandler.GetResourceStatus())
		v1.Get("/sync/jobs", syncHandler.ListJobs())

		v1.Post("/sync/backfill", syncHandler.TriggerBackfill())
		v1.Post("/sync/incremental", syncHandler.TriggerIncremental())
	})

	return r
}
