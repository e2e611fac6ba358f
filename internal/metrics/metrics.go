package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the mirror service
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Sync Metrics
	SyncRunsTotal        prometheus.CounterVec
	SyncRunDuration      prometheus.HistogramVec
	RecordsUpsertedTotal prometheus.CounterVec
	RecordsSkippedTotal  prometheus.CounterVec
	FetchPagesTotal      prometheus.CounterVec
	FetchRetriesTotal    prometheus.CounterVec
	RateLimiterDelay     prometheus.GaugeVec
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldmirror_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fieldmirror_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fieldmirror_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		SyncRunsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldmirror_sync_runs_total",
				Help: "Completed sync runs by resource, type, and outcome",
			},
			[]string{"resource", "sync_type", "status"},
		),
		SyncRunDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fieldmirror_sync_run_duration_seconds",
				Help:    "Duration of sync runs in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"resource", "sync_type"},
		),
		RecordsUpsertedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldmirror_records_upserted_total",
				Help: "Records written to the local mirror",
			},
			[]string{"resource"},
		),
		RecordsSkippedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldmirror_records_skipped_total",
				Help: "Fetched records skipped for missing ids",
			},
			[]string{"resource"},
		),
		FetchPagesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldmirror_fetch_pages_total",
				Help: "Remote pages fetched by resource and outcome",
			},
			[]string{"resource", "status"},
		),
		FetchRetriesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldmirror_fetch_retries_total",
				Help: "Page fetch retries by resource",
			},
			[]string{"resource"},
		),
		RateLimiterDelay: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fieldmirror_rate_limiter_delay_seconds",
				Help: "Current adaptive fetch delay per resource",
			},
			[]string{"resource"},
		),
	}
}
