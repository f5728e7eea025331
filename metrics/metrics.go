package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors for the catalog client and the sync orchestrator. They are
// registered on the default registry and exposed at /metrics.
var (
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_token_refreshes_total",
			Help: "Login exchanges performed against the catalog API",
		},
		[]string{"result"}, // "success", "failure"
	)

	AuthRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_auth_retries_total",
			Help: "Page requests retried after an authorization failure",
		},
	)

	PagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_pages_fetched_total",
			Help: "Catalog pages retrieved successfully",
		},
	)

	PageRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_page_request_duration_seconds",
			Help:    "Duration of catalog page requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Completed synchronization passes by outcome",
		},
		[]string{"result"}, // "success", "failure"
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of full synchronization passes in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	SyncRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_committed_records",
			Help: "Projects in the currently committed collection",
		},
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful synchronization",
		},
	)
)
