package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnes_cache_hits_total",
			Help: "Total number of memoized results served from the cache",
		},
		[]string{"query_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnes_cache_misses_total",
			Help: "Total number of cache misses that reached the backend",
		},
		[]string{"query_type"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnes_cache_errors_total",
			Help: "Total number of cache store errors, by operation",
		},
		[]string{"operation"},
	)

	BackendQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cnes_backend_query_duration_seconds",
			Help:    "Duration of backend queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "query_type"},
	)

	BackendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnes_backend_errors_total",
			Help: "Total number of failed backend queries",
		},
		[]string{"backend", "error_code"},
	)

	Lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnes_lookups_total",
			Help: "Total number of external CNES lookups by outcome and failure reason",
		},
		[]string{"outcome", "reason"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cnes_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "status"},
	)

	HTTPRequestsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cnes_http_requests_active",
			Help: "Number of HTTP requests in flight",
		},
	)
)
