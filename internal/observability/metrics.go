package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	upstreamRequestsTotal *prometheus.CounterVec
	upstreamLatency       *prometheus.HistogramVec
	cacheResultsTotal     *prometheus.CounterVec
	invalidationsTotal    *prometheus.CounterVec
	uploadsRejectedTotal  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the gateway.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		upstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_upstream_requests_total",
			Help: "Calls made to the reservation backend and ViaCEP.",
		}, []string{"resource", "method", "status"})

		upstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_upstream_latency_seconds",
			Help:    "Latency distribution of backend calls.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 3.0, 10.0},
		}, []string{"resource", "method"})

		cacheResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_cache_results_total",
			Help: "Query cache lookups by outcome.",
		}, []string{"resource", "result"})

		invalidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_cache_invalidations_total",
			Help: "Cache invalidations by resource and origin.",
		}, []string{"resource", "origin"})

		uploadsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_uploads_rejected_total",
			Help: "Uploads refused before reaching the backend.",
		}, []string{"reason"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			upstreamRequestsTotal,
			upstreamLatency,
			cacheResultsTotal,
			invalidationsTotal,
			uploadsRejectedTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// UpstreamRequests exposes the counter for backend calls.
func UpstreamRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return upstreamRequestsTotal
}

// UpstreamLatency exposes the latency histogram for backend calls.
func UpstreamLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return upstreamLatency
}

// CacheResults exposes the hit/miss/error counter of the query cache.
func CacheResults() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheResultsTotal
}

// Invalidations exposes the cache invalidation counter.
func Invalidations() *prometheus.CounterVec {
	RegisterMetrics()
	return invalidationsTotal
}

// UploadsRejected exposes the counter of refused uploads by reason.
func UploadsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsRejectedTotal
}
