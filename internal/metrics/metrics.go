// Package metrics exposes Prometheus instrumentation for the
// aggregation service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ProviderRequests counts provider invocations by outcome. Status is
	// "success", "empty" or "error".
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nutrihub_provider_requests_total",
		Help: "Provider search invocations by provider and outcome.",
	}, []string{"provider", "status"})

	// ProviderLatency observes wall time of provider search calls.
	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nutrihub_provider_request_seconds",
		Help:    "Latency of provider search calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	// CacheHits and CacheMisses count cache lookups.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nutrihub_cache_hits_total",
		Help: "Search cache hits.",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nutrihub_cache_misses_total",
		Help: "Search cache misses.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
