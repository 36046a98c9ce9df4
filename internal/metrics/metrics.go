// Package metrics exposes Prometheus counters for upstream requests and
// cache behaviour. A process-wide registry is served by the MCP HTTP mode.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	registry = prometheus.NewRegistry()

	upstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finkit",
		Name:      "upstream_requests_total",
		Help:      "Requests made to remote APIs, by source and outcome.",
	}, []string{"source", "outcome"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finkit",
		Name:      "cache_lookups_total",
		Help:      "Cache lookups, by namespace and result.",
	}, []string{"namespace", "result"})

	feedItemsAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "finkit",
		Name:      "feed_items_added_total",
		Help:      "New feed items merged into storage.",
	})
)

func init() {
	registry.MustRegister(upstreamRequests, cacheLookups, feedItemsAdded)
}

// Registry returns the registry holding finkit metrics.
func Registry() *prometheus.Registry {
	return registry
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveRequest counts one upstream request.
func ObserveRequest(source string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	upstreamRequests.WithLabelValues(source, outcome).Inc()
}

// ObserveCache counts one cache lookup.
func ObserveCache(namespace string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(namespace, result).Inc()
}

// AddFeedItems counts newly merged feed items.
func AddFeedItems(n int) {
	if n > 0 {
		feedItemsAdded.Add(float64(n))
	}
}
