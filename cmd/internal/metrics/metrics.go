// Package metrics holds the Prometheus collectors shared by the HTTP
// middleware chain and the request adapters, so both sides can record
// against the same registry without an import cycle between app and api.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts every request the server handled, labeled
	// by route and response status class.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_http_requests_total",
		Help: "Total HTTP requests handled, by route and status.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency in seconds, labeled by
	// route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hub_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// TokenOperationsTotal counts login/refresh/revoke/revoke_all/pit
	// attempts, labeled by operation and outcome.
	TokenOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_token_operations_total",
		Help: "Total auth state-machine operations, by op and result.",
	}, []string{"op", "result"})
)

// Handler exposes the registry at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTokenOp records the outcome of a login/refresh/revoke/revoke_all/pit
// call. result is "ok" or "error".
func ObserveTokenOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	TokenOperationsTotal.WithLabelValues(op, result).Inc()
}
