// Package metrics registers the Prometheus instruments shared by the
// API client and the stub server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequests counts API client calls by endpoint and outcome.
	// Status is the HTTP status code, or "error" for transport failures.
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgetbot_api_requests_total",
		Help: "API client requests by endpoint and status.",
	}, []string{"endpoint", "status"})

	// APIDuration tracks API client call latency by endpoint.
	APIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "budgetbot_api_request_duration_seconds",
		Help:    "API client request duration by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
