package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors the server exports on /metrics.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	AssistantCalls      *prometheus.CounterVec
	QueryStatFailures   prometheus.Counter
}

// NewMetrics registers every collector on reg. Tests pass a fresh
// prometheus.NewRegistry() so that building several routers in one
// process does not trip duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barysai",
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "barysai",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		AssistantCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "barysai",
				Name:      "assistant_calls_total",
				Help:      "Completion attempts against the AI provider by model and outcome.",
			},
			[]string{"model", "outcome"},
		),
		QueryStatFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "barysai",
				Name:      "query_stat_failures_total",
				Help:      "Query statistics rows that could not be written.",
			},
		),
	}
}
