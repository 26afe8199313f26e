// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Exchange outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeEmpty    = "empty"
	OutcomeFallback = "fallback"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AIRequestDuration tracks AI gateway call duration.
	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI gateway completion duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "status"},
	)

	// RelayConnectionsActive tracks open relay connections.
	RelayConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connections_active",
			Help: "Number of active relay connections",
		},
	)

	// RelayEventsTotal tracks inbound relay events by name.
	RelayEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Total relay events received",
		},
		[]string{"event"},
	)

	// ExchangesTotal tracks replies sent by outcome.
	ExchangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchanges_total",
			Help: "Total replies relayed, by outcome",
		},
		[]string{"outcome"},
	)

	// PersistFailuresTotal tracks conversation records that could not be stored.
	PersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "persist_failures_total",
			Help: "Total failed conversation inserts",
		},
	)

	// ConversationsTotal tracks conversation records stored.
	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversation records stored",
		},
		[]string{"source"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordAIRequest records metrics for an AI gateway call.
func RecordAIRequest(provider, status string, duration float64) {
	AIRequestDuration.WithLabelValues(provider, status).Observe(duration)
}

// RecordExchange counts a relayed reply.
func RecordExchange(outcome string) {
	ExchangesTotal.WithLabelValues(outcome).Inc()
}

// IncrementRelayConnections increments the active relay connection count.
func IncrementRelayConnections() {
	RelayConnectionsActive.Inc()
}

// DecrementRelayConnections decrements the active relay connection count.
func DecrementRelayConnections() {
	RelayConnectionsActive.Dec()
}
