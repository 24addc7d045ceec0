// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inbox_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MessagesTotal tracks messages appended to thread logs.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_messages_total",
			Help: "Total messages appended, by sender",
		},
		[]string{"sender"},
	)

	// ThreadsCreatedTotal tracks ad-hoc threads opened from a phone number.
	ThreadsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inbox_threads_created_total",
			Help: "Total threads created from a phone number",
		},
	)

	// ThreadTransitionsTotal tracks thread status changes.
	ThreadTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_thread_transitions_total",
			Help: "Thread status transitions",
		},
		[]string{"from", "to"},
	)

	// UnreadThreads tracks the inbox unread badge.
	UnreadThreads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inbox_unread_threads",
			Help: "Inbox threads with unread guest messages",
		},
	)

	// TextGenDuration tracks text generation latency.
	TextGenDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "textgen_duration_seconds",
			Help:    "Text generation request duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"persona", "status"},
	)

	// TextGenTokensTotal tracks tokens consumed by text generation.
	TextGenTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textgen_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// AutoReplyTotal tracks auto-reply sequences by outcome.
	AutoReplyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoreply_sequences_total",
			Help: "Auto-reply sequences by outcome",
		},
		[]string{"outcome"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// NATSEventsTotal tracks activity mirror connection state changes.
	NATSEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_connection_events_total",
			Help: "NATS connection lifecycle events",
		},
		[]string{"event"},
	)

	// ActivityPublishErrors tracks failed activity mirror publishes.
	ActivityPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_publish_errors_total",
			Help: "Inbox events that failed to publish to the activity stream",
		},
	)

	// DroppedEventsTotal tracks inbox events that a slow consumer missed.
	DroppedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_dropped_events_total",
			Help: "Inbox events dropped because a subscriber or sink fell behind",
		},
		[]string{"target"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordTextGen records metrics for one text generation call.
func RecordTextGen(persona, model, status string, duration float64, tokensIn, tokensOut int) {
	TextGenDuration.WithLabelValues(persona, status).Observe(duration)
	if model == "" {
		return
	}
	TextGenTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	TextGenTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordTransition records a thread status change.
func RecordTransition(from, to string) {
	ThreadTransitionsTotal.WithLabelValues(from, to).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}

// RecordNATSEvent counts a NATS connection lifecycle event.
func RecordNATSEvent(event string) {
	NATSEventsTotal.WithLabelValues(event).Inc()
}

// RecordDroppedEvent counts an event a subscriber or sink did not receive.
func RecordDroppedEvent(target string) {
	DroppedEventsTotal.WithLabelValues(target).Inc()
}
