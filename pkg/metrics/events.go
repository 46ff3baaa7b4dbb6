package metrics

import "github.com/prometheus/client_golang/prometheus"

// EventPublishMetrics counts lifecycle event publish outcomes.
type EventPublishMetrics struct {
	attempts  *prometheus.CounterVec
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewEventPublishMetrics registers the publish counters on the provided
// registerer. A nil registerer yields a no-op collector.
func NewEventPublishMetrics(reg prometheus.Registerer) *EventPublishMetrics {
	if reg == nil {
		return &EventPublishMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_publish_attempts_total",
		Help: "Publish attempts per lifecycle event type.",
	}, []string{"event_type"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_publish_success_total",
		Help: "Successfully published lifecycle events.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "event_publish_failure_total",
		Help: "Lifecycle events that exhausted their publish attempts.",
	}, []string{"event_type"})
	reg.MustRegister(attempts, published, failed)
	return &EventPublishMetrics{
		attempts:  attempts,
		published: published,
		failed:    failed,
	}
}

// IncAttempt records one publish attempt for the event type.
func (m *EventPublishMetrics) IncAttempt(eventType string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncPublished records a successful publish for the event type.
func (m *EventPublishMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed records a terminally failed publish for the event type.
func (m *EventPublishMetrics) IncFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
