package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConsumerMetrics counts inbound trigger message outcomes.
type ConsumerMetrics struct {
	processed *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewConsumerMetrics registers the consumer counters on the provided
// registerer. A nil registerer yields a no-op collector.
func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_messages_processed_total",
		Help: "Inbound trigger messages handled successfully.",
	}, []string{"message_type"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_messages_skipped_total",
		Help: "Inbound trigger messages dropped as replays or unsupported.",
	}, []string{"message_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_messages_failed_total",
		Help: "Inbound trigger messages that could not be handled.",
	}, []string{"message_type"})
	reg.MustRegister(processed, skipped, failed)
	return &ConsumerMetrics{processed: processed, skipped: skipped, failed: failed}
}

// IncProcessed records a handled message for the type.
func (m *ConsumerMetrics) IncProcessed(messageType string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(messageType)).Inc()
}

// IncSkipped records a replayed or unsupported message for the type.
func (m *ConsumerMetrics) IncSkipped(messageType string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(messageType)).Inc()
}

// IncFailed records a failed message for the type.
func (m *ConsumerMetrics) IncFailed(messageType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(messageType)).Inc()
}
