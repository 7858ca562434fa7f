package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outbox dispatch outcomes.
const (
	OutboxPublished = "published"
	OutboxRetried   = "retried"
	OutboxDLQ       = "dlq"
)

// OutboxMetrics counts dispatcher outcomes per event type.
type OutboxMetrics struct {
	events  *prometheus.CounterVec
	batches prometheus.Histogram
}

// NewOutboxMetrics registers the dispatcher collectors on reg.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_total",
		Help:      "Outbox events handled by the dispatcher, by event type and outcome.",
	}, []string{"event_type", "outcome"})
	batches := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "outbox_batch_size",
		Help:      "Number of rows claimed per dispatcher poll.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
	})
	reg.MustRegister(events, batches)
	return &OutboxMetrics{events: events, batches: batches}
}

// Record counts one dispatched event.
func (m *OutboxMetrics) Record(eventType, outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType), outcome).Inc()
}

// ObserveBatch records how many rows a poll claimed.
func (m *OutboxMetrics) ObserveBatch(size int) {
	if m == nil || m.batches == nil {
		return
	}
	m.batches.Observe(float64(size))
}
