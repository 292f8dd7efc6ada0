package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the pipeline metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeMalformed = "malformed"
	OutcomeDuplicate = "duplicate"
)

// LabelUnknown replaces empty or unrecognised label values.
const LabelUnknown = "unknown"

// ConsumerMetrics records queue consumer activity.
type ConsumerMetrics struct {
	received       prometheus.Counter
	processed      *prometheus.CounterVec
	receiveFailure prometheus.Counter
	deleteFailure  prometheus.Counter
	cycleDuration  prometheus.Histogram
}

// NewConsumerMetrics registers the consumer metrics on the provided registerer.
func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	received := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shipping_consumer_messages_received_total",
		Help: "Messages received from the shipment events queue.",
	})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipping_consumer_messages_processed_total",
		Help: "Messages handled by the consumer, by action and outcome.",
	}, []string{"action", "outcome"})
	receiveFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shipping_consumer_receive_failures_total",
		Help: "Failed receive calls against the shipment events queue.",
	})
	deleteFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shipping_consumer_delete_failures_total",
		Help: "Failed acknowledgements against the shipment events queue.",
	})
	cycleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shipping_consumer_cycle_duration_seconds",
		Help:    "Duration of one poll cycle in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(received, processed, receiveFailure, deleteFailure, cycleDuration)
	return &ConsumerMetrics{
		received:       received,
		processed:      processed,
		receiveFailure: receiveFailure,
		deleteFailure:  deleteFailure,
		cycleDuration:  cycleDuration,
	}
}

func (c *ConsumerMetrics) AddReceived(n int) {
	if c == nil || c.received == nil || n <= 0 {
		return
	}
	c.received.Add(float64(n))
}

func (c *ConsumerMetrics) IncProcessed(action, outcome string) {
	if c == nil || c.processed == nil {
		return
	}
	c.processed.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

func (c *ConsumerMetrics) IncReceiveFailure() {
	if c == nil || c.receiveFailure == nil {
		return
	}
	c.receiveFailure.Inc()
}

func (c *ConsumerMetrics) IncDeleteFailure() {
	if c == nil || c.deleteFailure == nil {
		return
	}
	c.deleteFailure.Inc()
}

func (c *ConsumerMetrics) ObserveCycle(d time.Duration) {
	if c == nil || c.cycleDuration == nil {
		return
	}
	c.cycleDuration.Observe(d.Seconds())
}

// PublishMetrics records outbound events and notifications.
type PublishMetrics struct {
	events        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewPublishMetrics registers the publish metrics on the provided registerer.
func NewPublishMetrics(reg prometheus.Registerer) *PublishMetrics {
	if reg == nil {
		return &PublishMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipping_events_published_total",
		Help: "Shipment events sent to the queue, by action and outcome.",
	}, []string{"action", "outcome"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipping_notifications_published_total",
		Help: "Notifications published to the topic, by event type and outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(events, notifications)
	return &PublishMetrics{events: events, notifications: notifications}
}

func (p *PublishMetrics) IncEvent(action, outcome string) {
	if p == nil || p.events == nil {
		return
	}
	p.events.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

func (p *PublishMetrics) IncNotification(eventType, outcome string) {
	if p == nil || p.notifications == nil {
		return
	}
	p.notifications.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return LabelUnknown
	}
	return v
}
