package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsumerMetrics contains all Prometheus metrics related to the UI consumer
// loop.
type ConsumerMetrics struct {
	EventsProcessed *prometheus.CounterVec
	HandlerErrors   *prometheus.CounterVec
	DrainedAtStop   prometheus.Gauge
	registry        *prometheus.Registry
}

// NewConsumerMetrics creates a new instance of ConsumerMetrics.
func NewConsumerMetrics(registry *prometheus.Registry) (*ConsumerMetrics, error) {
	m := &ConsumerMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register consumer metrics: %w", err)
	}
	return m, nil
}

func (m *ConsumerMetrics) initMetrics() {
	m.EventsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskpulse_consumer_events_processed_total",
		Help: "Total number of events dispatched by the consumer loop by event type",
	}, []string{"event_type"})

	m.HandlerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskpulse_consumer_handler_errors_total",
		Help: "Total number of handler failures caught by the consumer loop",
	}, []string{"event_type"})

	m.DrainedAtStop = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "deskpulse_consumer_drained_at_stop",
		Help: "Number of events drained during the last graceful shutdown",
	})
}

// RecordProcessed increments the processed-event counter for an event type.
func (m *ConsumerMetrics) RecordProcessed(eventType string) {
	m.EventsProcessed.WithLabelValues(eventType).Inc()
}

// RecordHandlerError increments the handler-failure counter for an event type.
func (m *ConsumerMetrics) RecordHandlerError(eventType string) {
	m.HandlerErrors.WithLabelValues(eventType).Inc()
}

// SetDrainedAtStop records how many events the shutdown drain delivered.
func (m *ConsumerMetrics) SetDrainedAtStop(count int) {
	m.DrainedAtStop.Set(float64(count))
}

// Describe implements the prometheus.Collector interface.
func (m *ConsumerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.EventsProcessed.Describe(ch)
	m.HandlerErrors.Describe(ch)
	ch <- m.DrainedAtStop.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *ConsumerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.EventsProcessed.Collect(ch)
	m.HandlerErrors.Collect(ch)
	ch <- m.DrainedAtStop
}
