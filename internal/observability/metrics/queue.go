// Package metrics provides custom Prometheus metrics for the components of
// the DeskPulse application.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics contains all Prometheus metrics related to the priority event
// queue.
type QueueMetrics struct {
	EventsEnqueued  *prometheus.CounterVec
	EventsDropped   prometheus.Counter
	AdmissionFailed *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
	DeliveryLatency prometheus.Histogram
	registry        *prometheus.Registry
}

// NewQueueMetrics creates a new instance of QueueMetrics.
// It requires a Prometheus registry to register the metrics.
// It returns an error if metric registration fails.
func NewQueueMetrics(registry *prometheus.Registry) (*QueueMetrics, error) {
	m := &QueueMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register queue metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for QueueMetrics.
func (m *QueueMetrics) initMetrics() {
	m.EventsEnqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskpulse_queue_events_enqueued_total",
		Help: "Total number of events admitted to the priority queue by priority",
	}, []string{"priority"})

	m.EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deskpulse_queue_events_dropped_total",
		Help: "Total number of low-priority events dropped under backpressure",
	})

	m.AdmissionFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskpulse_queue_admission_failures_total",
		Help: "Total number of admission timeouts by priority",
	}, []string{"priority"})

	m.QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "deskpulse_queue_depth",
		Help: "Current number of events waiting in the priority queue",
	})

	m.DeliveryLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "deskpulse_queue_delivery_latency_seconds",
		Help:    "End-to-end event delivery latency from enqueue to consumer dispatch",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
}

// RecordEnqueued increments the admitted-event counter for a priority.
func (m *QueueMetrics) RecordEnqueued(priority string) {
	m.EventsEnqueued.WithLabelValues(priority).Inc()
}

// RecordDropped increments the dropped-event counter.
func (m *QueueMetrics) RecordDropped() {
	m.EventsDropped.Inc()
}

// RecordAdmissionFailure increments the admission-timeout counter for a priority.
func (m *QueueMetrics) RecordAdmissionFailure(priority string) {
	m.AdmissionFailed.WithLabelValues(priority).Inc()
}

// SetQueueDepth updates the queue depth gauge.
func (m *QueueMetrics) SetQueueDepth(depth int) {
	m.QueueDepth.Set(float64(depth))
}

// ObserveDeliveryLatency records one end-to-end delivery latency sample.
func (m *QueueMetrics) ObserveDeliveryLatency(latencySeconds float64) {
	m.DeliveryLatency.Observe(latencySeconds)
}

// Describe implements the prometheus.Collector interface.
func (m *QueueMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.EventsEnqueued.Describe(ch)
	ch <- m.EventsDropped.Desc()
	m.AdmissionFailed.Describe(ch)
	ch <- m.QueueDepth.Desc()
	ch <- m.DeliveryLatency.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *QueueMetrics) Collect(ch chan<- prometheus.Metric) {
	m.EventsEnqueued.Collect(ch)
	ch <- m.EventsDropped
	m.AdmissionFailed.Collect(ch)
	ch <- m.QueueDepth
	ch <- m.DeliveryLatency
}
