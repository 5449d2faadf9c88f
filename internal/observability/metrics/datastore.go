package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics contains all Prometheus metrics related to database
// operations.
type DatastoreMetrics struct {
	Operations    *prometheus.CounterVec
	Errors        *prometheus.CounterVec
	QueryDuration prometheus.Histogram
	registry      *prometheus.Registry
}

// NewDatastoreMetrics creates a new instance of DatastoreMetrics.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register datastore metrics: %w", err)
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() {
	m.Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskpulse_datastore_operations_total",
		Help: "Total number of datastore operations by kind",
	}, []string{"operation"})

	m.Errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskpulse_datastore_errors_total",
		Help: "Total number of datastore errors by kind",
	}, []string{"operation"})

	m.QueryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "deskpulse_datastore_query_duration_seconds",
		Help:    "Duration of datastore queries in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
}

// RecordOperation increments the operation counter for a kind.
func (m *DatastoreMetrics) RecordOperation(operation string) {
	m.Operations.WithLabelValues(operation).Inc()
}

// RecordError increments the error counter for a kind.
func (m *DatastoreMetrics) RecordError(operation string) {
	m.Errors.WithLabelValues(operation).Inc()
}

// ObserveQueryDuration records a query duration sample.
func (m *DatastoreMetrics) ObserveQueryDuration(seconds float64) {
	m.QueryDuration.Observe(seconds)
}

// Describe implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Operations.Describe(ch)
	m.Errors.Describe(ch)
	ch <- m.QueryDuration.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Operations.Collect(ch)
	m.Errors.Collect(ch)
	ch <- m.QueryDuration
}
