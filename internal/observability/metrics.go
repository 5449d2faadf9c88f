// Package observability provides metrics and monitoring capabilities for the
// DeskPulse application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Queue     *metrics.QueueMetrics
	Consumer  *metrics.ConsumerMetrics
	Monitor   *metrics.MonitorMetrics
	Datastore *metrics.DatastoreMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors. It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	queueMetrics, err := metrics.NewQueueMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue metrics: %w", err)
	}

	consumerMetrics, err := metrics.NewConsumerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer metrics: %w", err)
	}

	monitorMetrics, err := metrics.NewMonitorMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitor metrics: %w", err)
	}

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Queue:     queueMetrics,
		Consumer:  consumerMetrics,
		Monitor:   monitorMetrics,
		Datastore: datastoreMetrics,
	}, nil
}

// Handler returns an http.Handler exposing the private registry, for mounting
// at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
