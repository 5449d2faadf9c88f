package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MonitorMetrics contains all Prometheus metrics related to the posture
// monitoring producer loop.
type MonitorMetrics struct {
	FramesCaptured  prometheus.Counter
	CaptureErrors   prometheus.Counter
	Classifications *prometheus.CounterVec
	AlertsRaised    prometheus.Counter
	CameraState     prometheus.Gauge
	registry        *prometheus.Registry
}

// NewMonitorMetrics creates a new instance of MonitorMetrics.
func NewMonitorMetrics(registry *prometheus.Registry) (*MonitorMetrics, error) {
	m := &MonitorMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register monitor metrics: %w", err)
	}
	return m, nil
}

func (m *MonitorMetrics) initMetrics() {
	m.FramesCaptured = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deskpulse_monitor_frames_captured_total",
		Help: "Total number of frames captured by the monitoring loop",
	})

	m.CaptureErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deskpulse_monitor_capture_errors_total",
		Help: "Total number of frame capture failures",
	})

	m.Classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskpulse_monitor_classifications_total",
		Help: "Total number of posture classifications by result",
	}, []string{"posture"})

	m.AlertsRaised = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deskpulse_monitor_alerts_raised_total",
		Help: "Total number of posture alerts raised",
	})

	m.CameraState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "deskpulse_monitor_camera_connected",
		Help: "Camera connectivity (1 connected, 0.5 degraded, 0 disconnected)",
	})
}

// RecordFrame increments the captured-frame counter.
func (m *MonitorMetrics) RecordFrame() {
	m.FramesCaptured.Inc()
}

// RecordCaptureError increments the capture-failure counter.
func (m *MonitorMetrics) RecordCaptureError() {
	m.CaptureErrors.Inc()
}

// RecordClassification increments the classification counter for a posture.
func (m *MonitorMetrics) RecordClassification(posture string) {
	m.Classifications.WithLabelValues(posture).Inc()
}

// RecordAlert increments the alert counter.
func (m *MonitorMetrics) RecordAlert() {
	m.AlertsRaised.Inc()
}

// SetCameraState updates the camera connectivity gauge.
func (m *MonitorMetrics) SetCameraState(state string) {
	switch state {
	case "connected":
		m.CameraState.Set(1)
	case "degraded":
		m.CameraState.Set(0.5)
	default:
		m.CameraState.Set(0)
	}
}

// Describe implements the prometheus.Collector interface.
func (m *MonitorMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.FramesCaptured.Desc()
	ch <- m.CaptureErrors.Desc()
	m.Classifications.Describe(ch)
	ch <- m.AlertsRaised.Desc()
	ch <- m.CameraState.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *MonitorMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.FramesCaptured
	ch <- m.CaptureErrors
	m.Classifications.Collect(ch)
	ch <- m.AlertsRaised
	ch <- m.CameraState
}
