package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/datastore"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/errors"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/events"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/observability/metrics"
)

// Camera-health thresholds: consecutive capture failures before the camera is
// considered degraded, then disconnected.
const (
	degradedAfterFailures     = 2
	disconnectedAfterFailures = 5
)

// Config holds the monitoring loop parameters.
type Config struct {
	// Interval is the time between captured frames.
	Interval time.Duration
	// Warmup delays the first classification so the camera can settle.
	Warmup time.Duration
	// UpdateInterval is the cadence of low-priority posture_update telemetry.
	UpdateInterval time.Duration
}

// DefaultConfig returns the default monitoring parameters.
func DefaultConfig() Config {
	return Config{
		Interval:       100 * time.Millisecond,
		Warmup:         2 * time.Second,
		UpdateInterval: 5 * time.Second,
	}
}

// PostureMonitor owns the producer loop. It reads control flags from the
// shared state, raises events through the registry, and persists posture
// segments and alerts. Nothing it does may propagate a panic or error into
// its own loop: monitoring must survive for the lifetime of the process.
type PostureMonitor struct {
	source     FrameSource
	classifier Classifier
	state      *events.MonitorState
	registry   *events.CallbackRegistry
	store      datastore.Interface

	config Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Loop-local tracking; only touched by the producer goroutine.
	startedAt       time.Time
	currentPosture  string
	postureSince    time.Time
	badSince        time.Time
	alerted         bool
	lastAlertAt     time.Time
	lastUpdateAt    time.Time
	cameraState     string
	captureFailures int

	mm     *metrics.MonitorMetrics
	logger *slog.Logger
}

// New creates a posture monitor. store and mm may be nil.
func New(source FrameSource, classifier Classifier, state *events.MonitorState, registry *events.CallbackRegistry, store datastore.Interface, config Config, mm *metrics.MonitorMetrics) *PostureMonitor {
	defaults := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.UpdateInterval <= 0 {
		config.UpdateInterval = defaults.UpdateInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	logger := logging.ForService("monitor")
	if logger == nil {
		logger = slog.Default().With("service", "monitor")
	}

	return &PostureMonitor{
		source:         source,
		classifier:     classifier,
		state:          state,
		registry:       registry,
		store:          store,
		config:         config,
		ctx:            ctx,
		cancel:         cancel,
		currentPosture: PostureUnknown,
		cameraState:    events.CameraConnected,
		mm:             mm,
		logger:         logger,
	}
}

// Start launches the monitoring goroutine.
func (m *PostureMonitor) Start() {
	m.startedAt = time.Now()
	m.lastUpdateAt = m.startedAt
	m.wg.Add(1)
	go m.run()
	m.logger.Info("posture monitoring started",
		"interval", m.config.Interval,
		"warmup", m.config.Warmup,
	)
}

// run is the producer main loop.
func (m *PostureMonitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.flushSegment(time.Now())
			m.logger.Info("posture monitoring stopped")
			return
		case <-ticker.C:
			m.tick(time.Now())
		}
	}
}

// tick performs one capture/classify/decide iteration. Every failure path
// ends in a logged event, never a panic or return.
func (m *PostureMonitor) tick(now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("monitoring tick panicked", "panic", rec)
		}
	}()

	frame, err := m.source.Capture(m.ctx)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		m.onCaptureFailure(err, now)
		return
	}
	m.onCaptureSuccess(now)

	status := m.state.Status()
	if !status.MonitoringActive {
		// Paused: keep polling camera health but raise no posture events
		// and track no durations.
		m.resetPostureTracking(now)
		return
	}

	if now.Sub(m.startedAt) < m.config.Warmup {
		return
	}

	posture, err := m.classifier.Classify(frame)
	if err != nil {
		m.raise(events.NewErrorEvent(err.Error(), "classification"))
		return
	}
	if m.mm != nil {
		m.mm.RecordClassification(posture)
	}

	m.trackPosture(posture, now, status)
	m.maybeSendUpdate(posture, now)
}

// onCaptureFailure advances the camera-health state machine and reports the
// transition.
func (m *PostureMonitor) onCaptureFailure(err error, now time.Time) {
	m.captureFailures++
	if m.mm != nil {
		m.mm.RecordCaptureError()
	}

	var next string
	switch {
	case m.captureFailures >= disconnectedAfterFailures:
		next = events.CameraDisconnected
	case m.captureFailures >= degradedAfterFailures:
		next = events.CameraDegraded
	default:
		return
	}

	if next == m.cameraState {
		return
	}
	m.cameraState = next
	if m.mm != nil {
		m.mm.SetCameraState(next)
	}
	m.logger.Warn("camera state transition",
		"state", next,
		"consecutive_failures", m.captureFailures,
		"error", err,
	)
	m.raise(events.NewCameraStateEvent(next, now))
}

// onCaptureSuccess clears the failure streak, reporting recovery when the
// camera was previously unhealthy.
func (m *PostureMonitor) onCaptureSuccess(now time.Time) {
	m.captureFailures = 0
	if m.mm != nil {
		m.mm.RecordFrame()
	}
	if m.cameraState == events.CameraConnected {
		return
	}
	m.cameraState = events.CameraConnected
	if m.mm != nil {
		m.mm.SetCameraState(events.CameraConnected)
	}
	m.raise(events.NewCameraStateEvent(events.CameraConnected, now))
}

// trackPosture maintains the posture segment and alert state machines.
func (m *PostureMonitor) trackPosture(posture string, now time.Time, status events.Status) {
	if posture != m.currentPosture {
		m.flushSegment(now)
		m.currentPosture = posture
		m.postureSince = now

		if posture == PostureBad {
			m.badSince = now
		} else if m.alerted {
			// Recovery after an alert: tell the user how long the bad
			// stretch lasted.
			previous := int(now.Sub(m.badSince).Seconds())
			m.raise(events.NewCorrectionEvent(previous, now))
			m.alerted = false
			m.badSince = time.Time{}
		} else {
			m.badSince = time.Time{}
		}
	}

	if m.currentPosture != PostureBad || m.badSince.IsZero() {
		return
	}

	badFor := now.Sub(m.badSince)
	threshold := time.Duration(status.ThresholdSeconds) * time.Second
	cooldown := time.Duration(status.CooldownSeconds) * time.Second

	if badFor < threshold {
		return
	}
	if m.alerted && now.Sub(m.lastAlertAt) < cooldown {
		return
	}

	durationSeconds := int(badFor.Seconds())
	m.raise(events.NewAlertEvent(durationSeconds, now))
	m.alerted = true
	m.lastAlertAt = now
	if m.mm != nil {
		m.mm.RecordAlert()
	}

	m.persistAlert(&datastore.AlertRecord{
		TriggeredAt:     now,
		DurationSeconds: durationSeconds,
	})
}

// maybeSendUpdate emits the periodic low-priority telemetry event.
func (m *PostureMonitor) maybeSendUpdate(posture string, now time.Time) {
	if now.Sub(m.lastUpdateAt) < m.config.UpdateInterval {
		return
	}
	m.lastUpdateAt = now

	badDuration := 0
	if !m.badSince.IsZero() {
		badDuration = int(now.Sub(m.badSince).Seconds())
	}
	m.raise(events.NewPostureUpdateEvent(posture, badDuration, now))
}

// flushSegment persists the finished posture segment, if any.
func (m *PostureMonitor) flushSegment(now time.Time) {
	if m.currentPosture == PostureUnknown || m.postureSince.IsZero() {
		return
	}
	duration := int(now.Sub(m.postureSince).Seconds())
	if duration <= 0 {
		return
	}
	m.persistSegment(&datastore.PostureEvent{
		Posture:         m.currentPosture,
		StartedAt:       m.postureSince,
		DurationSeconds: duration,
	})
}

// resetPostureTracking discards in-flight segment state while paused.
func (m *PostureMonitor) resetPostureTracking(now time.Time) {
	if m.currentPosture != PostureUnknown {
		m.flushSegment(now)
	}
	m.currentPosture = PostureUnknown
	m.postureSince = time.Time{}
	m.badSince = time.Time{}
	m.alerted = false
}

// persistSegment writes a posture segment; a database failure is logged and
// surfaced as an error event, never fatal.
func (m *PostureMonitor) persistSegment(segment *datastore.PostureEvent) {
	if m.store == nil {
		return
	}
	if err := m.store.SavePostureEvent(segment); err != nil {
		m.reportStoreFailure("save_posture_event", err)
	}
}

func (m *PostureMonitor) persistAlert(alert *datastore.AlertRecord) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveAlert(alert); err != nil {
		m.reportStoreFailure("save_alert", err)
	}
}

func (m *PostureMonitor) reportStoreFailure(operation string, err error) {
	enhanced := errors.New(err).
		Component("monitor").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
	m.logger.Error("datastore write failed", "operation", operation, "error", enhanced)
	m.raise(events.NewErrorEvent(enhanced.GetMessage(), "database"))
}

// raise notifies the registry; callback isolation inside Notify guarantees
// this never throws back into the loop.
func (m *PostureMonitor) raise(event events.Event) {
	if m.registry == nil {
		return
	}
	m.registry.Notify(event)
}

// Shutdown stops the loop, flushes the open posture segment, and releases the
// capture device.
func (m *PostureMonitor) Shutdown(timeout time.Duration) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		return errors.Newf("monitor shutdown timeout exceeded after %v", timeout).
			Component("monitor").
			Category(errors.CategoryTimeout).
			Build()
	}

	return m.source.Close()
}
