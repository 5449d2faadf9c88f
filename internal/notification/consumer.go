package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/errors"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/events"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/observability/metrics"
)

// ConsumerConfig holds configuration for the consumer loop.
type ConsumerConfig struct {
	// PollTimeout bounds each dequeue wait so the loop observes shutdown
	// promptly.
	PollTimeout time.Duration
	// DrainGrace bounds the attempt to deliver remaining queued events at
	// shutdown.
	DrainGrace time.Duration
}

// DefaultConsumerConfig returns the default consumer parameters.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		PollTimeout: 100 * time.Millisecond,
		DrainGrace:  2 * time.Second,
	}
}

// handler executes the UI side effect for one event type.
type handler func(events.Event) error

// Consumer is the single dedicated goroutine that dequeues events in priority
// order and renders them without ever blocking the producer. An exception
// while handling one event is caught, logged, and the loop continues: a
// single bad event must not silently stop all further alert delivery.
type Consumer struct {
	queue  *events.PriorityQueue
	toast  Toaster
	tray   TrayUpdater
	config ConsumerConfig

	handlers map[events.Type]handler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	running   atomic.Bool
	processed atomic.Uint64
	failed    atomic.Uint64
	drained   atomic.Uint64

	cm     *metrics.ConsumerMetrics
	qm     *metrics.QueueMetrics
	logger *slog.Logger
}

// NewConsumer creates the consumer loop. toast and tray default to the
// log-backed sinks when nil; metrics may be nil in tests.
func NewConsumer(queue *events.PriorityQueue, toast Toaster, tray TrayUpdater, config ConsumerConfig, cm *metrics.ConsumerMetrics, qm *metrics.QueueMetrics) (*Consumer, error) {
	if queue == nil {
		return nil, fmt.Errorf("priority queue is required")
	}
	if toast == nil {
		toast = NewLogToaster()
	}
	if tray == nil {
		tray = NewLogTray()
	}

	defaults := DefaultConsumerConfig()
	if config.PollTimeout <= 0 {
		config.PollTimeout = defaults.PollTimeout
	}
	if config.DrainGrace < 0 {
		config.DrainGrace = defaults.DrainGrace
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Consumer{
		queue:  queue,
		toast:  toast,
		tray:   tray,
		config: config,
		ctx:    ctx,
		cancel: cancel,
		cm:     cm,
		qm:     qm,
		logger: getLoggerSafe("consumer"),
	}

	c.handlers = map[events.Type]handler{
		events.TypeAlert:         c.handleAlert,
		events.TypeCorrection:    c.handleCorrection,
		events.TypeStatusChange:  c.handleStatusChange,
		events.TypeCameraState:   c.handleCameraState,
		events.TypeError:         c.handleError,
		events.TypePostureUpdate: c.handlePostureUpdate,
	}

	return c, nil
}

// Start launches the consumer goroutine. Calling Start on a running consumer
// is a no-op.
func (c *Consumer) Start() {
	if c.running.Swap(true) {
		return
	}
	c.wg.Add(1)
	go c.run()
	c.logger.Info("consumer loop started",
		"poll_timeout", c.config.PollTimeout,
		"drain_grace", c.config.DrainGrace,
	)
}

// run is the consumer main loop.
func (c *Consumer) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			drained := c.drain()
			c.drained.Store(uint64(drained))
			if c.cm != nil {
				c.cm.SetDrainedAtStop(drained)
			}
			c.logger.Info("consumer loop stopped", "drained", drained)
			return
		default:
		}

		event, ok := c.queue.Dequeue(c.config.PollTimeout)
		if !ok {
			continue
		}
		c.dispatch(event)
	}
}

// drain delivers remaining queued events with non-blocking dequeues until the
// queue is empty or the grace period expires.
func (c *Consumer) drain() int {
	deadline := time.Now().Add(c.config.DrainGrace)
	drained := 0
	for time.Now().Before(deadline) {
		event, ok := c.queue.TryDequeue()
		if !ok {
			break
		}
		c.dispatch(event)
		drained++
	}
	return drained
}

// dispatch executes the type-specific side effect inside a recovery wrapper
// and records the end-to-end delivery latency. The event counts as processed
// whether or not the handler succeeded: domain events are not idempotent-safe
// to redeliver.
func (c *Consumer) dispatch(event events.Event) {
	latency := time.Since(event.EnqueuedAt)

	h, known := c.handlers[event.Type]
	if !known {
		c.logger.Warn("no handler for event type", "event_type", event.Type)
		return
	}

	// Accounting lives in the defer so a panicking handler still counts the
	// event as processed.
	defer func() {
		c.processed.Add(1)
		c.queue.RecordLatency(latency)
		if c.cm != nil {
			c.cm.RecordProcessed(string(event.Type))
		}
		if c.qm != nil {
			c.qm.ObserveDeliveryLatency(latency.Seconds())
			c.qm.SetQueueDepth(c.queue.Len())
		}
		if rec := recover(); rec != nil {
			c.failed.Add(1)
			if c.cm != nil {
				c.cm.RecordHandlerError(string(event.Type))
			}
			c.logger.Error("event handler panicked",
				"event_type", event.Type,
				"event_id", event.ID,
				"panic", rec,
			)
		}
	}()

	if err := h(event); err != nil {
		c.failed.Add(1)
		if c.cm != nil {
			c.cm.RecordHandlerError(string(event.Type))
		}
		c.logger.Error("event handler failed",
			"event_type", event.Type,
			"event_id", event.ID,
			"latency", latency,
			"error", err,
		)
	} else {
		c.logger.Debug("event delivered",
			"event_type", event.Type,
			"priority", event.Priority.String(),
			"latency", latency,
		)
	}
}

// Shutdown signals the loop to stop, waits for the bounded drain to finish,
// and joins the goroutine. Returns an error if the consumer does not exit
// within the timeout.
func (c *Consumer) Shutdown(timeout time.Duration) error {
	if !c.running.Swap(false) {
		return nil
	}

	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.Newf("consumer shutdown timeout exceeded after %v", timeout).
			Component("consumer").
			Category(errors.CategoryTimeout).
			Build()
	}
}

// Processed returns the number of events dispatched so far.
func (c *Consumer) Processed() uint64 {
	return c.processed.Load()
}

// Failed returns the number of handler failures so far.
func (c *Consumer) Failed() uint64 {
	return c.failed.Load()
}

// Drained returns the number of events delivered by the last shutdown drain.
func (c *Consumer) Drained() uint64 {
	return c.drained.Load()
}

// --- type-specific handlers ---

func (c *Consumer) handleAlert(event events.Event) error {
	duration, _ := event.Data["duration"].(int)
	return c.toast.Toast(
		"Posture alert",
		fmt.Sprintf("Bad posture for %s, time to straighten up", formatSeconds(duration)),
	)
}

func (c *Consumer) handleCorrection(event events.Event) error {
	previous, _ := event.Data["previous_duration"].(int)
	return c.toast.Toast(
		"Posture corrected",
		fmt.Sprintf("Nice recovery after %s", formatSeconds(previous)),
	)
}

func (c *Consumer) handleStatusChange(event events.Event) error {
	active, _ := event.Data["monitoring_active"].(bool)
	return c.tray.UpdateMonitoring(active)
}

func (c *Consumer) handleCameraState(event events.Event) error {
	state, _ := event.Data["state"].(string)
	if err := c.tray.UpdateCamera(state); err != nil {
		return err
	}
	if state == events.CameraDisconnected {
		return c.toast.Toast("Camera disconnected", "DeskPulse lost the webcam, posture monitoring is degraded")
	}
	return nil
}

func (c *Consumer) handleError(event events.Event) error {
	message, _ := event.Data["message"].(string)
	errorType, _ := event.Data["error_type"].(string)
	return c.toast.Toast("DeskPulse problem", fmt.Sprintf("%s (%s)", message, errorType))
}

func (c *Consumer) handlePostureUpdate(event events.Event) error {
	// Telemetry only; the dashboard reads state directly.
	c.logger.Debug("posture update",
		"posture", event.Data["posture"],
		"bad_duration", event.Data["bad_duration"],
	)
	return nil
}

// formatSeconds renders a duration in whole seconds as a compact string.
func formatSeconds(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}
