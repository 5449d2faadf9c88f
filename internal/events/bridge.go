package events

import (
	"log/slog"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/observability/metrics"
)

// queueSubscriberName is the registration name used by AttachQueue, so the
// bridge can be removed wholesale at shutdown.
const queueSubscriberName = "event-queue"

// AllTypes lists every domain event type routed through the delivery core.
func AllTypes() []Type {
	return []Type{
		TypeAlert,
		TypeError,
		TypeStatusChange,
		TypeCameraState,
		TypeCorrection,
		TypePostureUpdate,
	}
}

// AttachQueue registers a queue-admission callback for every domain event
// type, completing the producer side of the pipeline: domain condition →
// Notify → admission → consumer dequeue. The callback obeys the message-
// passing discipline expected of subscribers: it only enqueues, it never
// blocks past the queue's per-priority admission timeout, and an admission
// failure is reported back into the pipeline as a best-effort secondary error
// event rather than raised into the producer loop.
func AttachQueue(registry *CallbackRegistry, queue *PriorityQueue, qm *metrics.QueueMetrics) error {
	logger := logging.ForService("event-bridge")
	if logger == nil {
		logger = slog.Default().With("service", "event-bridge")
	}

	for _, eventType := range AllTypes() {
		callback := func(event Event) {
			result := queue.Enqueue(event)
			recordAdmission(qm, event, result, queue)
			if result == AdmissionTimeout {
				escalateAdmissionFailure(queue, event, logger, qm)
			}
		}
		if err := registry.Register(eventType, queueSubscriberName, callback); err != nil {
			return err
		}
	}
	return nil
}

// DetachQueue removes the admission callbacks installed by AttachQueue.
func DetachQueue(registry *CallbackRegistry) {
	for _, eventType := range AllTypes() {
		registry.Unregister(eventType, queueSubscriberName)
	}
}

// recordAdmission mirrors admission outcomes into prometheus. qm may be nil
// in tests.
func recordAdmission(qm *metrics.QueueMetrics, event Event, result AdmissionResult, queue *PriorityQueue) {
	if qm == nil {
		return
	}
	switch result {
	case AdmissionAccepted, AdmissionEvicted:
		qm.RecordEnqueued(event.Priority.String())
		if result == AdmissionEvicted {
			qm.RecordDropped()
		}
	case AdmissionTimeout:
		qm.RecordAdmissionFailure(event.Priority.String())
	case AdmissionRejected:
		qm.RecordDropped()
	}
	qm.SetQueueDepth(queue.Len())
}

// escalateAdmissionFailure raises a secondary error event so the UI can
// surface that an alert failed to deliver. The attempt is strictly
// non-blocking and never recurses: admission failures of error events
// themselves are only logged.
func escalateAdmissionFailure(queue *PriorityQueue, failed Event, logger *slog.Logger, qm *metrics.QueueMetrics) {
	if failed.Type == TypeError {
		return
	}

	secondary := NewErrorEvent(
		"event delivery failed: queue full past admission timeout",
		"admission_timeout",
	)
	secondary.Data["failed_event_type"] = string(failed.Type)
	secondary.Data["failed_event_priority"] = failed.Priority.String()

	result := queue.TryEnqueue(secondary)
	if !result.Accepted() {
		logger.Error("secondary error event also rejected, queue saturated",
			"failed_event_type", failed.Type,
			"failed_event_id", failed.ID,
		)
		return
	}
	if qm != nil {
		qm.RecordEnqueued(secondary.Priority.String())
	}
}
