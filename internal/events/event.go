// Package events implements the in-process event delivery core for DeskPulse:
// a bounded priority queue bridging the monitoring (producer) goroutine and
// the UI consumer goroutine, a callback registry for named event-type
// subscriptions, and the lock-guarded shared monitoring state.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Priority represents the urgency level of an event. Lower ordinal values
// dequeue first.
type Priority int

const (
	// PriorityCritical indicates urgent attention required
	PriorityCritical Priority = 1
	// PriorityHigh indicates important but not urgent
	PriorityHigh Priority = 2
	// PriorityNormal indicates normal priority
	PriorityNormal Priority = 3
	// PriorityLow indicates low priority telemetry, droppable under backpressure
	PriorityLow Priority = 4
)

// String returns the human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Type identifies the kind of domain event.
type Type string

const (
	TypeAlert         Type = "alert"
	TypeError         Type = "error"
	TypeStatusChange  Type = "status_change"
	TypeCameraState   Type = "camera_state"
	TypeCorrection    Type = "correction"
	TypePostureUpdate Type = "posture_update"
)

// CameraState values carried by camera_state events.
const (
	CameraConnected    = "connected"
	CameraDegraded     = "degraded"
	CameraDisconnected = "disconnected"
)

// Event is the unit of work passed through the delivery core. Events are
// ephemeral: created by the producer at the moment a domain condition is
// detected, consumed exactly once by the consumer loop, never persisted.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	Priority   Priority       `json:"priority"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// newEvent creates an event with a fresh ID; the queue stamps EnqueuedAt at
// admission so the timestamp reflects the producer-side handoff moment.
func newEvent(eventType Type, priority Priority, data map[string]any) Event {
	return Event{
		ID:       uuid.New().String(),
		Type:     eventType,
		Priority: priority,
		Data:     data,
	}
}

// NewAlertEvent reports that bad posture has persisted past the threshold.
func NewAlertEvent(durationSeconds int, timestamp time.Time) Event {
	return newEvent(TypeAlert, PriorityCritical, map[string]any{
		"duration":  durationSeconds,
		"timestamp": timestamp.Format(time.RFC3339),
	})
}

// NewCorrectionEvent reports that posture recovered after an alert condition.
func NewCorrectionEvent(previousDurationSeconds int, timestamp time.Time) Event {
	return newEvent(TypeCorrection, PriorityHigh, map[string]any{
		"previous_duration": previousDurationSeconds,
		"timestamp":         timestamp.Format(time.RFC3339),
	})
}

// NewStatusChangeEvent reports a monitoring pause/resume or threshold change.
// Subscribers must treat these values as the authoritative post-change state
// rather than re-reading shared state, since delivery happens outside the
// state lock.
func NewStatusChangeEvent(monitoringActive bool, thresholdSeconds int) Event {
	return newEvent(TypeStatusChange, PriorityHigh, map[string]any{
		"monitoring_active": monitoringActive,
		"threshold_seconds": thresholdSeconds,
	})
}

// NewCameraStateEvent reports a capture-device health transition.
func NewCameraStateEvent(state string, timestamp time.Time) Event {
	return newEvent(TypeCameraState, PriorityHigh, map[string]any{
		"state":     state,
		"timestamp": timestamp.Format(time.RFC3339),
	})
}

// NewErrorEvent reports a recoverable fault for UI surfacing.
func NewErrorEvent(message, errorType string) Event {
	return newEvent(TypeError, PriorityNormal, map[string]any{
		"message":    message,
		"error_type": errorType,
	})
}

// NewPostureUpdateEvent carries periodic posture telemetry. Low priority:
// latest-wins under backpressure.
func NewPostureUpdateEvent(posture string, badDurationSeconds int, timestamp time.Time) Event {
	return newEvent(TypePostureUpdate, PriorityLow, map[string]any{
		"posture":      posture,
		"bad_duration": badDurationSeconds,
		"timestamp":    timestamp.Format(time.RFC3339),
	})
}
