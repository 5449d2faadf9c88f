package events

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
)

// Callback is a subscriber invoked synchronously on the notifying (producer)
// goroutine. Callbacks must be fast and non-blocking: their job is to enqueue
// work onto the PriorityQueue or append to a bounded metrics buffer, never to
// perform UI work directly.
type Callback func(Event)

// registration ties a callback to the name used for deduplication and removal.
type registration struct {
	name string
	fn   Callback
}

// CallbackRegistry decouples the monitoring producer from its consumers via
// named event-type subscriptions. Registration order determines invocation
// order. A callback that panics or misbehaves never prevents the remaining
// callbacks from running and never crashes the producer.
type CallbackRegistry struct {
	mu          sync.RWMutex
	subscribers map[Type][]registration

	callbackErrors atomic.Uint64
	notified       atomic.Uint64

	logger *slog.Logger
}

// NewCallbackRegistry creates an empty registry.
func NewCallbackRegistry() *CallbackRegistry {
	logger := logging.ForService("callback-registry")
	if logger == nil {
		logger = slog.Default().With("service", "callback-registry")
	}
	return &CallbackRegistry{
		subscribers: make(map[Type][]registration),
		logger:      logger,
	}
}

// Register appends a named callback to the event type's subscriber list.
// Names must be unique per event type so subscribers can be removed
// individually at teardown.
func (r *CallbackRegistry) Register(eventType Type, name string, fn Callback) error {
	if fn == nil {
		return fmt.Errorf("callback %q for %s is nil", name, eventType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.subscribers[eventType] {
		if existing.name == name {
			return fmt.Errorf("callback %q already registered for %s", name, eventType)
		}
	}

	r.subscribers[eventType] = append(r.subscribers[eventType], registration{name: name, fn: fn})

	r.logger.Debug("registered callback",
		"event_type", eventType,
		"callback", name,
		"subscriber_count", len(r.subscribers[eventType]),
	)
	return nil
}

// Unregister removes the named callback from the event type's subscriber
// list. Returns false if no such registration exists.
func (r *CallbackRegistry) Unregister(eventType Type, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.subscribers[eventType]
	for i, existing := range subs {
		if existing.name == name {
			r.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

// UnregisterType removes every callback for the given event type.
func (r *CallbackRegistry) UnregisterType(eventType Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscribers, eventType)
}

// UnregisterAll removes every subscription. Used during graceful shutdown so
// callbacks stop firing into a tearing-down UI.
func (r *CallbackRegistry) UnregisterAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = make(map[Type][]registration)
}

// SubscriberCount returns the number of callbacks registered for a type.
func (r *CallbackRegistry) SubscriberCount(eventType Type) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[eventType])
}

// Notify synchronously invokes each callback registered for the event's type,
// in registration order, on the calling goroutine. Each invocation is wrapped
// individually: a panic from one callback is recovered, logged with full
// context, and does not stop invocation of subsequent callbacks nor propagate
// into the caller's control flow.
func (r *CallbackRegistry) Notify(event Event) {
	r.mu.RLock()
	subs := make([]registration, len(r.subscribers[event.Type]))
	copy(subs, r.subscribers[event.Type])
	r.mu.RUnlock()

	r.notified.Add(1)

	for _, sub := range subs {
		r.invoke(sub, event)
	}
}

// invoke runs a single callback inside a recovery wrapper.
func (r *CallbackRegistry) invoke(sub registration, event Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.callbackErrors.Add(1)
			r.logger.Error("callback panicked",
				"callback", sub.name,
				"event_type", event.Type,
				"event_id", event.ID,
				"panic", rec,
			)
		}
	}()
	sub.fn(event)
}

// CallbackErrors returns the count of recovered callback panics.
func (r *CallbackRegistry) CallbackErrors() uint64 {
	return r.callbackErrors.Load()
}

// Notified returns the total number of Notify calls, whether or not any
// subscriber was registered for the event's type.
func (r *CallbackRegistry) Notified() uint64 {
	return r.notified.Load()
}
