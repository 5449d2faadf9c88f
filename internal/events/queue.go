package events

import (
	"container/heap"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
)

// AdmissionResult reports the outcome of an enqueue attempt.
type AdmissionResult int

const (
	// AdmissionAccepted means the event was queued normally.
	AdmissionAccepted AdmissionResult = iota
	// AdmissionEvicted means the event was queued after evicting the oldest
	// low-priority entry (latest-wins).
	AdmissionEvicted
	// AdmissionTimeout means the queue stayed full past the priority's
	// admission timeout and the event was not queued.
	AdmissionTimeout
	// AdmissionRejected means a low-priority event found the queue full of
	// higher-priority work and was discarded without blocking.
	AdmissionRejected
)

// Accepted reports whether the event made it into the queue.
func (r AdmissionResult) Accepted() bool {
	return r == AdmissionAccepted || r == AdmissionEvicted
}

// String returns the admission result name for logging.
func (r AdmissionResult) String() string {
	switch r {
	case AdmissionAccepted:
		return "accepted"
	case AdmissionEvicted:
		return "evicted"
	case AdmissionTimeout:
		return "timeout"
	case AdmissionRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// queueItem wraps an event with the monotonic sequence number used for FIFO
// ordering within a priority level.
type queueItem struct {
	event Event
	seq   uint64
	index int
}

// eventHeap orders items by (priority, sequence): strict priority preemption,
// FIFO within the same level.
type eventHeap []*queueItem

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].event.Priority != h[j].event.Priority {
		return h[i].event.Priority < h[j].event.Priority
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// QueueConfig holds the fixed parameters of a PriorityQueue.
type QueueConfig struct {
	// Capacity is the fixed slot count, sized at process start for the
	// worst-case producer rate times worst-case consumer latency plus margin.
	Capacity int
	// CriticalTimeout bounds admission waits for critical events.
	CriticalTimeout time.Duration
	// HighTimeout bounds admission waits for high and normal events.
	HighTimeout time.Duration
}

// DefaultQueueConfig returns the default queue parameters.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Capacity:        150,
		CriticalTimeout: 1 * time.Second,
		HighTimeout:     500 * time.Millisecond,
	}
}

// PriorityQueue is the bounded, priority-ordered mailbox between the
// monitoring producer and the UI consumer. All blocking operations carry an
// explicit timeout; there is no unbounded wait anywhere in the queue.
type PriorityQueue struct {
	mu    sync.Mutex
	items eventHeap
	seq   uint64

	config QueueConfig

	// notEmpty and notFull are 1-slot wakeup channels; waiters always
	// re-check queue state under the lock after waking, so a spurious or
	// coalesced signal is harmless.
	notEmpty chan struct{}
	notFull  chan struct{}

	enqueued  atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	rejected  atomic.Uint64

	latencies *latencyRing
	logger    *slog.Logger
}

// NewPriorityQueue creates a queue with the given configuration. Capacity is
// fixed for the lifetime of the queue.
func NewPriorityQueue(config QueueConfig) *PriorityQueue {
	if config.Capacity < 1 {
		config.Capacity = DefaultQueueConfig().Capacity
	}
	if config.CriticalTimeout <= 0 {
		config.CriticalTimeout = DefaultQueueConfig().CriticalTimeout
	}
	if config.HighTimeout <= 0 {
		config.HighTimeout = DefaultQueueConfig().HighTimeout
	}

	logger := logging.ForService("event-queue")
	if logger == nil {
		logger = slog.Default().With("service", "event-queue")
	}

	q := &PriorityQueue{
		items:     make(eventHeap, 0, config.Capacity),
		config:    config,
		notEmpty:  make(chan struct{}, 1),
		notFull:   make(chan struct{}, 1),
		latencies: newLatencyRing(latencySampleSize),
		logger:    logger,
	}
	heap.Init(&q.items)
	return q
}

// admissionTimeout returns the bounded wait for a given priority.
func (q *PriorityQueue) admissionTimeout(p Priority) time.Duration {
	if p == PriorityCritical {
		return q.config.CriticalTimeout
	}
	return q.config.HighTimeout
}

// Enqueue admits an event according to its priority. Critical, high and
// normal events wait up to their admission timeout for a free slot and report
// AdmissionTimeout on failure; they are never silently dropped and never
// panic into the caller. Low events never block: on a full queue the oldest
// queued low event is evicted (latest-wins), or the new event is rejected if
// only higher-priority work is queued.
func (q *PriorityQueue) Enqueue(event Event) AdmissionResult {
	if event.EnqueuedAt.IsZero() {
		event.EnqueuedAt = time.Now()
	}

	if event.Priority == PriorityLow {
		return q.enqueueLow(event)
	}

	deadline := time.Now().Add(q.admissionTimeout(event.Priority))
	for {
		q.mu.Lock()
		if len(q.items) < q.config.Capacity {
			q.push(event)
			q.mu.Unlock()
			q.enqueued.Add(1)
			q.signal(q.notEmpty)
			return AdmissionAccepted
		}
		q.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			q.logAdmissionFailure(event)
			return AdmissionTimeout
		}

		timer := time.NewTimer(remaining)
		select {
		case <-q.notFull:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// TryEnqueue admits an event only if a slot is free right now, regardless of
// priority. Used for best-effort secondary events that must never wait.
func (q *PriorityQueue) TryEnqueue(event Event) AdmissionResult {
	if event.EnqueuedAt.IsZero() {
		event.EnqueuedAt = time.Now()
	}

	q.mu.Lock()
	if len(q.items) >= q.config.Capacity {
		q.mu.Unlock()
		return AdmissionRejected
	}
	q.push(event)
	q.mu.Unlock()
	q.enqueued.Add(1)
	q.signal(q.notEmpty)
	return AdmissionAccepted
}

// enqueueLow performs the non-blocking latest-wins admission for low events.
func (q *PriorityQueue) enqueueLow(event Event) AdmissionResult {
	q.mu.Lock()
	if len(q.items) < q.config.Capacity {
		q.push(event)
		q.mu.Unlock()
		q.enqueued.Add(1)
		q.signal(q.notEmpty)
		return AdmissionAccepted
	}

	if q.evictOldestLowLocked() {
		q.push(event)
		q.mu.Unlock()
		q.enqueued.Add(1)
		q.dropped.Add(1)
		q.signal(q.notEmpty)
		return AdmissionEvicted
	}

	// Queue is full of higher-priority work; discard the telemetry event.
	q.mu.Unlock()
	q.dropped.Add(1)
	q.rejected.Add(1)
	return AdmissionRejected
}

// push appends an event under the lock, assigning its FIFO sequence number.
func (q *PriorityQueue) push(event Event) {
	q.seq++
	heap.Push(&q.items, &queueItem{event: event, seq: q.seq})
}

// evictOldestLowLocked removes the earliest-enqueued low-priority item.
// Returns false if no low-priority item is queued. Caller holds the lock.
func (q *PriorityQueue) evictOldestLowLocked() bool {
	oldest := -1
	for i, item := range q.items {
		if item.event.Priority != PriorityLow {
			continue
		}
		if oldest == -1 || item.seq < q.items[oldest].seq {
			oldest = i
		}
	}
	if oldest == -1 {
		return false
	}
	heap.Remove(&q.items, oldest)
	return true
}

// Dequeue pops the most urgent queued event, waiting up to timeout for one to
// arrive. The second return value is false when the wait expired with the
// queue still empty.
func (q *PriorityQueue) Dequeue(timeout time.Duration) (Event, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if event, ok := q.TryDequeue(); ok {
			return event, true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Event{}, false
		}

		timer := time.NewTimer(remaining)
		select {
		case <-q.notEmpty:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// TryDequeue pops the most urgent queued event without blocking.
func (q *PriorityQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return Event{}, false
	}
	item := heap.Pop(&q.items).(*queueItem)
	stillQueued := len(q.items) > 0
	q.mu.Unlock()

	q.processed.Add(1)
	q.signal(q.notFull)
	if stillQueued {
		// Keep the wakeup pending for the consumer's next iteration.
		q.signal(q.notEmpty)
	}
	return item.event, true
}

// signal performs a non-blocking send on a 1-slot wakeup channel.
func (q *PriorityQueue) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// RecordLatency feeds one end-to-end delivery latency sample into the bounded
// metrics ring. Called by the consumer loop after dispatching an event.
func (q *PriorityQueue) RecordLatency(d time.Duration) {
	q.latencies.Add(d)
}

// Len returns the current queue depth.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Capacity returns the fixed slot count.
func (q *PriorityQueue) Capacity() int {
	return q.config.Capacity
}

// Metrics returns a read-only snapshot for observability.
func (q *PriorityQueue) Metrics() QueueMetrics {
	sorted := q.latencies.snapshot()
	return QueueMetrics{
		Enqueued:   q.enqueued.Load(),
		Processed:  q.processed.Load(),
		Dropped:    q.dropped.Load(),
		Rejected:   q.rejected.Load(),
		Depth:      q.Len(),
		LatencyP50: percentile(sorted, 50),
		LatencyP95: percentile(sorted, 95),
		LatencyMax: percentile(sorted, 100),
	}
}

// logAdmissionFailure records a timed-out admission. Critical failures log at
// error severity, high/normal at warning; the caller decides any secondary
// escalation.
func (q *PriorityQueue) logAdmissionFailure(event Event) {
	attrs := []any{
		"event_type", event.Type,
		"priority", event.Priority.String(),
		"capacity", q.config.Capacity,
		"timeout", q.admissionTimeout(event.Priority),
	}
	if event.Priority == PriorityCritical {
		q.logger.Error("event admission timed out, queue full", attrs...)
	} else {
		q.logger.Warn("event admission timed out, queue full", attrs...)
	}
}
