package notification

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/events"
)

// mockToaster records toast calls and can be made to fail or panic.
type mockToaster struct {
	mu        sync.Mutex
	titles    []string
	messages  []string
	err       error
	panicOnce atomic.Bool
}

func (m *mockToaster) Toast(title, message string) error {
	if m.panicOnce.CompareAndSwap(true, false) {
		panic("toast backend exploded")
	}
	m.mu.Lock()
	m.titles = append(m.titles, title)
	m.messages = append(m.messages, message)
	m.mu.Unlock()
	return m.err
}

func (m *mockToaster) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.titles)
}

// mockTray records tray updates.
type mockTray struct {
	mu           sync.Mutex
	monitoring   []bool
	cameraStates []string
}

func (m *mockTray) UpdateMonitoring(active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.monitoring = append(m.monitoring, active)
	return nil
}

func (m *mockTray) UpdateCamera(state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cameraStates = append(m.cameraStates, state)
	return nil
}

func testConsumer(t *testing.T, queue *events.PriorityQueue, toast Toaster, tray TrayUpdater) *Consumer {
	t.Helper()
	c, err := NewConsumer(queue, toast, tray, ConsumerConfig{
		PollTimeout: 20 * time.Millisecond,
		DrainGrace:  time.Second,
	}, nil, nil)
	require.NoError(t, err)
	return c
}

func newTestQueue() *events.PriorityQueue {
	return events.NewPriorityQueue(events.QueueConfig{
		Capacity:        50,
		CriticalTimeout: 200 * time.Millisecond,
		HighTimeout:     100 * time.Millisecond,
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached within timeout")
}

func TestNewConsumerRequiresQueue(t *testing.T) {
	_, err := NewConsumer(nil, nil, nil, ConsumerConfig{}, nil, nil)
	assert.Error(t, err)
}

func TestConsumerDeliversAlertToast(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue := newTestQueue()
	toast := &mockToaster{}
	c := testConsumer(t, queue, toast, &mockTray{})

	c.Start()
	queue.Enqueue(events.NewAlertEvent(600, time.Now()))

	waitFor(t, time.Second, func() bool { return toast.count() == 1 })
	assert.Equal(t, "Posture alert", toast.titles[0])
	assert.Contains(t, toast.messages[0], "10m0s")

	require.NoError(t, c.Shutdown(time.Second))
}

func TestStatusChangeUpdatesTray(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue := newTestQueue()
	tray := &mockTray{}
	c := testConsumer(t, queue, &mockToaster{}, tray)

	c.Start()
	queue.Enqueue(events.NewStatusChangeEvent(false, 600))

	waitFor(t, time.Second, func() bool {
		tray.mu.Lock()
		defer tray.mu.Unlock()
		return len(tray.monitoring) == 1
	})
	assert.False(t, tray.monitoring[0])

	require.NoError(t, c.Shutdown(time.Second))
}

func TestCameraDisconnectNotifiesBothSinks(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue := newTestQueue()
	toast := &mockToaster{}
	tray := &mockTray{}
	c := testConsumer(t, queue, toast, tray)

	c.Start()
	queue.Enqueue(events.NewCameraStateEvent(events.CameraDisconnected, time.Now()))

	waitFor(t, time.Second, func() bool { return toast.count() == 1 })
	tray.mu.Lock()
	assert.Equal(t, []string{events.CameraDisconnected}, tray.cameraStates)
	tray.mu.Unlock()
	assert.Equal(t, "Camera disconnected", toast.titles[0])

	require.NoError(t, c.Shutdown(time.Second))
}

func TestHandlerPanicDoesNotKillLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue := newTestQueue()
	toast := &mockToaster{}
	toast.panicOnce.Store(true)
	c := testConsumer(t, queue, toast, &mockTray{})

	c.Start()
	queue.Enqueue(events.NewAlertEvent(100, time.Now()))
	queue.Enqueue(events.NewAlertEvent(200, time.Now()))

	// First alert panics the toast backend; the second must still arrive.
	waitFor(t, time.Second, func() bool { return toast.count() == 1 })
	assert.Equal(t, uint64(1), c.Failed())

	require.NoError(t, c.Shutdown(time.Second))
}

func TestHandlerErrorCountedAndLoopContinues(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue := newTestQueue()
	toast := &mockToaster{err: fmt.Errorf("toast backend offline")}
	c := testConsumer(t, queue, toast, &mockTray{})

	c.Start()
	queue.Enqueue(events.NewAlertEvent(1, time.Now()))
	queue.Enqueue(events.NewAlertEvent(2, time.Now()))

	waitFor(t, time.Second, func() bool { return c.Processed() == 2 })
	assert.Equal(t, uint64(2), c.Failed())

	require.NoError(t, c.Shutdown(time.Second))
}

func TestGracefulShutdownDrainsQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue := newTestQueue()
	toast := &mockToaster{}
	tray := &mockTray{}
	c := testConsumer(t, queue, toast, tray)

	// Ten mixed-priority events queued before the loop gets going.
	now := time.Now()
	queue.Enqueue(events.NewAlertEvent(600, now))
	queue.Enqueue(events.NewCorrectionEvent(30, now))
	queue.Enqueue(events.NewStatusChangeEvent(true, 600))
	queue.Enqueue(events.NewCameraStateEvent(events.CameraConnected, now))
	queue.Enqueue(events.NewErrorEvent("x", "test"))
	for i := 0; i < 5; i++ {
		queue.Enqueue(events.NewPostureUpdateEvent("good", i, now))
	}

	c.Start()
	require.NoError(t, c.Shutdown(2*time.Second))

	assert.Equal(t, uint64(10), c.Processed(), "shutdown must drain all queued events")
	assert.Equal(t, 0, queue.Len())
}

func TestShutdownIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue := newTestQueue()
	c := testConsumer(t, queue, &mockToaster{}, &mockTray{})

	c.Start()
	require.NoError(t, c.Shutdown(time.Second))
	require.NoError(t, c.Shutdown(time.Second), "second shutdown is a no-op")
}

func TestLatencyRecordedOnDelivery(t *testing.T) {
	defer goleak.VerifyNone(t)

	queue := newTestQueue()
	c := testConsumer(t, queue, &mockToaster{}, &mockTray{})

	c.Start()
	queue.Enqueue(events.NewAlertEvent(1, time.Now()))

	waitFor(t, time.Second, func() bool { return c.Processed() == 1 })
	require.NoError(t, c.Shutdown(time.Second))

	m := queue.Metrics()
	assert.Greater(t, m.LatencyMax, time.Duration(0), "delivery must record a latency sample")
}
