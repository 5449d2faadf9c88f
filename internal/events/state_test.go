package events

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState(t *testing.T, registry *CallbackRegistry) *MonitorState {
	t.Helper()
	return NewMonitorState(StateConfig{
		ThresholdSeconds: 600,
		CooldownSeconds:  300,
		LockTimeout:      100 * time.Millisecond,
		StatsTTL:         time.Minute,
	}, registry)
}

func TestInitialStateIsActive(t *testing.T) {
	s := testState(t, nil)

	status := s.Status()
	assert.True(t, status.MonitoringActive)
	assert.Equal(t, 600, status.ThresholdSeconds)
	assert.Equal(t, 300, status.CooldownSeconds)
}

func TestPauseResumeRoundTrip(t *testing.T) {
	registry := NewCallbackRegistry()
	var changes atomic.Int32
	var lastActive atomic.Bool
	require.NoError(t, registry.Register(TypeStatusChange, "watch", func(e Event) {
		changes.Add(1)
		lastActive.Store(e.Data["monitoring_active"].(bool))
	}))

	s := testState(t, registry)

	require.NoError(t, s.Pause())
	assert.False(t, s.Status().MonitoringActive)
	assert.Equal(t, int32(1), changes.Load(), "pause fires exactly one status_change")
	assert.False(t, lastActive.Load())

	require.NoError(t, s.Resume())
	assert.True(t, s.Status().MonitoringActive)
	assert.Equal(t, int32(2), changes.Load(), "resume fires exactly one status_change")
	assert.True(t, lastActive.Load())
}

func TestIdempotentTransitionsDoNotRenotify(t *testing.T) {
	registry := NewCallbackRegistry()
	var changes atomic.Int32
	require.NoError(t, registry.Register(TypeStatusChange, "watch", func(Event) {
		changes.Add(1)
	}))

	s := testState(t, registry)

	require.NoError(t, s.Resume()) // already active
	assert.Equal(t, int32(0), changes.Load())

	require.NoError(t, s.Pause())
	require.NoError(t, s.Pause()) // already paused
	assert.Equal(t, int32(1), changes.Load())
}

func TestStatusChangeCarriesPostChangeValues(t *testing.T) {
	registry := NewCallbackRegistry()
	type change struct {
		active    bool
		threshold int
	}
	seen := make(chan change, 4)
	require.NoError(t, registry.Register(TypeStatusChange, "watch", func(e Event) {
		seen <- change{
			active:    e.Data["monitoring_active"].(bool),
			threshold: e.Data["threshold_seconds"].(int),
		}
	}))

	s := testState(t, registry)

	require.NoError(t, s.SetThreshold(900))
	got := <-seen
	assert.True(t, got.active)
	assert.Equal(t, 900, got.threshold, "notification must carry the new threshold")

	require.NoError(t, s.Pause())
	got = <-seen
	assert.False(t, got.active)
	assert.Equal(t, 900, got.threshold)
}

func TestSetThresholdValidation(t *testing.T) {
	s := testState(t, nil)
	assert.Error(t, s.SetThreshold(0))
	assert.Error(t, s.SetThreshold(-5))
	assert.Equal(t, 600, s.Status().ThresholdSeconds)
}

func TestLockTimeoutDegradation(t *testing.T) {
	s := testState(t, nil)

	// Seed the last-good snapshot, then wedge the lock to simulate a stuck
	// writer.
	_ = s.Status()
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	start := time.Now()
	status := s.Status()
	elapsed := time.Since(start)

	assert.True(t, status.MonitoringActive, "reader must get the last known value")
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 1*time.Second, "read must not block past the lock timeout")
	assert.Equal(t, uint64(1), s.LockTimeouts())
}

func TestMutationFailsOnLockTimeout(t *testing.T) {
	s := testState(t, nil)

	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	err := s.Pause()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestCachedStatsMemoizes(t *testing.T) {
	s := testState(t, nil)

	var computations atomic.Int32
	compute := func() (map[string]any, error) {
		computations.Add(1)
		return map[string]any{"alerts_today": 3}, nil
	}

	first, err := s.CachedStats(compute)
	require.NoError(t, err)
	second, err := s.CachedStats(compute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), computations.Load(), "second call within TTL must hit the cache")

	s.InvalidateStats()
	_, err = s.CachedStats(compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), computations.Load())
}

func TestCachedStatsComputeError(t *testing.T) {
	s := testState(t, nil)

	_, err := s.CachedStats(func() (map[string]any, error) {
		return nil, fmt.Errorf("database gone")
	})
	require.Error(t, err)

	// Error results are not cached; a later successful compute lands.
	stats, err := s.CachedStats(func() (map[string]any, error) {
		return map[string]any{"ok": true}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, true, stats["ok"])
}

func TestCachedStatsServesStaleOnFailure(t *testing.T) {
	s := testState(t, nil)

	_, err := s.CachedStats(func() (map[string]any, error) {
		return map[string]any{"alerts_today": 3}, nil
	})
	require.NoError(t, err)

	// Expire the cache, then fail the recomputation: the previous aggregate
	// must be served instead of the error.
	s.InvalidateStats()
	stats, err := s.CachedStats(func() (map[string]any, error) {
		return nil, fmt.Errorf("database gone")
	})
	require.NoError(t, err)
	assert.Equal(t, 3, stats["alerts_today"])

	// A later successful compute replaces the stale value.
	s.InvalidateStats()
	stats, err = s.CachedStats(func() (map[string]any, error) {
		return map[string]any{"alerts_today": 4}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, stats["alerts_today"])
}

func TestStatusReturnsValueCopy(t *testing.T) {
	s := testState(t, nil)

	status := s.Status()
	status.ThresholdSeconds = 1

	assert.Equal(t, 600, s.Status().ThresholdSeconds, "mutating the returned copy must not affect state")
}
