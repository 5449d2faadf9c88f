package events

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/errors"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
)

// Status is a value copy of the monitoring control flags. Callers never
// receive a reference to internal mutable state.
type Status struct {
	MonitoringActive bool `json:"monitoring_active"`
	ThresholdSeconds int  `json:"threshold_seconds"`
	CooldownSeconds  int  `json:"cooldown_seconds"`
}

// StatsFunc computes the expensive statistics aggregate, typically a
// datastore query. MonitorState memoizes the result for the configured TTL.
type StatsFunc func() (map[string]any, error)

// StateConfig holds MonitorState construction parameters.
type StateConfig struct {
	ThresholdSeconds int
	CooldownSeconds  int
	// LockTimeout bounds every lock acquisition. On timeout readers degrade
	// to the last-known snapshot instead of blocking.
	LockTimeout time.Duration
	// StatsTTL bounds how long a computed statistics aggregate stays cached.
	StatsTTL time.Duration
}

// DefaultStateConfig returns the default state parameters.
func DefaultStateConfig() StateConfig {
	return StateConfig{
		ThresholdSeconds: 600,
		CooldownSeconds:  300,
		LockTimeout:      5 * time.Second,
		StatsTTL:         60 * time.Second,
	}
}

const statsCacheKey = "stats"

// MonitorState is the single source of truth for whether monitoring is
// active, the alert threshold, and a TTL cache of computed statistics. The
// state machine has two states, active and paused, toggling for the process
// lifetime via Pause and Resume; the initial state is active.
//
// Every method acquires the internal lock with a bounded timeout; a failed
// acquisition degrades safely rather than deadlocking the caller.
type MonitorState struct {
	// sem is a 1-slot semaphore standing in for a mutex, so acquisition can
	// carry a timeout.
	sem chan struct{}

	active    bool
	threshold int
	cooldown  int

	// lastGood holds the most recent consistent status snapshot for readers
	// that lose the lock race.
	lastGood atomic.Pointer[Status]

	// staleStats keeps the last successfully computed aggregate past its TTL
	// so a failed recomputation can serve stale data instead of an error.
	staleStats atomic.Pointer[map[string]any]

	lockTimeouts atomic.Uint64

	config     StateConfig
	registry   *CallbackRegistry
	statsCache *cache.Cache
	logger     *slog.Logger
}

// NewMonitorState creates the shared state in the active condition. The
// registry receives a status_change notification after every transition; it
// may be nil in tests.
func NewMonitorState(config StateConfig, registry *CallbackRegistry) *MonitorState {
	defaults := DefaultStateConfig()
	if config.ThresholdSeconds <= 0 {
		config.ThresholdSeconds = defaults.ThresholdSeconds
	}
	if config.CooldownSeconds < 0 {
		config.CooldownSeconds = defaults.CooldownSeconds
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = defaults.LockTimeout
	}
	if config.StatsTTL <= 0 {
		config.StatsTTL = defaults.StatsTTL
	}

	logger := logging.ForService("monitor-state")
	if logger == nil {
		logger = slog.Default().With("service", "monitor-state")
	}

	s := &MonitorState{
		sem:        make(chan struct{}, 1),
		active:     true,
		threshold:  config.ThresholdSeconds,
		cooldown:   config.CooldownSeconds,
		config:     config,
		registry:   registry,
		// Single-key memo cache; expiry is checked on read, so no janitor
		// goroutine is needed.
		statsCache: cache.New(config.StatsTTL, 0),
		logger:     logger,
	}
	s.lastGood.Store(&Status{
		MonitoringActive: true,
		ThresholdSeconds: config.ThresholdSeconds,
		CooldownSeconds:  config.CooldownSeconds,
	})
	return s
}

// acquire takes the lock, waiting at most the configured timeout.
func (s *MonitorState) acquire() bool {
	timer := time.NewTimer(s.config.LockTimeout)
	defer timer.Stop()
	select {
	case s.sem <- struct{}{}:
		return true
	case <-timer.C:
		s.lockTimeouts.Add(1)
		return false
	}
}

func (s *MonitorState) release() {
	<-s.sem
}

// snapshotLocked builds a value copy of the current status. Caller holds the
// lock.
func (s *MonitorState) snapshotLocked() Status {
	return Status{
		MonitoringActive: s.active,
		ThresholdSeconds: s.threshold,
		CooldownSeconds:  s.cooldown,
	}
}

// Status returns a value copy of the control flags. On lock timeout it logs a
// warning and returns the last-known-good snapshot instead of blocking.
func (s *MonitorState) Status() Status {
	if !s.acquire() {
		s.logger.Warn("status read lock timed out, returning last known value",
			"timeout", s.config.LockTimeout,
			"lock_timeouts", s.lockTimeouts.Load(),
		)
		return *s.lastGood.Load()
	}
	status := s.snapshotLocked()
	s.lastGood.Store(&status)
	s.release()
	return status
}

// Pause stops monitoring. The transition fires exactly one status_change
// notification, delivered after the lock is released so subscribers observe
// an up-to-date flag once notified. Pausing an already-paused state is a
// no-op and does not re-notify.
func (s *MonitorState) Pause() error {
	return s.setActive(false)
}

// Resume restarts monitoring. Symmetric with Pause.
func (s *MonitorState) Resume() error {
	return s.setActive(true)
}

func (s *MonitorState) setActive(active bool) error {
	if !s.acquire() {
		return errors.Newf("state lock acquisition timed out after %v", s.config.LockTimeout).
			Component("monitor-state").
			Category(errors.CategoryTimeout).
			Context("operation", "set_active").
			Build()
	}

	if s.active == active {
		s.release()
		return nil
	}

	s.active = active
	status := s.snapshotLocked()
	s.lastGood.Store(&status)
	s.release()

	s.logger.Info("monitoring state changed", "monitoring_active", active)

	// Notify fires outside the lock: subscribers must treat the event's
	// payload as the authoritative post-change values.
	if s.registry != nil {
		s.registry.Notify(NewStatusChangeEvent(status.MonitoringActive, status.ThresholdSeconds))
	}
	return nil
}

// SetThreshold updates the alert threshold and fires a status_change
// notification carrying the new value.
func (s *MonitorState) SetThreshold(seconds int) error {
	if seconds <= 0 {
		return errors.Newf("threshold must be positive, got %d", seconds).
			Component("monitor-state").
			Category(errors.CategoryValidation).
			Build()
	}

	if !s.acquire() {
		return errors.Newf("state lock acquisition timed out after %v", s.config.LockTimeout).
			Component("monitor-state").
			Category(errors.CategoryTimeout).
			Context("operation", "set_threshold").
			Build()
	}

	if s.threshold == seconds {
		s.release()
		return nil
	}

	s.threshold = seconds
	status := s.snapshotLocked()
	s.lastGood.Store(&status)
	s.release()

	if s.registry != nil {
		s.registry.Notify(NewStatusChangeEvent(status.MonitoringActive, status.ThresholdSeconds))
	}
	return nil
}

// CachedStats returns the memoized statistics aggregate while it is within
// TTL, recomputing and re-caching otherwise. This protects the expensive
// datastore query from running on every dashboard refresh. A failed
// recomputation falls back to the expired cached value when one exists.
func (s *MonitorState) CachedStats(compute StatsFunc) (map[string]any, error) {
	if cached, found := s.statsCache.Get(statsCacheKey); found {
		return cached.(map[string]any), nil
	}

	stats, err := compute()
	if err != nil {
		if stale := s.staleStats.Load(); stale != nil {
			s.logger.Warn("stats recomputation failed, serving stale aggregate", "error", err)
			return *stale, nil
		}
		return nil, errors.New(err).
			Component("monitor-state").
			Category(errors.CategoryState).
			Context("operation", "compute_stats").
			Build()
	}

	s.statsCache.Set(statsCacheKey, stats, cache.DefaultExpiration)
	s.staleStats.Store(&stats)
	return stats, nil
}

// InvalidateStats drops the cached aggregate, forcing the next CachedStats
// call to recompute.
func (s *MonitorState) InvalidateStats() {
	s.statsCache.Delete(statsCacheKey)
}

// LockTimeouts returns the number of bounded lock acquisitions that expired.
// Repeated growth suggests a stuck writer.
func (s *MonitorState) LockTimeouts() uint64 {
	return s.lockTimeouts.Load()
}
