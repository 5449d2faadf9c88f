package httpcontroller

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const defaultRecentLimit = 20

// HealthCheck reports liveness plus a shallow queue snapshot.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":      "healthy",
		"queue_depth": c.Queue.Len(),
	})
}

// GetStatus returns the monitoring control state and queue metrics.
func (c *Controller) GetStatus(ctx echo.Context) error {
	status := c.State.Status()
	return ctx.JSON(http.StatusOK, map[string]any{
		"monitoring_active": status.MonitoringActive,
		"threshold_seconds": status.ThresholdSeconds,
		"cooldown_seconds":  status.CooldownSeconds,
		"queue":             c.Queue.Metrics(),
	})
}

// GetStats returns today's posture aggregate, memoized in the state cache so
// dashboard polling does not hammer the database.
func (c *Controller) GetStats(ctx echo.Context) error {
	if c.Store == nil {
		return ctx.JSON(http.StatusOK, map[string]any{})
	}
	stats, err := c.State.CachedStats(func() (map[string]any, error) {
		daily, err := c.Store.DailyStats(time.Now())
		if err != nil {
			return nil, err
		}
		return daily.StatsMap(), nil
	})
	if err != nil {
		return c.HandleError(ctx, err, "failed to compute daily statistics", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, stats)
}

// GetRecentEvents returns the newest posture segments and alerts. The limit
// query parameter caps both lists.
func (c *Controller) GetRecentEvents(ctx echo.Context) error {
	if c.Store == nil {
		return ctx.JSON(http.StatusOK, map[string]any{
			"posture_events": []any{},
			"alerts":         []any{},
		})
	}

	limit := defaultRecentLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.HandleError(ctx, fmt.Errorf("limit must be a positive integer, got %q", raw),
				"invalid limit parameter", http.StatusBadRequest)
		}
		limit = parsed
	}

	postureEvents, err := c.Store.RecentPostureEvents(limit)
	if err != nil {
		return c.HandleError(ctx, err, "failed to query posture events", http.StatusInternalServerError)
	}
	alerts, err := c.Store.RecentAlerts(limit)
	if err != nil {
		return c.HandleError(ctx, err, "failed to query alerts", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"posture_events": postureEvents,
		"alerts":         alerts,
	})
}

// PauseMonitoring suspends posture tracking. Idempotent.
func (c *Controller) PauseMonitoring(ctx echo.Context) error {
	if err := c.State.Pause(); err != nil {
		return c.HandleError(ctx, err, "failed to pause monitoring", http.StatusServiceUnavailable)
	}
	return c.respondStatus(ctx)
}

// ResumeMonitoring restarts posture tracking. Idempotent.
func (c *Controller) ResumeMonitoring(ctx echo.Context) error {
	if err := c.State.Resume(); err != nil {
		return c.HandleError(ctx, err, "failed to resume monitoring", http.StatusServiceUnavailable)
	}
	return c.respondStatus(ctx)
}

func (c *Controller) respondStatus(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.State.Status())
}
