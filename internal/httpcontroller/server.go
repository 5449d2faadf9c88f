// Package httpcontroller serves the DeskPulse dashboard API: monitoring
// status and control, daily statistics, recent history, and prometheus
// metrics. JSON only.
package httpcontroller

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/conf"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/datastore"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/errors"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/events"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/observability"
)

// Controller manages the dashboard API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	State    *events.MonitorState
	Store    datastore.Interface
	Queue    *events.PriorityQueue

	metrics *observability.Metrics
	logger  *slog.Logger

	// loggerClose releases the dedicated API log file, when one is open.
	loggerClose func() error
}

// New creates the dashboard controller and registers its routes. Store and
// metrics may be nil; the affected endpoints then degrade gracefully.
func New(settings *conf.Settings, state *events.MonitorState, store datastore.Interface, queue *events.PriorityQueue, metrics *observability.Metrics) (*Controller, error) {
	if settings == nil {
		return nil, errors.Newf("settings are required").
			Component("httpcontroller").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if state == nil || queue == nil {
		return nil, errors.Newf("monitor state and event queue are required").
			Component("httpcontroller").
			Category(errors.CategoryValidation).
			Build()
	}

	logger := logging.ForService("httpcontroller")
	if logger == nil {
		logger = slog.Default().With("service", "httpcontroller")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	c := &Controller{
		Echo:     e,
		Settings: settings,
		State:    state,
		Store:    store,
		Queue:    queue,
		metrics:  metrics,
		logger:   logger,
	}
	// API operations get their own rotating log file next to the main log.
	if settings.Main.Log.Enabled && settings.Main.Log.Path != "" {
		level := slog.LevelInfo
		if settings.Debug {
			level = slog.LevelDebug
		}
		apiLogger, closeFunc, err := logging.NewFileLogger(apiLogPath(settings.Main.Log.Path), "httpcontroller", level)
		if err != nil {
			logger.Warn("failed to open api log file, logging to main output only", "error", err)
		} else {
			c.logger = apiLogger
			c.loggerClose = closeFunc
		}
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()
	return c, nil
}

// apiLogPath derives the API log filename from the main log path, e.g.
// deskpulse.log becomes deskpulse-api.log.
func apiLogPath(mainPath string) string {
	ext := filepath.Ext(mainPath)
	if ext == "" {
		ext = ".log"
	}
	return strings.TrimSuffix(mainPath, ext) + "-api" + ext
}

func (c *Controller) initRoutes() {
	c.Echo.GET("/healthz", c.HealthCheck)
	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}

	c.Group.GET("/status", c.GetStatus)
	c.Group.GET("/stats", c.GetStats)
	c.Group.GET("/events/recent", c.GetRecentEvents)
	c.Group.POST("/monitor/pause", c.PauseMonitoring)
	c.Group.POST("/monitor/resume", c.ResumeMonitoring)
}

// Start serves the dashboard in a background goroutine until Shutdown.
func (c *Controller) Start() {
	listen := c.Settings.Dashboard.Listen
	go func() {
		if err := c.Echo.Start(listen); err != nil && err != http.ErrServerClosed {
			c.logger.Error("dashboard server stopped", "listen", listen, "error", err)
		}
	}()
	c.logger.Info("dashboard listening", "listen", listen)
}

// Shutdown stops the server, waiting up to the given timeout for in-flight
// requests, and closes the API log file.
func (c *Controller) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := c.Echo.Shutdown(ctx)
	if c.loggerClose != nil {
		if closeErr := c.loggerClose(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// HandleError logs the failure and returns a uniform JSON error body.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	c.logger.Error("api error",
		"path", ctx.Path(),
		"message", message,
		"error", err,
	)
	body := map[string]any{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	return ctx.JSON(code, body)
}
