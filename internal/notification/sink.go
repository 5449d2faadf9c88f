// Package notification implements the UI-facing consumer side of the
// DeskPulse event pipeline: a single goroutine drains the priority event
// queue and fans each event out to the sink appropriate for its type.
package notification

import (
	"log/slog"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
)

// Toaster shows a transient user-facing notification. Implementations are
// supplied by the platform layer (winotify on Windows, the web dashboard on
// the Pi build) and must return promptly.
type Toaster interface {
	Toast(title, message string) error
}

// TrayUpdater reflects monitoring and camera state in the tray icon / menu.
// Implementations must return promptly.
type TrayUpdater interface {
	UpdateMonitoring(active bool) error
	UpdateCamera(state string) error
}

// getLoggerSafe returns a logger for the service, falling back to default if
// logging is not initialized.
func getLoggerSafe(service string) *slog.Logger {
	logger := logging.ForService(service)
	if logger == nil {
		logger = slog.Default().With("service", service)
	}
	return logger
}

// LogToaster writes toast notifications to the structured log. It is the
// default sink on headless installs and under tests.
type LogToaster struct {
	logger *slog.Logger
}

// NewLogToaster creates a log-backed Toaster.
func NewLogToaster() *LogToaster {
	return &LogToaster{logger: getLoggerSafe("toast")}
}

// Toast implements Toaster.
func (l *LogToaster) Toast(title, message string) error {
	l.logger.Info("toast", "title", title, "message", message)
	return nil
}

// LogTray writes tray updates to the structured log.
type LogTray struct {
	logger *slog.Logger
}

// NewLogTray creates a log-backed TrayUpdater.
func NewLogTray() *LogTray {
	return &LogTray{logger: getLoggerSafe("tray")}
}

// UpdateMonitoring implements TrayUpdater.
func (l *LogTray) UpdateMonitoring(active bool) error {
	l.logger.Info("tray monitoring state", "monitoring_active", active)
	return nil
}

// UpdateCamera implements TrayUpdater.
func (l *LogTray) UpdateCamera(state string) error {
	l.logger.Info("tray camera state", "state", state)
	return nil
}
