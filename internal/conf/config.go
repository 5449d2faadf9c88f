// Package conf handles the loading and validation of DeskPulse configuration.
package conf

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
)

// Settings is the root configuration structure.
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug logging

	Main struct {
		Name string    `yaml:"name"` // instance name, used in logs and the dashboard
		Log  LogConfig `yaml:"log"`
	} `yaml:"main"`

	Capture   CaptureSettings   `yaml:"capture"`
	Posture   PostureSettings   `yaml:"posture"`
	Queue     QueueSettings     `yaml:"queue"`
	State     StateSettings     `yaml:"state"`
	Consumer  ConsumerSettings  `yaml:"consumer"`
	Dashboard DashboardSettings `yaml:"dashboard"`
	Output    OutputSettings    `yaml:"output"`
}

// LogConfig defines the configuration for file logging
type LogConfig struct {
	Enabled bool   `yaml:"enabled"` // true to enable file logging
	Path    string `yaml:"path"`    // path to log file
	Level   string `yaml:"level"`   // debug, info, warn, error
}

// CaptureSettings defines the frame-capture loop behavior
type CaptureSettings struct {
	Source     string        `yaml:"source"`     // capture device identifier
	Interval   time.Duration `yaml:"interval"`   // time between captured frames
	WarmupTime time.Duration `yaml:"warmuptime"` // grace period before the first classification
}

// PostureSettings defines classification thresholds
type PostureSettings struct {
	ThresholdSeconds int           `yaml:"thresholdseconds"` // continuous bad posture before an alert
	CooldownSeconds  int           `yaml:"cooldownseconds"`  // minimum gap between alerts
	UpdateInterval   time.Duration `yaml:"updateinterval"`   // cadence for low-priority posture_update events
}

// QueueSettings defines the priority event queue behavior
type QueueSettings struct {
	Capacity        int           `yaml:"capacity"`        // fixed slot count
	CriticalTimeout time.Duration `yaml:"criticaltimeout"` // admission wait for critical events
	HighTimeout     time.Duration `yaml:"hightimeout"`     // admission wait for high/normal events
}

// StateSettings defines shared state lock / cache behavior
type StateSettings struct {
	LockTimeout time.Duration `yaml:"locktimeout"` // bounded lock acquisition
	StatsTTL    time.Duration `yaml:"statsttl"`    // cached statistics time-to-live
}

// ConsumerSettings defines the UI consumer loop behavior
type ConsumerSettings struct {
	PollTimeout time.Duration `yaml:"polltimeout"` // dequeue wait per iteration
	DrainGrace  time.Duration `yaml:"draingrace"`  // bounded drain window at shutdown
}

// DashboardSettings defines the HTTP dashboard
type DashboardSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // host:port
}

// OutputSettings defines persistence targets
type OutputSettings struct {
	SQLite struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"sqlite"`
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Setting returns the current settings instance, or nil before Load.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("DESKPULSE")
	viper.AutomaticEnv()

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, run on defaults
			logging.Debug("no config file found, using defaults")
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	logging.Info("configuration loaded", "file", viper.ConfigFileUsed())
	return nil
}

// ValidateSettings checks configured values for internal consistency.
func ValidateSettings(settings *Settings) error {
	if settings.Capture.Interval <= 0 {
		return fmt.Errorf("capture.interval must be positive, got %v", settings.Capture.Interval)
	}
	if settings.Posture.ThresholdSeconds <= 0 {
		return fmt.Errorf("posture.thresholdseconds must be positive, got %d", settings.Posture.ThresholdSeconds)
	}
	if settings.Posture.CooldownSeconds < 0 {
		return fmt.Errorf("posture.cooldownseconds must not be negative, got %d", settings.Posture.CooldownSeconds)
	}
	if settings.Queue.Capacity < 1 {
		return fmt.Errorf("queue.capacity must be at least 1, got %d", settings.Queue.Capacity)
	}
	if settings.Queue.CriticalTimeout <= 0 || settings.Queue.HighTimeout <= 0 {
		return fmt.Errorf("queue admission timeouts must be positive")
	}
	if settings.State.LockTimeout <= 0 {
		return fmt.Errorf("state.locktimeout must be positive, got %v", settings.State.LockTimeout)
	}
	if settings.Consumer.PollTimeout <= 0 {
		return fmt.Errorf("consumer.polltimeout must be positive, got %v", settings.Consumer.PollTimeout)
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return fmt.Errorf("output.sqlite.path is required when sqlite output is enabled")
	}
	return nil
}

// GetBasePath expands a relative directory against the first config path and
// ensures it is usable as a file location.
func GetBasePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	configPaths, err := GetDefaultConfigPaths()
	if err != nil || len(configPaths) == 0 {
		logging.Warn("could not resolve config directory, using path as-is", "path", path)
		return path
	}
	return filepath.Join(configPaths[0], path)
}
