package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets the default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main configuration
	viper.SetDefault("main.name", "DeskPulse")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "deskpulse.log")
	viper.SetDefault("main.log.level", "info")

	// Capture loop
	viper.SetDefault("capture.source", "0")
	viper.SetDefault("capture.interval", 100*time.Millisecond)
	viper.SetDefault("capture.warmuptime", 2*time.Second)

	// Posture classification thresholds
	viper.SetDefault("posture.thresholdseconds", 600)
	viper.SetDefault("posture.cooldownseconds", 300)
	viper.SetDefault("posture.updateinterval", 5*time.Second)

	// Priority event queue, sized for worst-case producer rate (10 Hz) times
	// worst-case consumer latency (10 s) times a 1.5 safety margin
	viper.SetDefault("queue.capacity", 150)
	viper.SetDefault("queue.criticaltimeout", 1*time.Second)
	viper.SetDefault("queue.hightimeout", 500*time.Millisecond)

	// Shared monitoring state
	viper.SetDefault("state.locktimeout", 5*time.Second)
	viper.SetDefault("state.statsttl", 60*time.Second)

	// UI consumer loop
	viper.SetDefault("consumer.polltimeout", 100*time.Millisecond)
	viper.SetDefault("consumer.draingrace", 2*time.Second)

	// Dashboard
	viper.SetDefault("dashboard.enabled", true)
	viper.SetDefault("dashboard.listen", "0.0.0.0:8080")

	// Output
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "deskpulse.db")
}
