package conf

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Capture.Interval = 100 * time.Millisecond
	s.Posture.ThresholdSeconds = 600
	s.Posture.CooldownSeconds = 300
	s.Queue.Capacity = 150
	s.Queue.CriticalTimeout = time.Second
	s.Queue.HighTimeout = 500 * time.Millisecond
	s.State.LockTimeout = 5 * time.Second
	s.Consumer.PollTimeout = 100 * time.Millisecond
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "deskpulse.db"
	return s
}

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	assert.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero capture interval", func(s *Settings) { s.Capture.Interval = 0 }},
		{"zero threshold", func(s *Settings) { s.Posture.ThresholdSeconds = 0 }},
		{"negative cooldown", func(s *Settings) { s.Posture.CooldownSeconds = -1 }},
		{"zero queue capacity", func(s *Settings) { s.Queue.Capacity = 0 }},
		{"zero critical timeout", func(s *Settings) { s.Queue.CriticalTimeout = 0 }},
		{"zero lock timeout", func(s *Settings) { s.State.LockTimeout = 0 }},
		{"zero poll timeout", func(s *Settings) { s.Consumer.PollTimeout = 0 }},
		{"sqlite enabled without path", func(s *Settings) { s.Output.SQLite.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			assert.Error(t, ValidateSettings(s))
		})
	}
}

func TestGetBasePathKeepsAbsolutePaths(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "deskpulse.log")
	assert.Equal(t, abs, GetBasePath(abs))
}

func TestGetBasePathResolvesRelativeUnderConfigDir(t *testing.T) {
	configPaths, err := GetDefaultConfigPaths()
	require.NoError(t, err)
	require.NotEmpty(t, configPaths)

	resolved := GetBasePath("deskpulse.log")
	assert.Equal(t, filepath.Join(configPaths[0], "deskpulse.log"), resolved)
	assert.True(t, filepath.IsAbs(resolved))
}
