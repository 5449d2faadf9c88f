package main

import (
	"log/slog"
	"os"

	"github.com/EmekaOkaforTech/deskpulse-sub008/cmd"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/conf"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		logging.Fatal("error loading configuration", "error", err)
	}

	level := logLevel(settings)
	logging.Init(level)

	var closeLogFile func() error
	if settings.Main.Log.Enabled {
		logPath := conf.GetBasePath(settings.Main.Log.Path)
		closeLogFile, err = logging.EnableFileOutput(logPath, level)
		if err != nil {
			logging.Fatal("failed to open log file", "path", logPath, "error", err)
		}
	}

	rootCmd := cmd.RootCommand(settings)
	err = rootCmd.Execute()

	if closeLogFile != nil {
		_ = closeLogFile()
	}
	if err != nil {
		os.Exit(1)
	}
}

func logLevel(settings *conf.Settings) slog.Level {
	if settings.Debug {
		return slog.LevelDebug
	}
	switch settings.Main.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
