package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/errors"
)

const osWindows = "windows"

// GetDefaultConfigPaths returns the default configuration paths for the
// current operating system, ordered by lookup precedence.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	// Fetch the directory of the executable.
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-executable-path").
			Build()
	}
	exeDir := filepath.Dir(exePath)

	// Fetch the user's home directory.
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	// Define default paths based on the operating system.
	switch runtime.GOOS {
	case osWindows:
		// For Windows, use the executable directory and the AppData Roaming directory.
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "deskpulse"),
		}
	default:
		// For Linux (Raspberry Pi) and macOS, use the XDG config directory,
		// the home dotfile directory, and the executable directory.
		configPaths = []string{
			filepath.Join(homeDir, ".config", "deskpulse"),
			filepath.Join(homeDir, ".deskpulse"),
			exeDir,
		}
	}

	return configPaths, nil
}
