// Package data provides the foundational data layer for all file I/O operations.
// It encapsulates configuration, settings and chat transcripts behind strongly-typed structs.
//
// Architecture: cmd → service → data
// The data layer is the only layer that should directly access files or viper.
package data

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const AppName = "lulu"

// GetConfigDir returns the application configuration directory.
// Example: ~/.config/lulu on Linux, ~/Library/Application Support/lulu on macOS
func GetConfigDir() string {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory if UserConfigDir fails
		userConfigDir, _ = homedir.Dir()
		userConfigDir = filepath.Join(userConfigDir, ".config")
	}
	return filepath.Join(userConfigDir, AppName)
}

// GetConfigFilePath returns the path to the configuration file.
func GetConfigFilePath() string {
	return filepath.Join(GetConfigDir(), AppName+".yaml")
}

// GetSettingsFilePath returns the path to settings.json.
func GetSettingsFilePath() string {
	return filepath.Join(GetConfigDir(), "settings.json")
}

// GetTranscriptsDirPath returns the directory saved chat transcripts live in.
func GetTranscriptsDirPath() string {
	return filepath.Join(GetConfigDir(), "transcripts")
}

// GetLogFilePath returns the log file used while the dashboard owns the terminal.
func GetLogFilePath() string {
	return filepath.Join(GetConfigDir(), AppName+".log")
}

// GetSnapshotFilePath returns the default location of the latest feed frame.
func GetSnapshotFilePath() string {
	return filepath.Join(GetConfigDir(), "snapshot.jpg")
}

// ExpandPath resolves a leading ~ in user-supplied paths.
func ExpandPath(path string) string {
	if expanded, err := homedir.Expand(path); err == nil {
		return expanded
	}
	return path
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(GetConfigDir(), 0750)
}
