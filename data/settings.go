// Package data provides settings management via settings.json.
// This file handles user-level settings separate from lulu.yaml configuration.
package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// UISettings holds presentation preferences.
type UISettings struct {
	Theme    string `json:"theme,omitempty"`
	ShowLogo bool   `json:"show_logo"`
}

// Settings represents the structure of settings.json.
type Settings struct {
	UI UISettings `json:"ui"`
}

// SettingsStore provides access to settings.json.
type SettingsStore struct {
	path     string
	settings Settings
	mu       sync.RWMutex
}

var (
	settingsStoreInstance *SettingsStore
	settingsStoreOnce     sync.Once
)

// GetSettingsStore returns the singleton instance of SettingsStore.
func GetSettingsStore() *SettingsStore {
	settingsStoreOnce.Do(func() {
		settingsStoreInstance = NewSettingsStore(GetSettingsFilePath())
		_ = settingsStoreInstance.Load() // Best effort load
	})
	return settingsStoreInstance
}

// NewSettingsStore creates a SettingsStore backed by path.
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{
		path: path,
		settings: Settings{
			UI: UISettings{ShowLogo: true},
		},
	}
}

// Load reads settings from disk.
func (s *SettingsStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, use defaults
			return nil
		}
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := json.Unmarshal(data, &s.settings); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	return nil
}

// Save writes settings to disk.
func (s *SettingsStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(s.settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

func (s *SettingsStore) GetTheme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.UI.Theme
}

func (s *SettingsStore) SetTheme(name string) error {
	s.mu.Lock()
	s.settings.UI.Theme = name
	s.mu.Unlock()
	return s.Save()
}

func (s *SettingsStore) GetShowLogo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.UI.ShowLogo
}

func (s *SettingsStore) SetShowLogo(show bool) error {
	s.mu.Lock()
	s.settings.UI.ShowLogo = show
	s.mu.Unlock()
	return s.Save()
}
