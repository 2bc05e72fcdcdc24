// Package config loads the optional YAML settings file and owns the
// platform config directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Settings are tool-wide defaults, overridable by command-line flags.
type Settings struct {
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	DailyLimit  int    `yaml:"daily_limit"`
	CooldownSec int    `yaml:"cooldown_seconds"`
	HistorySize int    `yaml:"history_size"`
	TimeoutSec  int    `yaml:"timeout_seconds"`
	DataDir     string `yaml:"data_dir"`
	Preview     bool   `yaml:"preview"`
}

func Default() Settings {
	return Settings{
		Model:       "gemini-2.5-flash-image",
		DailyLimit:  300,
		CooldownSec: 10,
		HistorySize: 10,
		TimeoutSec:  120,
		Preview:     true,
	}
}

// Load reads settings from path. A missing file yields the defaults; zero
// fields in the file fall back to their defaults.
func Load(path string) (Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	var loaded struct {
		Model       string `yaml:"model"`
		BaseURL     string `yaml:"base_url"`
		DailyLimit  int    `yaml:"daily_limit"`
		CooldownSec int    `yaml:"cooldown_seconds"`
		HistorySize int    `yaml:"history_size"`
		TimeoutSec  int    `yaml:"timeout_seconds"`
		DataDir     string `yaml:"data_dir"`
		Preview     *bool  `yaml:"preview"`
	}
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return settings, fmt.Errorf("failed to parse settings: %w", err)
	}

	if loaded.Model != "" {
		settings.Model = loaded.Model
	}
	if loaded.BaseURL != "" {
		settings.BaseURL = loaded.BaseURL
	}
	if loaded.DailyLimit > 0 {
		settings.DailyLimit = loaded.DailyLimit
	}
	if loaded.CooldownSec > 0 {
		settings.CooldownSec = loaded.CooldownSec
	}
	if loaded.HistorySize > 0 {
		settings.HistorySize = loaded.HistorySize
	}
	if loaded.TimeoutSec > 0 {
		settings.TimeoutSec = loaded.TimeoutSec
	}
	if loaded.DataDir != "" {
		settings.DataDir = loaded.DataDir
	}
	if loaded.Preview != nil {
		settings.Preview = *loaded.Preview
	}

	return settings, nil
}

// DefaultPath returns the settings file location inside the config dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Dir returns the platform-specific config directory.
func Dir() (string, error) {
	// Allow override for testing
	if testDir := os.Getenv("PICFOUR_CONFIG_DIR"); testDir != "" {
		return testDir, nil
	}

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "picfour"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "picfour"), nil
	default:
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "picfour"), nil
	}
}
