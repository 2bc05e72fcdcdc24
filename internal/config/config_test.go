package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v for a missing file", err)
	}
	if settings != Default() {
		t.Errorf("Load() = %+v, want defaults %+v", settings, Default())
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `model: custom-model
base_url: https://proxy.example.com
daily_limit: 50
cooldown_seconds: 5
history_size: 3
timeout_seconds: 30
data_dir: /tmp/picfour-test
preview: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if settings.Model != "custom-model" {
		t.Errorf("Model = %q, want %q", settings.Model, "custom-model")
	}
	if settings.BaseURL != "https://proxy.example.com" {
		t.Errorf("BaseURL = %q", settings.BaseURL)
	}
	if settings.DailyLimit != 50 {
		t.Errorf("DailyLimit = %d, want 50", settings.DailyLimit)
	}
	if settings.CooldownSec != 5 {
		t.Errorf("CooldownSec = %d, want 5", settings.CooldownSec)
	}
	if settings.HistorySize != 3 {
		t.Errorf("HistorySize = %d, want 3", settings.HistorySize)
	}
	if settings.TimeoutSec != 30 {
		t.Errorf("TimeoutSec = %d, want 30", settings.TimeoutSec)
	}
	if settings.DataDir != "/tmp/picfour-test" {
		t.Errorf("DataDir = %q", settings.DataDir)
	}
	if settings.Preview {
		t.Error("Preview = true, want false from the file")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("daily_limit: 10\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	if settings.DailyLimit != 10 {
		t.Errorf("DailyLimit = %d, want 10", settings.DailyLimit)
	}
	if settings.Model != want.Model {
		t.Errorf("Model = %q, want default %q", settings.Model, want.Model)
	}
	if settings.CooldownSec != want.CooldownSec {
		t.Errorf("CooldownSec = %d, want default %d", settings.CooldownSec, want.CooldownSec)
	}
	if settings.HistorySize != want.HistorySize {
		t.Errorf("HistorySize = %d, want default %d", settings.HistorySize, want.HistorySize)
	}
	// Preview is absent from the file, so the default survives.
	if !settings.Preview {
		t.Error("Preview = false, want default true")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model: [unclosed"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() error = nil for invalid YAML")
	}
}

func TestDir_TestOverride(t *testing.T) {
	override := t.TempDir()
	t.Setenv("PICFOUR_CONFIG_DIR", override)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if dir != override {
		t.Errorf("Dir() = %q, want %q", dir, override)
	}

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error = %v", err)
	}
	if path != filepath.Join(override, "config.yaml") {
		t.Errorf("DefaultPath() = %q", path)
	}
}
