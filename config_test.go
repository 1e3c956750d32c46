package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("unable to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
http_port: ":8080"
workers: 8
base: eur
tick_interval: 250ms
drain_timeout: 10s
rates:
  EUR: 1
  usd: 1.18
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unable to load config: %v", err)
	}

	if cfg.HTTPPort != ":8080" || cfg.Workers != 8 || cfg.Base != "EUR" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if cfg.TickInterval != 250*time.Millisecond || cfg.DrainTimeout != 10*time.Second {
		t.Errorf("Unexpected durations: %s %s", cfg.TickInterval, cfg.DrainTimeout)
	}
	if cfg.UpdaterTimeout != 2*time.Second {
		t.Errorf("Expected default updater timeout, got %s", cfg.UpdaterTimeout)
	}

	rates := cfg.SeedRates()
	if len(rates) != 2 || rates[0].Currency != "EUR" || rates[1].Currency != "USD" || rates[1].Rate != 1.18 {
		t.Errorf("Unexpected seed rates: %+v", rates)
	}
	if targets := cfg.Targets(); len(targets) != 1 || targets[0] != "USD" {
		t.Errorf("Unexpected targets: %v", targets)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.RateSource != sourceStatic || cfg.Base != "USD" || cfg.Workers != 4 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if len(cfg.SeedRates()) != 3 {
		t.Errorf("Expected 3 default rates, got %+v", cfg.SeedRates())
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad source", "rate_source: file\n"},
		{"forex without key", "rate_source: forex\n"},
		{"bad level", "log_level: loud\n"},
		{"bad yaml", "workers: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected error")
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
