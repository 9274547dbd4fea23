package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mstiles/copilot/internal/copilot/config"
)

// writeConfig drops a YAML config file into a temp dir.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "copilot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Oracle.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("BaseURL = %q", cfg.Oracle.BaseURL)
	}
	if cfg.Oracle.Model == "" {
		t.Error("default model is empty")
	}
	if cfg.Oracle.Timeout.Std() != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Oracle.Timeout)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
oracle:
  model: gpt-4o
  timeout: 10s
database:
  path: /tmp/copilot.db
gate:
  ttl: 2m
log:
  level: debug
  format: json
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Oracle.Model != "gpt-4o" {
		t.Errorf("Model = %q", cfg.Oracle.Model)
	}
	if cfg.Oracle.Timeout.Std() != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.Oracle.Timeout)
	}
	if cfg.Database.Path != "/tmp/copilot.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Gate.TTL.Std() != 2*time.Minute {
		t.Errorf("Gate.TTL = %v", cfg.Gate.TTL)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

// TestEnvironmentOverridesFile verifies the environment layer wins over the
// file layer and that the API key is picked up from the environment.
func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
oracle:
  model: gpt-4o
log:
  level: debug
`)
	t.Setenv(config.EnvOracleModel, "gpt-4o-mini")
	t.Setenv(config.EnvLogLevel, "warn")
	t.Setenv(config.EnvAPIKey, "sk-test")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Oracle.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.Oracle.Model)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q", cfg.Log.Level)
	}
	if cfg.Oracle.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.Oracle.APIKey)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad log level":  "log:\n  level: loud\n",
		"bad log format": "log:\n  format: xml\n",
		"empty model":    "oracle:\n  model: \"\"\n",
		"zero timeout":   "oracle:\n  timeout: 0s\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := config.Load(writeConfig(t, content)); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
