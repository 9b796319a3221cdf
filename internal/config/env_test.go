package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `
# Comment
KEY1=value1
KEY2="value 2"
KEY3='value 3'
KEY4=value 4 # inline comment
EMPTY=
`
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create env file: %v", err)
	}

	env, err := LoadEnv(envFile)
	if err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}

	tests := []struct {
		key      string
		expected string
	}{
		{"KEY1", "value1"},
		{"KEY2", "value 2"},
		{"KEY3", "value 3"},
		{"KEY4", "value 4"},
		{"EMPTY", ""},
	}

	for _, tt := range tests {
		if got, ok := env[tt.key]; !ok || got != tt.expected {
			t.Errorf("expected %s=%q, got %q (exists=%v)", tt.key, tt.expected, got, ok)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	env := map[string]string{
		"SERVER_PORT":       "9090",
		"DATABASE_PATH":     "/tmp/debates.db",
		"GEMINI_API_KEY":    "test-key",
		"GEMINI_MODEL":      "gemini-2.5-pro",
		"OLLAMA_BASE_URL":   "http://ollama:11434",
		"DEFAULT_PROVIDER":  "ollama",
		"DEFAULT_MAX_TURNS": "5",
		"TURN_DELAY":        "250ms",
	}

	ApplyEnvOverrides(cfg, env)

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/debates.db" {
		t.Errorf("expected database path override, got %s", cfg.Database.Path)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Errorf("expected gemini api key override, got %s", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Model != "gemini-2.5-pro" {
		t.Errorf("expected gemini model override, got %s", cfg.Gemini.Model)
	}
	if cfg.Ollama.BaseURL != "http://ollama:11434" {
		t.Errorf("expected ollama base url override, got %s", cfg.Ollama.BaseURL)
	}
	if cfg.Defaults.Provider != "ollama" {
		t.Errorf("expected provider ollama, got %s", cfg.Defaults.Provider)
	}
	if cfg.Defaults.MaxTurns != 5 {
		t.Errorf("expected max turns 5, got %d", cfg.Defaults.MaxTurns)
	}
	if cfg.Defaults.TurnDelay != Duration(250*time.Millisecond) {
		t.Errorf("expected turn delay 250ms, got %v", cfg.Defaults.TurnDelay)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Server.Port != Default().Server.Port {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	content := `
server:
  port: 7070
defaults:
  max_turns: 3
  turn_delay: 100ms
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Defaults.MaxTurns != 3 {
		t.Errorf("expected max turns 3, got %d", cfg.Defaults.MaxTurns)
	}
	if cfg.Defaults.TurnDelay != Duration(100*time.Millisecond) {
		t.Errorf("expected turn delay 100ms, got %v", cfg.Defaults.TurnDelay)
	}
	// Unset keys keep their defaults
	if cfg.Ollama.BaseURL == "" {
		t.Error("expected default ollama base url")
	}
}
