// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anushtup-nandy/roundtable/internal/core"
	"github.com/anushtup-nandy/roundtable/internal/provider"
	"github.com/anushtup-nandy/roundtable/internal/storage"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// OllamaConfig holds Ollama settings.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// DefaultsConfig holds default debate settings.
type DefaultsConfig struct {
	Provider   string   `yaml:"provider"`
	MaxTurns   int      `yaml:"max_turns"`
	WindowSize int      `yaml:"window_size"`
	TurnDelay  Duration `yaml:"turn_delay"`
}

// Duration wraps time.Duration so yaml values like "500ms" round-trip.
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8090,
		},
		Database: DatabaseConfig{
			Path: storage.DefaultDBPath(),
		},
		Gemini: GeminiConfig{
			Model: provider.DefaultGeminiModel,
		},
		Ollama: OllamaConfig{
			BaseURL: provider.DefaultOllamaBaseURL,
			Model:   provider.DefaultOllamaModel,
		},
		Defaults: DefaultsConfig{
			Provider:   "gemini",
			MaxTurns:   core.DefaultMaxTurns,
			WindowSize: 10,
			TurnDelay:  Duration(500 * time.Millisecond),
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Apply .env overrides if file exists
	if env, err := LoadEnv(".env"); err == nil {
		ApplyEnvOverrides(cfg, env)
	}

	// Process environment wins for the API key if nothing else set it
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = storage.DefaultDBPath()
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// FactoryConfig builds the provider factory configuration.
func (c *Config) FactoryConfig() provider.FactoryConfig {
	return provider.FactoryConfig{
		GeminiAPIKey:  c.Gemini.APIKey,
		OllamaBaseURL: c.Ollama.BaseURL,
	}
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "roundtable.yaml"
	}
	return filepath.Join(home, ".roundtable", "config.yaml")
}

// GenerateExample generates an example configuration file.
func GenerateExample() string {
	example := `# roundtable configuration file
# Place this file at ~/.roundtable/config.yaml

server:
  port: 8090

database:
  path: ""                  # Empty = ~/.roundtable/roundtable.db

gemini:
  api_key: ""               # Or set GEMINI_API_KEY in the environment
  model: gemini-2.5-flash

ollama:
  base_url: http://localhost:11434
  model: llama2

defaults:
  provider: gemini          # Default provider for new agents
  max_turns: 10             # Rounds per debate (1-50)
  window_size: 10           # Turns of context shown to each agent
  turn_delay: 500ms         # Pause between agent responses
`
	return example
}
