package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadEnv reads a .env file and returns a map of key-value pairs.
// It ignores comments (starting with #) and empty lines.
func LoadEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove inline comments
		if idx := strings.Index(value, " #"); idx != -1 {
			value = strings.TrimSpace(value[:idx])
		}

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		env[key] = value
	}

	return env, scanner.Err()
}

// ApplyEnvOverrides updates the configuration based on environment variables.
func ApplyEnvOverrides(cfg *Config, env map[string]string) {
	// Server
	if val, ok := env["SERVER_PORT"]; ok {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}

	// Database
	if val, ok := env["DATABASE_PATH"]; ok {
		cfg.Database.Path = val
	}

	// Gemini
	if val, ok := env["GEMINI_API_KEY"]; ok {
		cfg.Gemini.APIKey = val
	}
	if val, ok := env["GEMINI_MODEL"]; ok {
		cfg.Gemini.Model = val
	}

	// Ollama
	if val, ok := env["OLLAMA_BASE_URL"]; ok {
		cfg.Ollama.BaseURL = val
	}
	if val, ok := env["OLLAMA_MODEL"]; ok {
		cfg.Ollama.Model = val
	}

	// Defaults
	if val, ok := env["DEFAULT_PROVIDER"]; ok {
		cfg.Defaults.Provider = val
	}
	if val, ok := env["DEFAULT_MAX_TURNS"]; ok {
		if turns, err := strconv.Atoi(val); err == nil {
			cfg.Defaults.MaxTurns = turns
		}
	}
	if val, ok := env["TURN_DELAY"]; ok {
		if duration, err := time.ParseDuration(val); err == nil {
			cfg.Defaults.TurnDelay = Duration(duration)
		}
	}
}
