package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     int
	LogLevel string
	APIKey   string
	// Persistence
	PersistBackend string
	DBPath         string
	RedisAddr      string
	RedisPrefix    string
	SeedFile       string
	// Advisory service
	AdvisorProvider string
	GeminiAPIKey    string
	GeminiBaseURL   string
	GeminiModel     string
	OllamaBaseURL   string
	OllamaModel     string
	AdvisorTimeout  time.Duration
	// Copilot pacing
	CopilotStartDelay   time.Duration
	CopilotStepInterval time.Duration
	// TUI and MCP adapter
	CompanionServerURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                envInt("PORT", 8742),
		LogLevel:            envStr("LOG_LEVEL", "info"),
		APIKey:              envStr("API_KEY", ""),
		PersistBackend:      strings.ToLower(envStr("PERSIST_BACKEND", "sqlite")),
		DBPath:              envStr("DB_PATH", "/data/companion.db"),
		RedisAddr:           envStr("REDIS_ADDR", "localhost:6379"),
		RedisPrefix:         envStr("REDIS_PREFIX", "companion:"),
		SeedFile:            envStr("SEED_FILE", ""),
		AdvisorProvider:     strings.ToLower(envStr("ADVISOR_PROVIDER", "gemini")),
		GeminiAPIKey:        envStr("GEMINI_API_KEY", ""),
		GeminiBaseURL:       envStr("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:         envStr("GEMINI_MODEL", "gemini-2.5-flash"),
		OllamaBaseURL:       envStr("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:         envStr("OLLAMA_MODEL", "qwen2.5:1.5b"),
		AdvisorTimeout:      envDuration("ADVISOR_TIMEOUT", 120*time.Second),
		CopilotStartDelay:   envDuration("COPILOT_START_DELAY", 500*time.Millisecond),
		CopilotStepInterval: envDuration("COPILOT_STEP_INTERVAL", 1500*time.Millisecond),
		CompanionServerURL:  envStr("COMPANION_SERVER_URL", "http://localhost:8742"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	switch c.PersistBackend {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH must not be empty")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR must not be empty")
		}
	default:
		return fmt.Errorf("PERSIST_BACKEND must be sqlite or redis, got %q", c.PersistBackend)
	}
	switch c.AdvisorProvider {
	case "gemini":
		if c.GeminiBaseURL == "" {
			return fmt.Errorf("GEMINI_BASE_URL must not be empty")
		}
	case "ollama":
		if c.OllamaBaseURL == "" {
			return fmt.Errorf("OLLAMA_BASE_URL must not be empty")
		}
	default:
		return fmt.Errorf("ADVISOR_PROVIDER must be gemini or ollama, got %q", c.AdvisorProvider)
	}
	if c.AdvisorTimeout <= 0 {
		return fmt.Errorf("ADVISOR_TIMEOUT must be positive, got %s", c.AdvisorTimeout)
	}
	if c.CopilotStartDelay < 0 || c.CopilotStepInterval <= 0 {
		return fmt.Errorf("copilot delays must be positive, got start=%s step=%s", c.CopilotStartDelay, c.CopilotStepInterval)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// envDuration accepts Go duration strings ("1.5s") or bare milliseconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
