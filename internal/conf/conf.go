package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config represents application configuration.
type Config struct {
	// AppURL is the public base URL of the bridge, used when registering
	// platform webhooks.
	AppURL string

	// Port the HTTP server listens on.
	Port int

	// DBPath locates the sqlite identity store.
	DBPath string

	// GreenAPIBaseURL is the GREEN-API endpoint root.
	GreenAPIBaseURL string

	// Worker pool sizing for inbound message delivery.
	WorkerCount     int
	WorkerQueueSize int

	// Per-instance webhook rate limiting.
	WebhookRate  float64
	WebhookBurst int

	// Debug mode.
	Debug bool
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() *Config {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".greenapi-bridge", "bridge.db")
	}

	baseURL := os.Getenv("GREEN_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.green-api.com"
	}

	return &Config{
		AppURL:          strings.TrimSuffix(os.Getenv("APP_URL"), "/"),
		Port:            envInt("PORT", 8080),
		DBPath:          dbPath,
		GreenAPIBaseURL: baseURL,
		WorkerCount:     envInt("WORKER_COUNT", 4),
		WorkerQueueSize: envInt("WORKER_QUEUE_SIZE", 256),
		WebhookRate:     envFloat("WEBHOOK_RATE", 10),
		WebhookBurst:    envInt("WEBHOOK_BURST", 20),
		Debug:           os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.AppURL == "" {
		return &ConfigError{Field: "APP_URL", Message: "required"}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &ConfigError{Field: "PORT", Message: "must be a valid port"}
	}
	if c.WebhookRate <= 0 {
		return &ConfigError{Field: "WEBHOOK_RATE", Message: "must be positive"}
	}
	return nil
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
