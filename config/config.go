// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration of the service.
type Config struct {
	// ListenAddr is the webhook/metrics HTTP bind address.
	ListenAddr string

	// DBPath is the sqlite file backing farmer registrations and the
	// agrovet directory.
	DBPath string

	// SessionTTL and SessionMaxInteractions bound a conversation.
	SessionTTL             time.Duration
	SessionMaxInteractions int

	// SMSMaxLength is the per-segment character budget.
	SMSMaxLength int

	// ModelProvider selects the completion backend: "openai", "anthropic"
	// or "mock".
	ModelProvider string
	// ModelName overrides the backend's default model. Optional.
	ModelName       string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Provider upstreams.
	OpenWeatherAPIKey string
	NDVIBaseURL       string
	ProviderTimeout   time.Duration

	// Africa's Talking transport.
	ATUsername string
	ATAPIKey   string
	ATSenderID string
	ATBaseURL  string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:             envOr("LISTEN_ADDR", ":8080"),
		DBPath:                 envOr("DB_PATH", "agriaid.db"),
		SessionTTL:             time.Hour,
		SessionMaxInteractions: 30,
		SMSMaxLength:           160,
		ModelProvider:          envOr("MODEL_PROVIDER", "openai"),
		ModelName:              os.Getenv("MODEL_NAME"),
		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:        os.Getenv("ANTHROPIC_API_KEY"),
		OpenWeatherAPIKey:      os.Getenv("OPENWEATHER_API_KEY"),
		NDVIBaseURL:            os.Getenv("NDVI_BASE_URL"),
		ProviderTimeout:        10 * time.Second,
		ATUsername:             envOr("AT_USERNAME", "sandbox"),
		ATAPIKey:               os.Getenv("AT_API_KEY"),
		ATSenderID:             os.Getenv("AT_SENDER_ID"),
		ATBaseURL:              os.Getenv("AT_BASE_URL"),
		LogLevel:               envOr("LOG_LEVEL", "info"),
		LogFormat:              envOr("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.SessionTTL, err = envDuration("SESSION_TTL", cfg.SessionTTL); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = envDuration("PROVIDER_TIMEOUT", cfg.ProviderTimeout); err != nil {
		return nil, err
	}
	if cfg.SessionMaxInteractions, err = envInt("SESSION_MAX_INTERACTIONS", cfg.SessionMaxInteractions); err != nil {
		return nil, err
	}
	if cfg.SMSMaxLength, err = envInt("SMS_MAX_LENGTH", cfg.SMSMaxLength); err != nil {
		return nil, err
	}

	if cfg.SessionMaxInteractions < 1 {
		return nil, fmt.Errorf("SESSION_MAX_INTERACTIONS must be positive, got %d", cfg.SessionMaxInteractions)
	}
	if cfg.SMSMaxLength < 1 {
		return nil, fmt.Errorf("SMS_MAX_LENGTH must be positive, got %d", cfg.SMSMaxLength)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
