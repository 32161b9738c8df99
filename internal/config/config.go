package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPPort    int    `envconfig:"HTTP_PORT" default:"8080"`

	// Storage
	DatabasePath string `envconfig:"DATABASE_PATH" default:"sitecoach.db"`

	// Completion service (OpenRouter-compatible)
	OpenRouterAPIKey  string        `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string        `envconfig:"OPENROUTER_API_URL" default:"https://openrouter.ai/api/v1"`
	OpenRouterModel   string        `envconfig:"OPENROUTER_MODEL" default:"openai/gpt-4o"`
	CompletionTimeout time.Duration `envconfig:"COMPLETION_TIMEOUT" default:"120s"`

	// Auth — sessions are issued by an external provider; we only validate.
	AuthMode      string `envconfig:"AUTH_MODE" default:"jwt"` // "jwt" or "none"
	AuthJWTSecret string `envconfig:"AUTH_JWT_SECRET"`

	// HTTP server
	CORSOrigins string `envconfig:"CORS_ORIGINS"`
}

// CompletionEnabled returns true if the completion service is configured.
func (c *Config) CompletionEnabled() bool {
	return c.OpenRouterAPIKey != ""
}

// Validate checks for configuration combinations that cannot work.
func (c *Config) Validate() error {
	if c.AuthMode == "jwt" && c.AuthJWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE=jwt")
	}
	if c.AuthMode != "jwt" && c.AuthMode != "none" {
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
