package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the memory service.
// Environment variables are parsed from the SOLACE_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Remote tier (durable document store). Empty DSN runs local-only.
	PostgresDSN   string        `envconfig:"POSTGRES_DSN" default:""`
	RemoteTimeout time.Duration `envconfig:"REMOTE_TIMEOUT" default:"3s"`

	// Local tier (degraded-mode JSON files)
	DataDir string `envconfig:"DATA_DIR" default:"./data"`

	// Summarizer (OpenAI-compatible chat completions endpoint). Empty URL
	// selects the deterministic mock, matching the original mock mode.
	SummarizerURL   string `envconfig:"SUMMARIZER_URL" default:""`
	SummarizerKey   string `envconfig:"SUMMARIZER_KEY" default:""`
	SummarizerModel string `envconfig:"SUMMARIZER_MODEL" default:"gpt-4o-mini"`

	// CORS origins for the companion app frontends
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// ResolveDefaults validates derived settings.
func (c *Config) ResolveDefaults() error {
	if c.DataDir == "" {
		return fmt.Errorf("SOLACE_DATA_DIR must not be empty")
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("SOLACE_REMOTE_TIMEOUT must be positive, got %s", c.RemoteTimeout)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: SOLACE_HTTP_PORT, SOLACE_POSTGRES_DSN, SOLACE_DATA_DIR.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SOLACE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("data_dir", cfg.DataDir).
		Dur("remote_timeout", cfg.RemoteTimeout).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Str("summarizer_url_present", func() string {
			if cfg.SummarizerURL != "" {
				return "true"
			}
			return "false"
		}()).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:     EnvTesting,
		HTTPPort:        8080,
		RemoteTimeout:   time.Second,
		DataDir:         "./testdata",
		SummarizerModel: "gpt-4o-mini",
		CORSOrigins:     []string{"*"},
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
