package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Catalog   CatalogConfig
	Generator GeneratorConfig
	Stream    StreamConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CatalogConfig selects the component catalog. An empty path serves the
// built-in slide catalog.
type CatalogConfig struct {
	Path string `envconfig:"CATALOG_PATH"`
}

// GeneratorConfig selects and configures the stream source. URL wins over
// ReplayPath; with neither set the demo generator is used.
type GeneratorConfig struct {
	URL        string        `envconfig:"GENERATOR_URL"`
	APIKey     string        `envconfig:"GENERATOR_API_KEY"`
	Model      string        `envconfig:"GENERATOR_MODEL"`
	Timeout    time.Duration `envconfig:"GENERATOR_TIMEOUT" default:"30s"`
	Retries    int           `envconfig:"GENERATOR_RETRIES" default:"2"`
	RPS        float64       `envconfig:"GENERATOR_RPS" default:"0"`
	ReplayPath string        `envconfig:"REPLAY_PATH"`
}

// GeneratorKind names a stream source
type GeneratorKind string

const (
	GeneratorHTTP   GeneratorKind = "http"
	GeneratorReplay GeneratorKind = "replay"
	GeneratorDemo   GeneratorKind = "demo"
)

// Kind reports which generator the configuration selects
func (g GeneratorConfig) Kind() GeneratorKind {
	switch {
	case g.URL != "":
		return GeneratorHTTP
	case g.ReplayPath != "":
		return GeneratorReplay
	default:
		return GeneratorDemo
	}
}

// StreamConfig bounds ingestion and session lifetime.
type StreamConfig struct {
	MaxLineBytes int           `envconfig:"STREAM_MAX_LINE_BYTES" default:"1048576"`
	IdleTTL      time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	switch {
	case c.Stream.MaxLineBytes <= 0:
		return fmt.Errorf("invalid config: STREAM_MAX_LINE_BYTES must be positive, got %d", c.Stream.MaxLineBytes)
	case c.Generator.Retries < 0:
		return fmt.Errorf("invalid config: GENERATOR_RETRIES must not be negative, got %d", c.Generator.Retries)
	case c.Generator.RPS < 0:
		return fmt.Errorf("invalid config: GENERATOR_RPS must not be negative, got %g", c.Generator.RPS)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Generator: GeneratorConfig{
			Timeout: 30 * time.Second,
			Retries: 2,
		},
		Stream: StreamConfig{
			MaxLineBytes: 1 << 20,
			IdleTTL:      30 * time.Minute,
		},
	}
}
