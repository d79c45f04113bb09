// Package config loads service settings: built-in defaults, then an optional
// YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when LUCKYDRAW_CONFIG is unset. It may be absent.
const DefaultPath = "config.yaml"

type Config struct {
	Port        string `yaml:"port" env:"PORT"`
	GatewayPort string `yaml:"gateway_port" env:"GATEWAY_PORT"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`

	// DrawServiceURL is where the standalone gateway fetches session snapshots.
	DrawServiceURL string `yaml:"draw_service_url" env:"DRAW_SERVICE_URL"`

	Sessions SessionConfig `yaml:"sessions"`
	NATS     NATSConfig    `yaml:"nats"`
	Outbox   OutboxConfig  `yaml:"outbox"`
	CORS     CORSConfig    `yaml:"cors"`
}

type SessionConfig struct {
	// TTL is how long a session may sit idle. Zero keeps sessions forever.
	TTL           time.Duration `yaml:"ttl" env:"SESSION_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SESSION_SWEEP_INTERVAL"`
}

type NATSConfig struct {
	Enabled       bool   `yaml:"enabled" env:"NATS_ENABLED"`
	URL           string `yaml:"url" env:"NATS_URL"`
	Stream        string `yaml:"stream" env:"NATS_STREAM"`
	SubjectPrefix string `yaml:"subject_prefix" env:"NATS_SUBJECT_PREFIX"`
}

// OutboxConfig tunes the relay from the SQL outbox to NATS. It only applies
// when sessions are stored in SQL and NATS is enabled.
type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"OUTBOX_POLL_INTERVAL"`
	BatchSize    int           `yaml:"batch_size" env:"OUTBOX_BATCH_SIZE"`
	Retention    time.Duration `yaml:"retention" env:"OUTBOX_RETENTION"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// Default returns the settings used when nothing overrides them
func Default() Config {
	return Config{
		Port:           "8080",
		GatewayPort:    "8081",
		LogLevel:       "info",
		DrawServiceURL: "http://localhost:8080",
		Sessions: SessionConfig{
			TTL:           24 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			Stream:        "DRAW_EVENTS",
			SubjectPrefix: "draw.events",
		},
		Outbox: OutboxConfig{
			PollInterval: 5 * time.Second,
			BatchSize:    100,
			Retention:    24 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// LoadFromEnv loads the file named by LUCKYDRAW_CONFIG, or DefaultPath when
// it is unset, and applies environment overrides.
func LoadFromEnv() (*Config, error) {
	if path := os.Getenv("LUCKYDRAW_CONFIG"); path != "" {
		return Load(path, true)
	}
	return Load(DefaultPath, false)
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. A missing file is an error only when required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot start with
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.Sessions.TTL < 0 {
		return fmt.Errorf("sessions.ttl must not be negative, got %s", c.Sessions.TTL)
	}
	if c.Sessions.TTL > 0 && c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("sessions.sweep_interval must be positive when a ttl is set, got %s", c.Sessions.SweepInterval)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return errors.New("nats.url is required when nats is enabled")
	}
	if c.Outbox.PollInterval <= 0 || c.Outbox.BatchSize <= 0 {
		return fmt.Errorf("outbox.poll_interval and outbox.batch_size must be positive, got %s and %d", c.Outbox.PollInterval, c.Outbox.BatchSize)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level returns the zerolog level for LogLevel, defaulting to info
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
