package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mcdev12/luckydraw/go/internal/config"
	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := config.Default()
	if cfg.Port != want.Port || cfg.Sessions.TTL != want.Sessions.TTL || cfg.NATS.Stream != want.NATS.Stream {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if cfg.Level() != zerolog.InfoLevel {
		t.Errorf("level = %v", cfg.Level())
	}
}

func TestLoadRequiredFileMissing(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), true); err == nil {
		t.Fatal("expected error for missing required file")
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := writeFile(t, `
port: "9090"
log_level: debug
sessions:
  ttl: 30m
nats:
  enabled: true
  url: nats://bus:4222
cors:
  allowed_origins:
    - https://example.com
`)

	cfg, err := config.Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.Sessions.TTL != 30*time.Minute {
		t.Errorf("ttl = %s", cfg.Sessions.TTL)
	}
	if cfg.Sessions.SweepInterval != 5*time.Minute {
		t.Errorf("sweep interval = %s, want default kept", cfg.Sessions.SweepInterval)
	}
	if !cfg.NATS.Enabled || cfg.NATS.URL != "nats://bus:4222" || cfg.NATS.Stream != "DRAW_EVENTS" {
		t.Errorf("nats = %+v", cfg.NATS)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://example.com" {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Level() != zerolog.DebugLevel {
		t.Errorf("level = %v", cfg.Level())
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "port: \"9090\"\nsessions:\n  ttl: 30m\n")
	t.Setenv("PORT", "7070")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("OUTBOX_BATCH_SIZE", "25")

	cfg, err := config.Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("port = %q, want env value", cfg.Port)
	}
	if cfg.Sessions.TTL != 2*time.Hour {
		t.Errorf("ttl = %s, want env value", cfg.Sessions.TTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Outbox.BatchSize != 25 || cfg.Outbox.PollInterval != 5*time.Second {
		t.Errorf("outbox = %+v", cfg.Outbox)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{"bad yaml", "port: [", nil, "failed to parse config"},
		{"bad env duration", "", map[string]string{"SESSION_TTL": "soon"}, "parse env:"},
		{"negative ttl", "sessions:\n  ttl: -1m\n", nil, "must not be negative"},
		{"nats without url", "nats:\n  enabled: true\n  url: \"\"\n", nil, "nats.url"},
		{"zero outbox batch", "outbox:\n  batch_size: 0\n", nil, "outbox.poll_interval"},
		{"bad level", "log_level: loud\n", nil, "invalid log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load(writeFile(t, tt.yaml), true)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
