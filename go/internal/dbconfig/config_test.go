package dbconfig

import "testing"

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("DB_NAME", "draws")

	cfg := NewConfigFromEnv()
	if cfg.Driver != DriverPostgres || cfg.Port != 5432 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if got, want := cfg.DSN(), "postgres://postgres:postgres@db:5432/draws?sslmode=disable"; got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
}

func TestConfig_SQLiteDSNAndValidate(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, SQLitePath: "/tmp/x.db"}
	if cfg.DSN() != "/tmp/x.db" {
		t.Fatalf("DSN = %q", cfg.DSN())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := (Config{Driver: "mysql"}).Validate(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
