package dbconfig

import (
	"fmt"
	"os"
	"strconv"
)

// Driver selects the session storage backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config holds storage connection settings.
type Config struct {
	Driver     Driver
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	SQLitePath string
}

// NewConfigFromEnv reads DB_* environment variables (with defaults).
func NewConfigFromEnv() Config {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		port = 5432
	}

	return Config{
		Driver:     Driver(getEnv("DB_DRIVER", string(DriverMemory))),
		Host:       getEnv("DB_HOST", "localhost"),
		Port:       port,
		User:       getEnv("DB_USER", "postgres"),
		Password:   getEnv("DB_PASSWORD", "postgres"),
		Database:   getEnv("DB_NAME", "luckydraw"),
		SSLMode:    getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "luckydraw.db"),
	}
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// Validate checks the driver is one we can open.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
		return nil
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Driver)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
