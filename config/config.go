// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server and client settings.
type Config struct {
	Addr            string        `env:"TASKS_ADDR" envDefault:":8000"`
	DBPath          string        `env:"TASKS_DB_PATH" envDefault:"tasks.db"`
	RequestTimeout  time.Duration `env:"TASKS_REQUEST_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"TASKS_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	GinMode         string        `env:"TASKS_GIN_MODE" envDefault:"release"`
	OTelEndpoint    string        `env:"TASKS_OTEL_ENDPOINT"`
	APIURL          string        `env:"TASKS_API_URL" envDefault:"http://127.0.0.1:8000"`
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("TASKS_REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		return Config{}, fmt.Errorf("TASKS_GIN_MODE must be debug, release or test, got %q", cfg.GinMode)
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
