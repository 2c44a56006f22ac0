// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriveUK Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, command-line flags, and environment secrets, in that order
// of precedence (later wins).
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Auth holds the authentication policy knobs.
type Auth struct {
	// SessionSecret signs session tokens. Required; the process
	// refuses to start without it. Read from SESSION_SECRET.
	SessionSecret string `koanf:"-"`

	SessionTTL    time.Duration `koanf:"session_ttl"`
	MaxAttempts   int           `koanf:"max_attempts"`
	AttemptWindow time.Duration `koanf:"attempt_window"`

	// SweepInterval is how often expired sessions and one-time tokens
	// are pruned from the database.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// Config is the root service configuration.
type Config struct {
	HTTPAddr    string `koanf:"http_addr"`
	MetricsAddr string `koanf:"metrics_addr"`
	LogFormat   string `koanf:"log_format"`
	Environment string `koanf:"environment"`

	// DatabaseURL is read from DATABASE_URL. Required.
	DatabaseURL string `koanf:"-"`

	Auth Auth `koanf:"auth"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: "127.0.0.1:9100",
		LogFormat:   "json",
		Environment: EnvDevelopment,
		Auth: Auth{
			SessionTTL:    7 * 24 * time.Hour,
			MaxAttempts:   5,
			AttemptWindow: 15 * time.Minute,
			SweepInterval: time.Hour,
		},
	}
}

// Production reports whether the service runs in production mode.
func (c *Config) Production() bool {
	return c.Environment == EnvProduction
}

// Validate checks that the configuration can run. Missing required
// values abort startup; everything else has a safe default.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_MISSING").Errorf("DATABASE_URL environment variable is required")
	}
	if c.Auth.SessionSecret == "" {
		return oops.Code("CONFIG_MISSING").Errorf("SESSION_SECRET environment variable is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return oops.Code("CONFIG_INVALID").Errorf("environment must be %q or %q", EnvDevelopment, EnvProduction)
	}
	if c.Auth.SessionTTL <= 0 || c.Auth.AttemptWindow <= 0 || c.Auth.SweepInterval <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("durations must be positive")
	}
	if c.Auth.MaxAttempts <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("max_attempts must be positive")
	}
	return nil
}

// Load builds the configuration. path points at an optional YAML file;
// flags may be nil. Secrets always come from the environment.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.Auth.SessionSecret = os.Getenv("SESSION_SECRET")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
