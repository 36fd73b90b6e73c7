package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"production-ledger/internal/core"
	"production-ledger/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Database
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"` // sqlite3 | postgres
	DatabaseURL    string `mapstructure:"DATABASE_URL"`

	// Ledger
	AllocationPolicy string `mapstructure:"ALLOCATION_POLICY"` // greedy | manual

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"` // console | json
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("DATABASE_DRIVER", "sqlite3")
	v.SetDefault("DATABASE_URL", "production-ledger.db")
	v.SetDefault("ALLOCATION_POLICY", string(core.PolicyGreedy))
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	// Optional .env file for local development; a missing file is not an error.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot act on.
func (c *Config) Validate() error {
	if _, err := store.ParseDialect(c.DatabaseDriver); err != nil {
		return fmt.Errorf("DATABASE_DRIVER: %w", err)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if _, err := core.ParseAllocationPolicy(c.AllocationPolicy); err != nil {
		return fmt.Errorf("ALLOCATION_POLICY: %w", err)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT: unsupported format %q (want console or json)", c.LogFormat)
	}
	return nil
}

// Dialect returns the parsed database driver. Call after Validate.
func (c *Config) Dialect() store.Dialect {
	d, _ := store.ParseDialect(c.DatabaseDriver)
	return d
}

// Policy returns the parsed allocation policy. Call after Validate.
func (c *Config) Policy() core.AllocationPolicy {
	p, _ := core.ParseAllocationPolicy(c.AllocationPolicy)
	return p
}

// SetupLogger points the global zerolog logger at stderr.
func (c *Config) SetupLogger() {
	c.setupLogger(os.Stderr)
}

func (c *Config) setupLogger(w io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.LogFormat == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
}
