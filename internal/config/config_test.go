package config

import (
	"bytes"
	"testing"

	"production-ledger/internal/core"
	"production-ledger/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"DATABASE_DRIVER", "DATABASE_URL", "ALLOCATION_POLICY", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, store.SQLite, cfg.Dialect())
	assert.Equal(t, "production-ledger.db", cfg.DatabaseURL)
	assert.Equal(t, core.PolicyGreedy, cfg.Policy())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://ledger@localhost/ledger")
	t.Setenv("ALLOCATION_POLICY", "manual")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, store.Postgres, cfg.Dialect())
	assert.Equal(t, core.PolicyManual, cfg.Policy())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DatabaseDriver:   "sqlite3",
		DatabaseURL:      ":memory:",
		AllocationPolicy: "greedy",
		LogLevel:         "info",
		LogFormat:        "console",
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"driver": func(c *Config) { c.DatabaseDriver = "mysql" },
		"url":    func(c *Config) { c.DatabaseURL = "  " },
		"policy": func(c *Config) { c.AllocationPolicy = "lifo" },
		"level":  func(c *Config) { c.LogLevel = "loud" },
		"format": func(c *Config) { c.LogFormat = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestSetupLogger_JSON(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	cfg := &Config{LogLevel: "warn", LogFormat: "json"}
	cfg.setupLogger(&buf)

	log.Info().Msg("hidden")
	log.Warn().Str("lot", "FL-1").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"lot":"FL-1"`)
	assert.Contains(t, out, `"level":"warn"`)
}
