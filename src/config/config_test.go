package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "keys.db", cfg.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.True(t, cfg.KeyUsageTracking)
	assert.False(t, cfg.GenerateRequireKey)
	assert.Equal(t, 60, cfg.ValidateRatePerMinute)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Origins())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("STATS_INTERVAL", "30")
	t.Setenv("KEY_USAGE_TRACKING", "false")
	t.Setenv("GENERATE_REQUIRE_KEY", "yes")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "", cfg.SQLitePath)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, 30*time.Second, cfg.StatsInterval)
	assert.False(t, cfg.KeyUsageTracking)
	assert.True(t, cfg.GenerateRequireKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nVALIDATE_RATE_PER_MINUTE=5\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")
	// Registered so the value loaded from the file is unset again afterwards
	t.Setenv("VALIDATE_RATE_PER_MINUTE", "")
	os.Unsetenv("VALIDATE_RATE_PER_MINUTE")

	cfg := Load(path)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 5, cfg.ValidateRatePerMinute)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("STORE_TIMEOUT", "soon")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"postgres ok", func(c *Config) {}, false},
		{"sqlite ok", func(c *Config) { c.StoreDriver = DriverSQLite; c.DatabaseURL = "" }, false},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mysql" }, true},
		{"postgres without url", func(c *Config) { c.DatabaseURL = "" }, true},
		{"bad port", func(c *Config) { c.Port = 0 }, true},
		{"negative timeout", func(c *Config) { c.StoreTimeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Port:         8080,
				StoreDriver:  DriverPostgres,
				DatabaseURL:  "postgres://localhost/apikeys",
				StoreTimeout: time.Second,
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
