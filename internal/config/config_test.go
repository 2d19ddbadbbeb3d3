package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABRICKS_HOST", "DATABRICKS_TOKEN", "DATABRICKS_WAREHOUSE_ID",
		"GENIE_SPACE_ID", "CLINICPULSE_PROXY_URL", "CLINICPULSE_PORT",
		"CLINICPULSE_HTTP_TIMEOUT", "CLINICPULSE_LOG_FILE",
		"CLINICPULSE_LOG_LEVEL", "CLINICPULSE_CONFIG",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.DatabricksHost)
	assert.Empty(t, cfg.DatabricksToken)
	assert.Empty(t, cfg.GenieSpaceID)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "/tmp/clinicpulse.log", cfg.LogFile)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABRICKS_HOST", "https://dbx.example.com")
	t.Setenv("DATABRICKS_TOKEN", "tok")
	t.Setenv("GENIE_SPACE_ID", "space1")
	t.Setenv("CLINICPULSE_PORT", "8080")
	t.Setenv("CLINICPULSE_HTTP_TIMEOUT", "30s")
	t.Setenv("CLINICPULSE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://dbx.example.com", cfg.DatabricksHost)
	assert.Equal(t, "tok", cfg.DatabricksToken)
	assert.Equal(t, "space1", cfg.GenieSpaceID)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadYAMLOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABRICKS_HOST", "https://env.example.com")
	t.Setenv("CLINICPULSE_PORT", "8080")

	path := filepath.Join(t.TempDir(), "clinicpulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"databricks_host: https://file.example.com\nhttp_timeout: 90s\nlog_level: error\n",
	), 0644))
	t.Setenv("CLINICPULSE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	// File values win over env, env values without file entries survive
	assert.Equal(t, "https://file.example.com", cfg.DatabricksHost)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, slog.LevelError, cfg.LogLevel)
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLINICPULSE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))
	t.Setenv("CLINICPULSE_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestBaseURL(t *testing.T) {
	cfg := Config{DatabricksHost: "https://dbx.example.com"}
	assert.Equal(t, "https://dbx.example.com", cfg.BaseURL())

	cfg.ProxyURL = "http://localhost:3001"
	assert.Equal(t, "http://localhost:3001", cfg.BaseURL())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("nonsense", time.Minute))
}
