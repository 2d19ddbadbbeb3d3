// Package config loads configuration from the environment and an optional
// YAML file, and sets up logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Databricks workspace
	DatabricksHost        string
	DatabricksToken       string
	DatabricksWarehouseID string

	// Genie conversational space
	GenieSpaceID string

	// Optional override for the base address the Genie client talks to.
	// When set, requests go through this proxy instead of DatabricksHost.
	ProxyURL string

	// HTTP server
	Port string

	// Per-request timeout for calls to Databricks.
	HTTPTimeout time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors Config for the optional YAML config file.
// Only fields present in the file override the environment.
type fileConfig struct {
	DatabricksHost        string `yaml:"databricks_host"`
	DatabricksToken       string `yaml:"databricks_token"`
	DatabricksWarehouseID string `yaml:"databricks_warehouse_id"`
	GenieSpaceID          string `yaml:"genie_space_id"`
	ProxyURL              string `yaml:"proxy_url"`
	Port                  string `yaml:"port"`
	HTTPTimeout           string `yaml:"http_timeout"`
	LogFile               string `yaml:"log_file"`
	LogLevel              string `yaml:"log_level"`
}

// Load reads configuration from environment variables, then overlays the
// YAML file pointed to by CLINICPULSE_CONFIG if one is set.
func Load() (Config, error) {
	cfg := Config{
		DatabricksHost:        getEnv("DATABRICKS_HOST", ""),
		DatabricksToken:       getEnv("DATABRICKS_TOKEN", ""),
		DatabricksWarehouseID: getEnv("DATABRICKS_WAREHOUSE_ID", ""),

		GenieSpaceID: getEnv("GENIE_SPACE_ID", ""),
		ProxyURL:     getEnv("CLINICPULSE_PROXY_URL", ""),

		Port:        getEnv("CLINICPULSE_PORT", "3001"),
		HTTPTimeout: parseDuration(getEnv("CLINICPULSE_HTTP_TIMEOUT", ""), 60*time.Second),

		LogFile:  getEnv("CLINICPULSE_LOG_FILE", "/tmp/clinicpulse.log"),
		LogLevel: ParseLogLevel(getEnv("CLINICPULSE_LOG_LEVEL", "INFO")),
	}

	if path := os.Getenv("CLINICPULSE_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	return cfg, nil
}

// applyFile overlays values from a YAML config file onto the config.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.DatabricksHost != "" {
		c.DatabricksHost = fc.DatabricksHost
	}
	if fc.DatabricksToken != "" {
		c.DatabricksToken = fc.DatabricksToken
	}
	if fc.DatabricksWarehouseID != "" {
		c.DatabricksWarehouseID = fc.DatabricksWarehouseID
	}
	if fc.GenieSpaceID != "" {
		c.GenieSpaceID = fc.GenieSpaceID
	}
	if fc.ProxyURL != "" {
		c.ProxyURL = fc.ProxyURL
	}
	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.HTTPTimeout != "" {
		c.HTTPTimeout = parseDuration(fc.HTTPTimeout, c.HTTPTimeout)
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.LogLevel != "" {
		c.LogLevel = ParseLogLevel(fc.LogLevel)
	}

	return nil
}

// BaseURL returns the address Genie and warehouse calls should be issued
// against: the proxy override when set, the workspace host otherwise.
func (c Config) BaseURL() string {
	if c.ProxyURL != "" {
		return c.ProxyURL
	}
	return c.DatabricksHost
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// ParseLogLevel maps a level name to a slog.Level, defaulting to INFO.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
