package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bootpe/pluginmart/pkg/mode"
)

// Config holds all application configuration
type Config struct {
	// Plugin ecosystem the daemon manages
	Mode mode.Mode

	// Server configuration
	Server ServerConfig

	// BootRoot pins the boot drive root, skipping discovery. Empty means
	// discover drives and wait for a selection.
	BootRoot string

	// Download configuration
	DownloadThreads int
	DownloadDir     string

	// Workers sizes the background worker pool
	Workers int

	// RefreshSpec is the cron spec for periodic catalog refresh
	RefreshSpec string

	// LogLevel for the shared logger
	LogLevel logrus.Level
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	level, err := logrus.ParseLevel(getEnv("PLUGINMART_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLUGINMART_LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Mode: mode.Parse(getEnv("PLUGINMART_MODE", "")),
		Server: ServerConfig{
			Host:            getEnv("PLUGINMART_HOST", "0.0.0.0"),
			Port:            getEnv("PLUGINMART_PORT", "8080"),
			ReadTimeout:     getEnvDuration("PLUGINMART_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("PLUGINMART_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("PLUGINMART_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("PLUGINMART_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		BootRoot:        getEnv("PLUGINMART_BOOT_ROOT", ""),
		DownloadThreads: getEnvInt("PLUGINMART_DOWNLOAD_THREADS", 8),
		DownloadDir:     getEnv("PLUGINMART_DOWNLOAD_DIR", ""),
		Workers:         getEnvInt("PLUGINMART_WORKERS", 4),
		RefreshSpec:     getEnv("PLUGINMART_REFRESH_SPEC", "@every 10m"),
		LogLevel:        level,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode == mode.Select {
		return fmt.Errorf("PLUGINMART_MODE must be one of cloudpe, hotpe, edgeless")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.DownloadThreads < 1 {
		return fmt.Errorf("download thread count must be at least 1")
	}
	if c.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.RefreshSpec == "" {
		return fmt.Errorf("refresh cron spec is required")
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
