package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/subdeck/subdeck/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Sessions      SessionConfig
	Upstream      UpstreamConfig
	Observability ObservabilityConfig

	// TenantsFile is the YAML tenant list loaded once at startup
	TenantsFile string

	// WebDir holds the static dashboard bundle; empty disables it
	WebDir string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// SessionConfig holds session store settings
type SessionConfig struct {
	SweepInterval time.Duration
}

// UpstreamConfig holds Airtable client settings
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ObservabilityConfig holds logging/metrics/audit settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
	AuditLogPath   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SUBDECK_HOST", "0.0.0.0"),
			Port:            getEnv("SUBDECK_PORT", "3000"),
			ReadTimeout:     getEnvDuration("SUBDECK_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SUBDECK_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvDuration("SUBDECK_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SUBDECK_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  []string{getEnv("SUBDECK_ALLOWED_ORIGIN", "*")},
		},
		Sessions: SessionConfig{
			SweepInterval: getEnvDuration("SUBDECK_SWEEP_INTERVAL", 60*time.Minute),
		},
		Upstream: UpstreamConfig{
			BaseURL: getEnv("SUBDECK_AIRTABLE_URL", ""),
			Timeout: getEnvDuration("SUBDECK_AIRTABLE_TIMEOUT", 30*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLevel(getEnv("SUBDECK_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("SUBDECK_METRICS_ENABLED", true),
			AuditLogPath:   getEnv("SUBDECK_AUDIT_LOG", ""),
		},
		TenantsFile: getEnv("SUBDECK_TENANTS_FILE", "tenants.yaml"),
		WebDir:      getEnv("SUBDECK_WEB_DIR", "public"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Server.Port)
	}
	if c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.Sessions.SweepInterval)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %s", c.Upstream.Timeout)
	}
	if c.TenantsFile == "" {
		return fmt.Errorf("tenants file path must not be empty")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses a duration environment variable
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvBool parses a boolean environment variable
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
