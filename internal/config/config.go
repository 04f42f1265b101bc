// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host          string
	Port          string
	Env           string // "development", "production", "testing"
	PublicBaseURL string // prefix of published site URLs

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible media storage; uploads are disabled when unset.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Editor
	AutosaveDebounce   time.Duration
	PersistTimeout     time.Duration
	HistoryLimit       int
	SessionIdleTimeout time.Duration
	PageCacheTTL       time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode or a value cannot be parsed.
func Load() (*Config, error) {
	cfg := &Config{
		Host:          envOrDefault("APP_HOST", "0.0.0.0"),
		Port:          envOrDefault("APP_PORT", "8080"),
		Env:           envOrDefault("APP_ENV", "development"),
		PublicBaseURL: envOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "sitecraft"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "sitecraft"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "sitecraft-media"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	var err error
	if cfg.AutosaveDebounce, err = durationOrDefault("AUTOSAVE_DEBOUNCE", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.PersistTimeout, err = durationOrDefault("PERSIST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTimeout, err = durationOrDefault("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PageCacheTTL, err = durationOrDefault("PAGE_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = intOrDefault("HISTORY_LIMIT", 100); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationOrDefault parses a positive duration such as "2s" or "30m".
func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}

// intOrDefault parses a positive integer.
func intOrDefault(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
