// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/HorusGoul/trizum-sub001/internal/models"
)

// Config holds the server settings.
type Config struct {
	// HTTP Server
	Port int

	// Database
	DBPath string

	// Logging: debug, info, warn, error
	LogLevel string

	// Ledger
	ChunkMaxSize int

	// Balance snapshot cache
	BalanceCacheSize int
	BalanceCacheTTL  time.Duration
}

// Load reads .env (if present) and the environment, applying defaults.
func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	var errs []string
	cfg := &Config{
		Port:             getEnvInt("PORT", 8080, &errs),
		DBPath:           getEnv("DB_PATH", "./data/ledger.db"),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		ChunkMaxSize:     getEnvInt("CHUNK_MAX_SIZE", models.DefaultChunkMaxSize, &errs),
		BalanceCacheSize: getEnvInt("BALANCE_CACHE_SIZE", 256, &errs),
		BalanceCacheTTL:  getEnvDuration("BALANCE_CACHE_TTL", 10*time.Minute, &errs),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.ChunkMaxSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid chunk max size %d: must be positive", c.ChunkMaxSize))
	}
	if c.BalanceCacheSize < 0 {
		errs = append(errs, fmt.Sprintf("invalid balance cache size %d: must not be negative", c.BalanceCacheSize))
	}
	if c.BalanceCacheTTL <= 0 {
		errs = append(errs, fmt.Sprintf("invalid balance cache TTL %s: must be positive", c.BalanceCacheTTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]string) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s=%q: must be a number", key, value))
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration, errs *[]string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s=%q: must be a duration", key, value))
		return fallback
	}
	return d
}
