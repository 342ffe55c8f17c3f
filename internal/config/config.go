// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Tracing
	OTLPEndpoint string // OTLP gRPC endpoint (optional, tracing disabled if not set)

	// Simulation settings
	RandomSeed       uint64 // 0 = non-deterministic
	RiskCacheTTLMin  int    // risk assessment cache TTL in minutes
	ProtestTickerSec int    // interval for natural protest decay / random news
	CurrentWeek      int    // simulation week, drives termination thresholds

	// Security
	RateLimitRPS   int
	AllowedOrigins []string // CORS origins, empty = allow all
}

// Defaults
const (
	DefaultPort            = "8080"
	DefaultEnv             = "development"
	DefaultLogLevel        = "info"
	DefaultRateLimit       = 100
	DefaultRiskCacheTTLMin = 60
	DefaultProtestTickSec  = 300
	DefaultWeek            = 1
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", DefaultPort),
		Env:              getEnv("ENV", DefaultEnv),
		LogLevel:         getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:      os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RandomSeed:       uint64(getEnvInt64("RANDOM_SEED", 0)),
		RiskCacheTTLMin:  int(getEnvInt64("RISK_CACHE_TTL_MIN", DefaultRiskCacheTTLMin)),
		ProtestTickerSec: int(getEnvInt64("PROTEST_TICKER_SEC", DefaultProtestTickSec)),
		CurrentWeek:      int(getEnvInt64("CURRENT_WEEK", DefaultWeek)),
		RateLimitRPS:     int(getEnvInt64("RATE_LIMIT_RPS", int64(DefaultRateLimit))),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all configuration values are sane
func (c *Config) Validate() error {
	if c.RiskCacheTTLMin <= 0 {
		return fmt.Errorf("RISK_CACHE_TTL_MIN must be positive, got %d", c.RiskCacheTTLMin)
	}
	if c.ProtestTickerSec <= 0 {
		return fmt.Errorf("PROTEST_TICKER_SEC must be positive, got %d", c.ProtestTickerSec)
	}
	if c.CurrentWeek < 1 {
		return fmt.Errorf("CURRENT_WEEK must be >= 1, got %d", c.CurrentWeek)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
