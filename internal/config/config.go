package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	ProdOrigins string `envconfig:"PROD_ORIGINS"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DBDSN      string `envconfig:"DB_DSN" required:"true"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// BookingTimezone is the IANA zone whose Monday midnight starts the quota week.
	BookingTimezone string `envconfig:"BOOKING_TIMEZONE" default:"UTC"`
	// TierQuotaFile optionally overrides the default weekly caps (YAML).
	TierQuotaFile string `envconfig:"TIER_QUOTA_FILE"`

	// Redis backs the booking rate limiter. Empty disables it.
	RedisAddr          string `envconfig:"REDIS_ADDR"`
	RedisPassword      string `envconfig:"REDIS_PASSWORD"`
	RedisDB            int    `envconfig:"REDIS_DB" default:"0"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`

	// AMQP receives booking.confirmed events. Empty disables publishing.
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"volunteer.events"`

	OTelEnabled       bool    `envconfig:"OTEL_ENABLED" default:"false"`
	OTelEndpoint      string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	OTelSamplingRatio float64 `envconfig:"OTEL_SAMPLING_RATIO" default:"1"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// IsProduction reports whether APP_ENV selects production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == PROD_STRING
}

// Location resolves BookingTimezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.BookingTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_TIMEZONE %q: %w", c.BookingTimezone, err)
	}
	return loc, nil
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return FromEnv()
}

// FromEnv reads and validates configuration from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// required only rejects unset keys, not empty ones.
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", cfg.DBMaxConns)
	}
	if cfg.RateLimitPerMinute < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.OTelSamplingRatio < 0 || cfg.OTelSamplingRatio > 1 {
		return nil, fmt.Errorf("OTEL_SAMPLING_RATIO must be within [0, 1], got %v", cfg.OTelSamplingRatio)
	}

	return &cfg, nil
}
