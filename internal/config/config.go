// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/pulseboard/pulseboard/internal/scoring"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port      string
	Env       string // "development", "staging", "production"
	LogLevel  string
	LogFormat string // "text" or "json"

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Scoring
	Weights            scoring.Weights
	Thresholds         scoring.Thresholds
	FeatureCatalogSize int
	SnapshotInterval   time.Duration

	// Billing
	StripeWebhookSecret string // Stripe signing secret; billing webhook disabled if empty

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint; tracing disabled if empty

	// Security
	RateLimitRPS   int
	AllowedOrigins string // comma-separated CORS origins, "*" in development
}

// Defaults
const (
	DefaultPort             = "8080"
	DefaultEnv              = "development"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultRateLimit        = 100
	DefaultSnapshotInterval = time.Hour
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", DefaultPort),
		Env:         getEnv("ENV", DefaultEnv),
		LogLevel:    getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:   getEnv("LOG_FORMAT", DefaultLogFormat),
		DatabaseURL: os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		Weights: scoring.Weights{
			LoginFrequency:      getEnvFloat("WEIGHT_LOGIN_FREQUENCY", scoring.DefaultWeights.LoginFrequency),
			FeatureAdoption:     getEnvFloat("WEIGHT_FEATURE_ADOPTION", scoring.DefaultWeights.FeatureAdoption),
			SupportTicketVolume: getEnvFloat("WEIGHT_SUPPORT_TICKET_VOLUME", scoring.DefaultWeights.SupportTicketVolume),
			InvoiceTimeliness:   getEnvFloat("WEIGHT_INVOICE_TIMELINESS", scoring.DefaultWeights.InvoiceTimeliness),
			APIUsageTrend:       getEnvFloat("WEIGHT_API_USAGE_TREND", scoring.DefaultWeights.APIUsageTrend),
		},
		Thresholds: scoring.Thresholds{
			Healthy: getEnvFloat("RISK_HEALTHY_MIN", scoring.DefaultThresholds.Healthy),
			Watch:   getEnvFloat("RISK_WATCH_MIN", scoring.DefaultThresholds.Watch),
		},
		FeatureCatalogSize:  int(getEnvInt64("FEATURE_CATALOG_SIZE", int64(scoring.DefaultFeatureCatalogSize))),
		SnapshotInterval:    getEnvDuration("SNAPSHOT_INTERVAL", DefaultSnapshotInterval),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitRPS:        int(getEnvInt64("RATE_LIMIT_RPS", int64(DefaultRateLimit))),
		AllowedOrigins:      getEnv("ALLOWED_ORIGINS", "*"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent. A misconfigured
// weight vector or threshold pair makes every score wrong, so these
// are hard startup failures rather than warnings.
func (c *Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("scoring weights: %w", err)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("risk thresholds: %w", err)
	}
	if c.FeatureCatalogSize < 1 {
		return fmt.Errorf("FEATURE_CATALOG_SIZE must be >= 1, got %d", c.FeatureCatalogSize)
	}
	if c.SnapshotInterval < time.Second {
		return fmt.Errorf("SNAPSHOT_INTERVAL must be >= 1s, got %s", c.SnapshotInterval)
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
