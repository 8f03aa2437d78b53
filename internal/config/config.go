// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port   string
	AppEnv string

	// Object storage (S3-compatible: MinIO locally, any S3 provider in production)
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageRegion    string
	StorageUseSSL    bool

	// Startup readiness polling against the store
	HealthRetries int
	HealthBackoff time.Duration
}

// Load reads configuration from a .env file (if present) and environment
// variables. It returns an error when a required storage variable is absent,
// so the process fails fast instead of serving with a broken store.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, reading from environment")
	}

	cfg := &Config{
		Port:   getEnv("APP_PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		StorageEndpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
		StorageAccessKey: os.Getenv("S3_ACCESS_KEY"),
		StorageSecretKey: os.Getenv("S3_SECRET_KEY"),
		StorageBucket:    os.Getenv("S3_BUCKET"),
		StorageRegion:    getEnv("S3_REGION", "us-east-1"),
		StorageUseSSL:    getEnv("S3_USE_SSL", "false") == "true",

		HealthRetries: getEnvInt("S3_HEALTH_RETRIES", 10),
		HealthBackoff: time.Duration(getEnvInt("S3_HEALTH_BACKOFF", 3)) * time.Second,
	}

	for name, value := range map[string]string{
		"S3_BUCKET":     cfg.StorageBucket,
		"S3_ACCESS_KEY": cfg.StorageAccessKey,
		"S3_SECRET_KEY": cfg.StorageSecretKey,
	} {
		if value == "" {
			return nil, fmt.Errorf("missing required environment variable %s", name)
		}
	}

	return cfg, nil
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("var", key).Str("value", v).Msg("invalid integer, using default")
		return fallback
	}
	return n
}
