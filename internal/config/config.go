// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// Env is the deployment environment (development, production).
	Env string

	// OWMAPIKey is the OpenWeatherMap API key.
	OWMAPIKey string

	// OWMBaseURL overrides the OpenWeatherMap base URL (tests).
	OWMBaseURL string

	// JWTSigningKey signs device tokens.
	JWTSigningKey string

	// StoreBackend selects the location store: "postgres" or "memory".
	StoreBackend string

	// DeviceLat and DeviceLon configure the static device location used
	// when a session is created without a coordinate. Zero disables it.
	DeviceLat float64
	DeviceLon float64

	// NoticeTTL is how long staleness notices stay visible.
	NoticeTTL time.Duration

	// OTLPEndpoint is the OpenTelemetry collector endpoint.
	OTLPEndpoint string

	// TelemetryEnabled turns on OTLP export.
	TelemetryEnabled bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:             getEnvOrDefault("APP_PORT", "8080"),
		Env:              getEnvOrDefault("APP_ENV", "development"),
		OWMAPIKey:        os.Getenv("OWM_API_KEY"),
		OWMBaseURL:       os.Getenv("OWM_BASE_URL"),
		JWTSigningKey:    getEnvOrDefault("JWT_SIGNING_KEY", "local-dev-signing-key-change-in-production"),
		StoreBackend:     getEnvOrDefault("STORE_BACKEND", "postgres"),
		OTLPEndpoint:     getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TelemetryEnabled: os.Getenv("OTEL_ENABLED") == "true",
	}

	var err error
	if cfg.DeviceLat, err = floatEnv("DEVICE_LAT"); err != nil {
		return Config{}, err
	}
	if cfg.DeviceLon, err = floatEnv("DEVICE_LON"); err != nil {
		return Config{}, err
	}

	ttl, err := time.ParseDuration(getEnvOrDefault("NOTICE_TTL", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTICE_TTL: %w", err)
	}
	cfg.NoticeTTL = ttl

	if cfg.StoreBackend != "postgres" && cfg.StoreBackend != "memory" {
		return Config{}, fmt.Errorf("invalid STORE_BACKEND %q", cfg.StoreBackend)
	}

	return cfg, nil
}

// HasDeviceLocation reports whether a static device location is
// configured.
func (c Config) HasDeviceLocation() bool {
	return c.DeviceLat != 0 || c.DeviceLon != 0
}

func floatEnv(key string) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
