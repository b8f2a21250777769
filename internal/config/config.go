// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/clearskies/clearskies/internal/sensor"
)

// Config holds configuration shared by the API and the worker.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Telemetry
	OTelEnabled  bool
	OTLPEndpoint string

	// Upstreams
	PredictionBaseURL string
	OpenAQBaseURL     string
	OpenAQAPIKey      string

	// Cache TTLs
	CacheTTL        time.Duration
	MetricsCacheTTL time.Duration
	StaleIfErrorTTL time.Duration

	// Dashboard defaults
	DefaultSensorID  string
	DefaultHorizon   int
	DefaultThreshold float64

	// HTTP
	AllowedOrigins []string
	RequireTLS     bool
	CacheMaxAge    time.Duration

	// Worker
	RefreshInterval    time.Duration
	RefreshConcurrency int
	RefreshSensorIDs   []string
	PubSubProjectID    string
	PubSubSubscription string
}

// LoadDotEnv loads variables from the given files into the environment.
// Missing files are ignored; variables already set are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	return Config{
		Port:        getEnvOrDefault("APP_PORT", "8080"),
		Environment: getEnvOrDefault("APP_ENV", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),

		OTelEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		PredictionBaseURL: os.Getenv("PREDICTION_BASE_URL"),
		OpenAQBaseURL:     os.Getenv("OPENAQ_BASE_URL"),
		OpenAQAPIKey:      os.Getenv("OPENAQ_API_KEY"),

		CacheTTL:        getDuration("CACHE_TTL", 10*time.Minute),
		MetricsCacheTTL: getDuration("METRICS_CACHE_TTL", time.Hour),
		StaleIfErrorTTL: getDuration("STALE_IF_ERROR_TTL", time.Hour),

		DefaultSensorID:  getEnvOrDefault("DEFAULT_SENSOR_ID", sensor.DefaultSensorID),
		DefaultHorizon:   getInt("DEFAULT_FORECAST_HOURS", 24),
		DefaultThreshold: getFloat("DEFAULT_ALERT_THRESHOLD", 100),

		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		RequireTLS:     os.Getenv("REQUIRE_TLS") == "true",
		CacheMaxAge:    getDuration("CACHE_MAX_AGE", time.Minute),

		RefreshInterval:    getDuration("REFRESH_INTERVAL", 5*time.Minute),
		RefreshConcurrency: getInt("REFRESH_CONCURRENCY", 3),
		RefreshSensorIDs:   splitList(os.Getenv("REFRESH_SENSOR_IDS")),
		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "clearskies-refresh"),
	}
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || math.IsNaN(f) {
		return defaultValue
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
