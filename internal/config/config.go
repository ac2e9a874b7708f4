package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// OpenWeatherMap client configuration.
	OWMAPIKey    string
	OWMBaseURL   string
	OWMUnits     string
	OWMDays      int
	OWMTimeout   time.Duration
	OWMRateLimit float64
	OWMRateBurst int

	DefaultLocation string
	DisplayUnits    string

	// Forecast store configuration.
	StoreDriver string
	StoreDSN    string

	// Kafka sync-event publishing.
	KafkaBrokers   []string
	KafkaSyncTopic string
	KafkaEnabled   bool
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is folded in when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	owmTimeout, err := parsePositiveDuration("OWM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	owmDays, err := parseDays()
	if err != nil {
		return nil, err
	}

	owmRateLimit, err := parseRateLimit()
	if err != nil {
		return nil, err
	}

	owmRateBurst, err := parseRateBurst()
	if err != nil {
		return nil, err
	}

	kafkaBrokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OWMAPIKey:    os.Getenv("OWM_API_KEY"),
		OWMBaseURL:   envOrDefault("OWM_BASE_URL", "https://api.openweathermap.org/data/2.5/forecast/daily"),
		OWMUnits:     envOrDefault("OWM_UNITS", "metric"),
		OWMDays:      owmDays,
		OWMTimeout:   owmTimeout,
		OWMRateLimit: owmRateLimit,
		OWMRateBurst: owmRateBurst,

		DefaultLocation: envOrDefault("DEFAULT_LOCATION", "94043"),
		DisplayUnits:    envOrDefault("DISPLAY_UNITS", "metric"),

		StoreDriver: envOrDefault("STORE_DRIVER", "sqlite3"),
		StoreDSN:    envOrDefault("STORE_DSN", "file:sunshine.db?_fk=1"),

		KafkaBrokers:   kafkaBrokers,
		KafkaSyncTopic: envOrDefault("KAFKA_SYNC_TOPIC", "forecast-sync-events"),
		KafkaEnabled:   kafkaEnabled,
	}

	if cfg.OWMAPIKey == "" {
		return nil, errors.New("OWM_API_KEY is required")
	}
	if cfg.OWMUnits != "metric" && cfg.OWMUnits != "imperial" && cfg.OWMUnits != "standard" {
		return nil, errors.New("OWM_UNITS must be metric, imperial, or standard")
	}
	if cfg.DisplayUnits != "metric" && cfg.DisplayUnits != "imperial" {
		return nil, errors.New("DISPLAY_UNITS must be metric or imperial")
	}
	if cfg.StoreDriver != "sqlite3" && cfg.StoreDriver != "postgres" {
		return nil, errors.New("STORE_DRIVER must be sqlite3 or postgres")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseDays() (int, error) {
	n, err := strconv.Atoi(envOrDefault("OWM_DAYS", "14"))
	if err != nil || n < 1 || n > 16 {
		return 0, errors.New("OWM_DAYS must be between 1 and 16")
	}
	return n, nil
}

func parseRateLimit() (float64, error) {
	v, err := strconv.ParseFloat(envOrDefault("OWM_RATE_LIMIT", "1"), 64)
	if err != nil || v <= 0 {
		return 0, errors.New("OWM_RATE_LIMIT must be a positive number")
	}
	return v, nil
}

func parseRateBurst() (int, error) {
	n, err := strconv.Atoi(envOrDefault("OWM_RATE_BURST", "5"))
	if err != nil || n < 1 {
		return 0, errors.New("OWM_RATE_BURST must be a positive integer")
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
