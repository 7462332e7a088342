// Package config loads service settings from environment variables, with a
// .env file honored in development.
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
	AllowedOrigins  string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DatabaseDSN string
	DBDebug     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	KafkaBrokers      []string
	KafkaIngestTopic  string
	KafkaAlertTopic   string
	KafkaGroupID      string
	IngestEnabled     bool
	BatchSize         int
	BatchFlushTimeout time.Duration

	// Weather provider configuration.
	WeatherBaseURL string
	WeatherTimeout time.Duration

	// Geocoding configuration.
	GeocodeBaseURL   string
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// Market price provider configuration.
	PriceBaseURL string
	PriceTimeout time.Duration

	// SMTP notification configuration.
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPEnabled  bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first when
// present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration("WEATHER_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	priceTimeout, err := parseDuration("PRICE_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	flushTimeout, err := parseDuration("BATCH_FLUSH_TIMEOUT", "1s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		AllowedOrigins:  envOrDefault("CORS_ALLOWED_ORIGINS", "*"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		DBDebug:     envBool("DB_DEBUG", false),

		RedisAddr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		CacheTTL:      cacheTTL,

		KafkaBrokers:      parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaIngestTopic:  envOrDefault("KAFKA_INGEST_TOPIC", "station-observations"),
		KafkaAlertTopic:   envOrDefault("KAFKA_ALERT_TOPIC", "farm-alerts"),
		KafkaGroupID:      envOrDefault("KAFKA_GROUP_ID", "agrialert-ingest"),
		IngestEnabled:     envBool("INGEST_ENABLED", false),
		BatchSize:         envInt("BATCH_SIZE", 50),
		BatchFlushTimeout: flushTimeout,

		WeatherBaseURL: envOrDefault("WEATHER_API_URL", "https://api.open-meteo.com/v1"),
		WeatherTimeout: weatherTimeout,

		GeocodeBaseURL:   envOrDefault("GEOCODE_API_URL", "https://nominatim.openstreetmap.org"),
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: envInt("GEOCODE_CACHE_SIZE", 1000),

		PriceBaseURL: os.Getenv("PRICE_API_URL"),
		PriceTimeout: priceTimeout,

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     envOrDefault("SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
	}
	cfg.SMTPEnabled = cfg.SMTPHost != ""
	if v := os.Getenv("SMTP_ENABLED"); v != "" {
		cfg.SMTPEnabled = v == "true"
	}

	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}
	if cfg.IngestEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("INGEST_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.BatchSize <= 0 {
		return nil, errors.New("BATCH_SIZE must be positive")
	}
	if cfg.SMTPEnabled && cfg.SMTPFrom == "" {
		return nil, errors.New("SMTP_ENABLED is true but SMTP_FROM is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
