package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nakurusafety/incident-analytics/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration
	Region           string

	BatchSize          int
	BatchFlushInterval time.Duration

	// Remote geocoding configuration.
	GeocodeEnabled   bool
	GeocodeBaseURL   string
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// Translation / remote language identification configuration.
	TranslateEnabled  bool
	TranslateBaseURL  string
	TranslateAPIKey   string
	LanguageCacheSize int

	// Scoring and analytics thresholds.
	Settings domain.Settings
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parsePositiveInt("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseDuration("BATCH_FLUSH_INTERVAL", "2s")
	if err != nil {
		return nil, err
	}

	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "8s")
	if err != nil {
		return nil, err
	}

	geocodeCacheSize, err := parsePositiveInt("GEOCODE_CACHE_SIZE", 500)
	if err != nil {
		return nil, err
	}

	languageCacheSize, err := parsePositiveInt("LANGUAGE_CACHE_SIZE", 200)
	if err != nil {
		return nil, err
	}

	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	geocodeEnabled := true
	if v := os.Getenv("GEOCODE_ENABLED"); v != "" {
		geocodeEnabled = v == "true"
	}

	translateBaseURL := os.Getenv("TRANSLATE_BASE_URL")
	translateEnabled := translateBaseURL != ""
	if v := os.Getenv("TRANSLATE_ENABLED"); v != "" {
		translateEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "raw-incident-reports"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "scored-incident-reports"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "incident-analytics"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		Region:             envOrDefault("REGION", "Nakuru County"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		GeocodeEnabled:   geocodeEnabled,
		GeocodeBaseURL:   envOrDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: geocodeCacheSize,

		TranslateEnabled:  translateEnabled,
		TranslateBaseURL:  translateBaseURL,
		TranslateAPIKey:   os.Getenv("TRANSLATE_API_KEY"),
		LanguageCacheSize: languageCacheSize,

		Settings: settings,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.TranslateEnabled && cfg.TranslateBaseURL == "" {
		return nil, errors.New("TRANSLATE_ENABLED is true but TRANSLATE_BASE_URL is not set")
	}

	return cfg, nil
}

// loadSettings reads the scoring thresholds, starting from the documented
// defaults.
func loadSettings() (domain.Settings, error) {
	s := domain.DefaultSettings()

	fields := []struct {
		env string
		dst *int
	}{
		{"SPAM_THRESHOLD", &s.SpamThreshold},
		{"AUTO_REJECT_THRESHOLD", &s.AutoRejectThreshold},
		{"CRITICAL_DENSITY_THRESHOLD", &s.CriticalDensityThreshold},
		{"HIGH_DENSITY_THRESHOLD", &s.HighDensityThreshold},
		{"MEDIUM_DENSITY_THRESHOLD", &s.MediumDensityThreshold},
		{"TREND_WINDOW_DAYS", &s.TrendWindowDays},
	}
	for _, f := range fields {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return domain.Settings{}, fmt.Errorf("invalid %s", f.env)
		}
		*f.dst = n
	}
	return s, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(value string) []string {
	parts := strings.Split(value, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if b := strings.TrimSpace(p); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
