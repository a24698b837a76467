package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-catalog/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	CatalogDir      string
	OutputDir       string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MetricsTextfile string

	// JMA listing source.
	JMABaseURL   string
	JMATimeout   time.Duration
	JMAUserAgent string

	// TargetDateOverride pins the listing date; zero means yesterday in JST.
	TargetDateOverride time.Time
	TargetRegion       string
	Profiles           []domain.Profile

	CatalogCacheSize int

	// Kafka publishing of ingested records.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	jmaTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("JMA_TIMEOUT", "30s"))
	if err != nil || jmaTimeout <= 0 {
		return nil, errors.New("invalid JMA_TIMEOUT")
	}

	var override time.Time
	if s := os.Getenv("TARGET_DATE"); s != "" {
		if override, err = ParseDate(s); err != nil {
			return nil, fmt.Errorf("invalid TARGET_DATE: %w", err)
		}
	}

	cacheSize, err := parsePositiveInt("CATALOG_CACHE_SIZE", 64)
	if err != nil {
		return nil, err
	}

	region := sharedcfg.EnvOrDefault("TARGET_REGION", domain.DefaultRegion)
	profiles := domain.DefaultProfiles(region)
	if path := os.Getenv("PROFILES_FILE"); path != "" {
		if profiles, err = LoadProfiles(path, region); err != nil {
			return nil, fmt.Errorf("invalid PROFILES_FILE: %w", err)
		}
	}

	kafkaEnabled := os.Getenv("KAFKA_BROKERS") != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		CatalogDir:      sharedcfg.EnvOrDefault("CATALOG_DIR", "data"),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "output"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),

		JMABaseURL:   sharedcfg.EnvOrDefault("JMA_BASE_URL", "https://www.data.jma.go.jp/eqev/data/daily_map"),
		JMATimeout:   jmaTimeout,
		JMAUserAgent: sharedcfg.EnvOrDefault("JMA_USER_AGENT", "Mozilla/5.0"),

		TargetDateOverride: override,
		TargetRegion:       region,
		Profiles:           profiles,
		CatalogCacheSize:   cacheSize,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "jma-earthquakes"),
	}

	if cfg.CatalogDir == "" {
		return nil, errors.New("CATALOG_DIR is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when Kafka is enabled")
	}

	return cfg, nil
}

// TargetDate returns the listing date to ingest: the override when set,
// otherwise the day before today in JST according to clk.
func (c *Config) TargetDate(clk clockwork.Clock) time.Time {
	if !c.TargetDateOverride.IsZero() {
		return c.TargetDateOverride
	}
	now := clk.Now().In(domain.JST)
	return time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, domain.JST)
}

// Profile looks up a profile by name.
func (c *Config) Profile(name string) (domain.Profile, bool) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return domain.Profile{}, false
}

// ParseDate parses a YYYYMMDD listing date as midnight JST.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("20060102", s, domain.JST)
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYYMMDD, got %q", s)
	}
	return t, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
