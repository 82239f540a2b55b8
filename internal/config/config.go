package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Record store. An empty DatabaseURL selects the in-memory store.
	DatabaseURL string
	SeedOnStart bool

	// Kafka ingestion and prediction events.
	IngestEnabled         bool
	KafkaBrokers          []string
	KafkaObservationTopic string
	KafkaPredictionTopic  string
	KafkaGroupID          string

	BatchSize          int
	BatchFlushInterval time.Duration

	// API rate limiting. RateLimitRPS of 0 disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	seedOnStart, err := parseBool("SEED_ON_START", true)
	if err != nil {
		return nil, err
	}

	ingestEnabled, err := parseBool("INGEST_ENABLED", false)
	if err != nil {
		return nil, err
	}

	rps, burst, err := parseRateLimit()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseURL: os.Getenv("DATABASE_URL"),
		SeedOnStart: seedOnStart,

		IngestEnabled:         ingestEnabled,
		KafkaBrokers:          sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaObservationTopic: sharedcfg.EnvOrDefault("KAFKA_OBSERVATION_TOPIC", "flood-observations"),
		KafkaPredictionTopic:  os.Getenv("KAFKA_PREDICTION_TOPIC"),
		KafkaGroupID:          sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "flood-risk"),

		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	}

	usesKafka := cfg.IngestEnabled || cfg.KafkaPredictionTopic != ""
	if usesKafka && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.IngestEnabled && cfg.KafkaObservationTopic == "" {
		return nil, errors.New("KAFKA_OBSERVATION_TOPIC is required when INGEST_ENABLED is true")
	}
	if cfg.IngestEnabled && cfg.KafkaGroupID == "" {
		return nil, errors.New("KAFKA_GROUP_ID is required when INGEST_ENABLED is true")
	}

	return cfg, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseRateLimit() (float64, int, error) {
	rps, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("RATE_LIMIT_RPS", "20"), 64)
	if err != nil || rps < 0 {
		return 0, 0, errors.New("invalid RATE_LIMIT_RPS")
	}
	burst, err := strconv.Atoi(sharedcfg.EnvOrDefault("RATE_LIMIT_BURST", "40"))
	if err != nil || burst < 0 {
		return 0, 0, errors.New("invalid RATE_LIMIT_BURST")
	}
	if rps > 0 && burst == 0 {
		return 0, 0, errors.New("RATE_LIMIT_BURST must be positive when RATE_LIMIT_RPS is set")
	}
	return rps, burst, nil
}
