// Package config reads service configuration from the environment. A .env file
// in the working directory is loaded first when present; real environment
// variables win over it.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string
	DatabaseURL     string
	AutoMigrate     bool
	LogLevel        string
	ModeratorToken  string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitBurst    int

	ObjectStore ObjectStoreConfig
	Kafka       KafkaConfig
	Outbox      OutboxConfig
}

type ObjectStoreConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type OutboxConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Load reads the configuration, applying local development defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        getString("SHORTFEED_HTTP_ADDR", ":8081"),
		DatabaseURL:     getString("DATABASE_URL", ""),
		AutoMigrate:     getBool("SHORTFEED_AUTO_MIGRATE", false),
		LogLevel:        getString("SHORTFEED_LOG_LEVEL", "info"),
		ModeratorToken:  getString("SHORTFEED_MODERATOR_TOKEN", ""),
		MaxUploadBytes:  getInt64("SHORTFEED_MAX_UPLOAD_BYTES", 50<<20),
		ShutdownTimeout: getDuration("SHORTFEED_SHUTDOWN_TIMEOUT", 10*time.Second),

		RateLimitRequests: getInt("SHORTFEED_RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getDuration("SHORTFEED_RATE_LIMIT_WINDOW", time.Minute),
		RateLimitBurst:    getInt("SHORTFEED_RATE_LIMIT_BURST", 10),

		ObjectStore: ObjectStoreConfig{
			Bucket:        getString("SHORTFEED_S3_BUCKET", "videos"),
			Region:        getString("SHORTFEED_S3_REGION", "us-east-1"),
			Endpoint:      getString("SHORTFEED_S3_ENDPOINT", ""),
			PublicBaseURL: getString("SHORTFEED_S3_PUBLIC_BASE_URL", ""),
		},
		Kafka: KafkaConfig{
			Brokers: getList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getString("SHORTFEED_KAFKA_TOPIC", "video-status"),
		},
		Outbox: OutboxConfig{
			Interval:  getDuration("SHORTFEED_OUTBOX_INTERVAL", time.Second),
			BatchSize: getInt("SHORTFEED_OUTBOX_BATCH_SIZE", 100),
		},
	}

	return cfg, nil
}

// RequireDatabase reports a missing DATABASE_URL.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is empty")
	}
	return nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
