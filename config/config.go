package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Market selects which parameterization the binaries run under
	// ("spot" or "futures").
	Market string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string
	MaxOpenConns  int
	MaxIdleConns  int
	MetricsAddr   string

	// AWS (durable queue)
	AWSRegion   string
	AWSEndpoint string

	// Pipeline
	Intervals      string // comma-separated, e.g. "30m,1h"
	FlushGrace     time.Duration
	StageLockTTL   time.Duration
	PlanLockTTL    time.Duration
	IndicatorGrace time.Duration
	SweepEvery     time.Duration

	// Plans
	OrderAmount   float64
	LookbackSteps int

	// Placement
	PollBackoff   time.Duration
	MaxPlanAge    time.Duration
	MaxPriceDrift float64

	// Notifications (all optional; unset channels are skipped)
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	return &Config{
		Market: getEnv("MARKET", "spot"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		PostgresDSN:   mustEnv("POSTGRES_DSN"),
		MaxOpenConns:  getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
		MaxIdleConns:  getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint: getEnv("AWS_ENDPOINT", ""),

		Intervals:      getEnv("INTERVALS", "30m,1h"),
		FlushGrace:     getEnvDuration("FLUSH_GRACE", 60*time.Second),
		StageLockTTL:   getEnvDuration("STAGE_LOCK_TTL", 30*time.Second),
		PlanLockTTL:    getEnvDuration("PLAN_LOCK_TTL", 10*time.Minute),
		IndicatorGrace: getEnvDuration("INDICATOR_TTL_GRACE", 5*time.Minute),
		SweepEvery:     getEnvDuration("SWEEP_EVERY", 5*time.Second),

		OrderAmount:   getEnvFloat("ORDER_AMOUNT", 100),
		LookbackSteps: getEnvInt("PLAN_LOOKBACK_STEPS", 2),

		PollBackoff:   getEnvDuration("QUEUE_POLL_BACKOFF", 500*time.Millisecond),
		MaxPlanAge:    getEnvDuration("MAX_PLAN_AGE", 15*time.Minute),
		MaxPriceDrift: getEnvFloat("MAX_PRICE_DRIFT", 0.01),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}
}

// ParseIntervals splits the Intervals string into interval names.
func (c *Config) ParseIntervals() []string {
	parts := strings.Split(c.Intervals, ",")
	intervals := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		intervals = append(intervals, p)
	}
	return intervals
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
