package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string
	LogLevel   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ScrapeBaseURL string
	UserAgent     string

	WorkerCount       int
	RateLimitPerSec   int
	MaxAttempts       int
	RetryBaseDelay    time.Duration
	CourtesyDelay     time.Duration
	FetchTimeout      time.Duration
	QueuePollInterval time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		PostgresHost:      getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:      getEnv("POSTGRES_USER", "user"),
		PostgresPassword:  getEnv("POSTGRES_PASSWORD", "password"),
		PostgresDB:        getEnv("POSTGRES_DB", "catalog"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		ScrapeBaseURL:     getEnv("SCRAPE_BASE_URL", "https://www.worldofbooks.com"),
		UserAgent:         getEnv("SCRAPE_USER_AGENT", "CatalogExplorer/1.0 (+http://localhost:3000)"),
		WorkerCount:       getEnvAsInt("WORKER_COUNT", 2),
		RateLimitPerSec:   getEnvAsInt("RATE_LIMIT_PER_SEC", 10),
		MaxAttempts:       getEnvAsInt("MAX_ATTEMPTS", 3),
		RetryBaseDelay:    getEnvAsDuration("RETRY_BASE_DELAY_SECONDS", 5) * time.Second,
		CourtesyDelay:     getEnvAsDuration("COURTESY_DELAY_SECONDS", 2) * time.Second,
		FetchTimeout:      getEnvAsDuration("FETCH_TIMEOUT_SECONDS", 60) * time.Second,
		QueuePollInterval: getEnvAsDuration("QUEUE_POLL_INTERVAL_MS", 250) * time.Millisecond,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback))
}
