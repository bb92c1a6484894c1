package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment    string
	HTTPAddr       string
	DBDSN          string
	MigrationsPath string

	TelegramToken       string
	TelegramAdminChatID int64

	RabbitMQURL string
	EventsQueue string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimit RateLimitConfig

	AutoCompleteInterval time.Duration

	GridStartHour int
	GridHours     int
}

// RateLimitConfig настройки token bucket на IP клиента
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillInterval time.Duration
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		Environment:    envStr("ENV", "development"),
		HTTPAddr:       envStr("HTTP_ADDR", ":8080"),
		DBDSN:          os.Getenv("DB_DSN"),
		MigrationsPath: envStr("MIGRATIONS_PATH", "migrations"),

		TelegramToken:       os.Getenv("TELEGRAM_TOKEN"),
		TelegramAdminChatID: envInt64("TELEGRAM_ADMIN_CHAT_ID", 0),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		EventsQueue: envStr("EVENTS_QUEUE", "appointments.events"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		RateLimit: RateLimitConfig{
			Enabled:        envBool("RATE_LIMIT_ENABLED", true),
			Capacity:       envInt("RATE_LIMIT_CAPACITY", 20),
			RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		},

		AutoCompleteInterval: envDur("AUTO_COMPLETE_INTERVAL", 15*time.Minute),

		GridStartHour: envInt("GRID_START_HOUR", 6),
		GridHours:     envInt("GRID_HOURS", 14),
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.RateLimit.Capacity <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_CAPACITY must be positive")
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_REFILL_INTERVAL must be positive")
	}
	if cfg.AutoCompleteInterval < 0 {
		return nil, fmt.Errorf("AUTO_COMPLETE_INTERVAL must not be negative")
	}

	log.Printf("Config loaded\n")

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
