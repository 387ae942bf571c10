package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultHTTPAddr      = ":8080"
	DefaultAuditQueue    = "rescue:audit"
	DefaultAuditExchange = "rescue.audit"
)

type RedisConfig struct {
	Addr        string
	User        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	Redis       RedisConfig
	RabbitMQURL string
	// AuditQueue is the Redis list key audit events are pushed to.
	AuditQueue    string
	AuditExchange string
	JWTSecret     string
	// AllowDevSecret lets the server start without JWT_SECRET, signing with
	// the public development secret. Local use only.
	AllowDevSecret bool
	LogLevel       string
	// FallbackPositions is the raw "lat,lng;lat,lng" list; empty selects the
	// built-in reference points.
	FallbackPositions string
}

// Load reads an optional .env file and then the process environment.
// It reports whether a .env file was found.
func Load() (Config, bool) {
	found := godotenv.Load() == nil

	cfg := Config{
		HTTPAddr:          getEnv("HTTP_ADDR", DefaultHTTPAddr),
		DatabaseURL:       GetDBURL(),
		Redis:             GetRedisConfig(),
		RabbitMQURL:       os.Getenv("RABBITMQ_URL"),
		AuditQueue:        getEnv("AUDIT_QUEUE", DefaultAuditQueue),
		AuditExchange:     getEnv("AUDIT_EXCHANGE", DefaultAuditExchange),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AllowDevSecret:    getEnvBool("ALLOW_DEV_SECRET", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		FallbackPositions: os.Getenv("FALLBACK_POSITIONS"),
	}
	return cfg, found
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is empty; set it or ALLOW_DEV_SECRET=true for local development")

// CheckSecrets reports configuration the server must not start with.
func (c Config) CheckSecrets() error {
	if strings.TrimSpace(c.JWTSecret) == "" && !c.AllowDevSecret {
		return ErrMissingJWTSecret
	}
	return nil
}

func GetDBURL() string {
	dbURL := os.Getenv("DATABASE_URL")
	return dbURL
}

func GetRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:        os.Getenv("REDIS_ADDR"),
		User:        os.Getenv("REDIS_USER"),
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          getEnvInt("REDIS_DB", 0),
		MaxRetries:  getEnvInt("REDIS_MAX_RETRIES", 0),
		DialTimeout: getEnvDuration("REDIS_DIAL_TIMEOUT", 0),
		Timeout:     getEnvDuration("REDIS_TIMEOUT", 0),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
