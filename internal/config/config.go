package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort          = "8080"
	defaultDatabaseURL   = "file:trainingdesk.db?cache=shared"
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultJWTIssuer     = "trainingdesk"
	defaultJWTAccessTTL  = "12h"
	defaultAMQPQueue     = "training_sessions.events"
	defaultMaxOpenConns  = "10"
	defaultShutdownGrace = "10s"
)

type Config struct {
	AppEnv string
	Port   string

	// DatabaseURL is a Postgres DSN ("postgres://..." or "host=...") or a SQLite path/URI.
	DatabaseURL  string
	MaxOpenConns int
	AutoMigrate  bool

	JWTSecret    string
	JWTIssuer    string
	JWTAccessTTL time.Duration

	// AMQPURL empty disables event publishing to the broker.
	AMQPURL   string
	AMQPQueue string

	CORSOrigins   []string
	ShutdownGrace time.Duration
}

// Load reads the configuration from the environment. Callers load .env first.
func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.AutoMigrate = parseBoolEnv("DB_AUTO_MIGRATE", "true")
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.JWTIssuer = strings.TrimSpace(getEnv("JWT_ISSUER", defaultJWTIssuer))
	cfg.AMQPURL = strings.TrimSpace(getEnv("RABBITMQ_URL", os.Getenv("AMQP_URL")))
	cfg.AMQPQueue = strings.TrimSpace(getEnv("RABBITMQ_QUEUE", defaultAMQPQueue))
	cfg.CORSOrigins = parseListEnv("CORS_ORIGINS")

	var err error
	cfg.MaxOpenConns, err = parseIntEnv("DB_MAX_OPEN_CONNS", defaultMaxOpenConns)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}
	cfg.ShutdownGrace, err = parseDurationEnv("SHUTDOWN_GRACE", defaultShutdownGrace)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s port=%s db=%s amqp=%t", cfg.AppEnv, cfg.Port, cfg.DatabaseKind(), cfg.AMQPURL != "")
	return cfg, nil
}

// DatabaseKind is "postgres" or "sqlite", derived from DatabaseURL.
func (c *Config) DatabaseKind() string {
	return DatabaseKind(c.DatabaseURL)
}

func DatabaseKind(dsn string) string {
	d := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(d, "postgres://") || strings.HasPrefix(d, "postgresql://") || strings.Contains(d, "host=") {
		return "postgres"
	}
	return "sqlite"
}

func (c *Config) IsProd() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be > 0")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.ShutdownGrace <= 0 {
		return fmt.Errorf("SHUTDOWN_GRACE must be > 0")
	}
	if cfg.AMQPURL != "" && cfg.AMQPQueue == "" {
		return fmt.Errorf("RABBITMQ_QUEUE must not be empty when RABBITMQ_URL is set")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.DatabaseKind() != "postgres" {
			return fmt.Errorf("in prod/release DATABASE_URL must point to Postgres")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func parseListEnv(name string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
