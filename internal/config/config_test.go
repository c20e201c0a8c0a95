package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "ENV", "PORT", "DATABASE_URL", "DB_AUTO_MIGRATE", "DB_MAX_OPEN_CONNS",
		"JWT_SECRET", "JWT_ISSUER", "JWT_ACCESS_TTL", "RABBITMQ_URL", "AMQP_URL",
		"RABBITMQ_QUEUE", "CORS_ORIGINS", "SHUTDOWN_GRACE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseKind())
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 12*time.Hour, cfg.JWTAccessTTL)
	assert.Empty(t, cfg.AMQPURL)
	assert.Nil(t, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://desk:secret@db:5432/desk?sslmode=disable")
	t.Setenv("JWT_ACCESS_TTL", "30m")
	t.Setenv("AMQP_URL", "amqp://guest:guest@mq:5672/")
	t.Setenv("CORS_ORIGINS", "http://desk.local, http://trainer.local,")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DatabaseKind())
	assert.Equal(t, 30*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.AMQPURL)
	assert.Equal(t, []string{"http://desk.local", "http://trainer.local"}, cfg.CORSOrigins)
	assert.False(t, cfg.AutoMigrate)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad ttl", map[string]string{"JWT_ACCESS_TTL": "soon"}},
		{"zero ttl", map[string]string{"JWT_ACCESS_TTL": "0s"}},
		{"bad conns", map[string]string{"DB_MAX_OPEN_CONNS": "many"}},
		{"prod default secret", map[string]string{"APP_ENV": "production", "DATABASE_URL": "postgres://x"}},
		{"prod sqlite", map[string]string{"APP_ENV": "prod", "JWT_SECRET": "real", "DATABASE_URL": "desk.db"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseKind(t *testing.T) {
	assert.Equal(t, "postgres", DatabaseKind("postgresql://u@h/db"))
	assert.Equal(t, "postgres", DatabaseKind("host=localhost user=desk dbname=desk"))
	assert.Equal(t, "sqlite", DatabaseKind(":memory:"))
	assert.Equal(t, "sqlite", DatabaseKind("file:desk.db?cache=shared"))
}
