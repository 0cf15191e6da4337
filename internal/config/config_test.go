package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com/api/v1/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://api.example.com/api/v1", cfg.BackendBaseURL)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.False(t, cfg.FamilyPackEnabled)
	assert.Equal(t, 750.0, cfg.FamilyPackDiscount)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("FAMILY_PACK_ENABLED", "true")
	t.Setenv("STORE_BACKEND", "REDIS")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.True(t, cfg.FamilyPackEnabled)
	assert.Equal(t, "redis", cfg.StoreBackend)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing jwt secret":      {},
		"unknown store backend":   {"JWT_SECRET": "s", "STORE_BACKEND": "sqlite"},
		"postgres without dsn":    {"JWT_SECRET": "s", "STORE_BACKEND": "postgres"},
		"malformed timeout":       {"JWT_SECRET": "s", "BACKEND_TIMEOUT": "soon"},
		"malformed feature flag":  {"JWT_SECRET": "s", "FAMILY_PACK_ENABLED": "maybe"},
		"malformed pack discount": {"JWT_SECRET": "s", "FAMILY_PACK_DISCOUNT": "a lot"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
