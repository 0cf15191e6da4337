package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the storefront service.
type Config struct {
	Port string

	BackendBaseURL string
	BackendTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	QueryCacheTTL time.Duration

	// StoreBackend selects where session state lives: memory, redis or postgres.
	StoreBackend string
	DatabaseURL  string

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret      string
	JaegerEndpoint string
	SessionCookie  string

	FamilyPackEnabled  bool
	FamilyPackDiscount float64
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is fine in containers where the environment is injected.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("APP_PORT", "8080"),
		BackendBaseURL: strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:5000/api/v1"), "/"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", "memory")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "storefront_notifications"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),
		SessionCookie:  getEnv("SESSION_COOKIE", "sf_session"),
	}

	var err error
	if cfg.BackendTimeout, err = getDuration("BACKEND_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.QueryCacheTTL, err = getDuration("QUERY_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.FamilyPackEnabled, err = getBool("FAMILY_PACK_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.FamilyPackDiscount, err = getFloat("FAMILY_PACK_DISCOUNT", 750); err != nil {
		return nil, err
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, redis, postgres (got %q)", c.StoreBackend)
	}
	if c.StoreBackend == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("STORE_BACKEND=redis requires REDIS_ADDR")
	}
	if c.StoreBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required for the admin dashboard")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
