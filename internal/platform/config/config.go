package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration. Everything is explicit and
// passed into constructors; no package keeps ambient settings.
type Server struct {
	Addr string

	Postgres PostgresConfig
	Redis    RedisConfig

	// StoreTimeout bounds every counter and registry round-trip. A timed-out
	// call is treated as a store failure, never as silent success.
	StoreTimeout time.Duration

	Keys  KeysConfig
	Audit AuditConfig
}

// PostgresConfig holds relational store settings.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig holds key-value store settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KeysConfig holds API key registry defaults.
type KeysConfig struct {
	DefaultQuotaPerMinute int
	DefaultQuotaPerDay    int
	CacheTTL              time.Duration
	NegativeCacheTTL      time.Duration
}

// AuditConfig holds audit sink settings.
type AuditConfig struct {
	BufferSize int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr: envString("HAWIYA_ADDR", ":8080"),
		Postgres: PostgresConfig{
			DSN:          os.Getenv("HAWIYA_POSTGRES_DSN"),
			MaxOpenConns: envInt("HAWIYA_POSTGRES_MAX_OPEN", 10),
			MaxIdleConns: envInt("HAWIYA_POSTGRES_MAX_IDLE", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("HAWIYA_REDIS_URL"),
			PoolSize:     envInt("HAWIYA_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("HAWIYA_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("HAWIYA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("HAWIYA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("HAWIYA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		StoreTimeout: envDuration("HAWIYA_STORE_TIMEOUT", 2*time.Second),
		Keys: KeysConfig{
			DefaultQuotaPerMinute: envInt("HAWIYA_DEFAULT_QUOTA_MINUTE", 60),
			DefaultQuotaPerDay:    envInt("HAWIYA_DEFAULT_QUOTA_DAY", 1000),
			CacheTTL:              envDuration("HAWIYA_KEY_CACHE_TTL", 5*time.Minute),
			NegativeCacheTTL:      envDuration("HAWIYA_KEY_NEGATIVE_CACHE_TTL", time.Minute),
		},
		Audit: AuditConfig{
			BufferSize: envInt("HAWIYA_AUDIT_BUFFER", 1024),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
