// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// Redis captures result-cache connection settings. An empty URL disables
// Redis and falls back to the in-memory cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres captures store connection settings. An empty DSN keeps the
// in-memory stores.
type Postgres struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Kafka captures broker settings for the ingest consumer and alert feed. An
// empty seed list disables both.
type Kafka struct {
	Seeds         []string
	ConsumerGroup string
	ProcessTopic  string
	AlertTopic    string
}

// Monitor captures the monitoring loop's tunables.
type Monitor struct {
	SweepInterval time.Duration
	SweepFanout   int
	WorkerLimit   int64
	CacheTTL      time.Duration
}

// Config is the full runtime configuration.
type Config struct {
	Server   Server
	Redis    Redis
	Postgres Postgres
	Kafka    Kafka
	Monitor  Monitor
}

// FromEnv assembles the configuration with development defaults; production
// deployments override via environment.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envString("FAIRGATE_ADDR", ":8080"),
			JWTSigningKey: envString("FAIRGATE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Redis: Redis{
			URL:          os.Getenv("FAIRGATE_REDIS_URL"),
			PoolSize:     envInt("FAIRGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("FAIRGATE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("FAIRGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("FAIRGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("FAIRGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: Postgres{
			DSN:          os.Getenv("FAIRGATE_POSTGRES_DSN"),
			MaxOpenConns: envInt("FAIRGATE_POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("FAIRGATE_POSTGRES_MAX_IDLE_CONNS", 5),
		},
		Kafka: Kafka{
			Seeds:         envList("FAIRGATE_KAFKA_SEEDS"),
			ConsumerGroup: envString("FAIRGATE_KAFKA_GROUP", "fairgate-monitor"),
			ProcessTopic:  envString("FAIRGATE_KAFKA_PROCESS_TOPIC", "hiring.process.completed"),
			AlertTopic:    envString("FAIRGATE_KAFKA_ALERT_TOPIC", "fairness.alerts"),
		},
		Monitor: Monitor{
			SweepInterval: envDuration("FAIRGATE_SWEEP_INTERVAL", time.Hour),
			SweepFanout:   envInt("FAIRGATE_SWEEP_FANOUT", 4),
			WorkerLimit:   int64(envInt("FAIRGATE_WORKER_LIMIT", 4)),
			CacheTTL:      envDuration("FAIRGATE_CACHE_TTL", 5*time.Minute),
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

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
