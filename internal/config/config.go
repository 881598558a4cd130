// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// StoreBackend selects where catalog and sales are persisted:
	// memory, redis or postgres.
	StoreBackend string `envconfig:"STORE_BACKEND" default:"memory"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	KDSEnabled         bool          `envconfig:"KDS_ENABLED" default:"false"`
	KDSURL             string        `envconfig:"KDS_URL"`
	KDSPollInterval    time.Duration `envconfig:"KDS_POLL_INTERVAL" default:"15s"`
	KDSReconnectDelay  time.Duration `envconfig:"KDS_RECONNECT_DELAY" default:"5s"`
	KDSCompletedLinger time.Duration `envconfig:"KDS_COMPLETED_LINGER" default:"4s"`
}

// Load reads FONDAPOS_-prefixed environment variables into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("fondapos", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if cfg.StoreBackend == BackendPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("FONDAPOS_DATABASE_URL is required for the postgres backend")
	}
	return &cfg, nil
}
