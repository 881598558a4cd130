// Command seed loads the demo fonda catalog into the configured store.
package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	"github.com/fondapos/core/internal/config"
	"github.com/fondapos/core/internal/logger"
	"github.com/fondapos/core/internal/store"
	"github.com/fondapos/core/internal/store/memory"
	"github.com/fondapos/core/internal/store/postgres"
	"github.com/fondapos/core/internal/store/redisstore"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("seed", "info")
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New("seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var target store.Store
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		defer pg.Close()
		target = pg
	case config.BackendRedis:
		rd := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rd.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		defer rd.Close()
		target = rd
	default:
		log.Warn().Msg("memory backend does not persist; seeding it only validates the catalog")
		target = memory.New()
	}

	if err := store.Seed(ctx, target); err != nil {
		log.Fatal().Err(err).Msg("seed catalog")
	}

	log.Info().Str("backend", cfg.StoreBackend).Msg("catalog seeded")
}
