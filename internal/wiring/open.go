package wiring

import (
	"context"
	"fmt"

	"wallet-ledger/config"
	"wallet-ledger/internal/adapter/storage/memory"
	"wallet-ledger/internal/adapter/storage/postgres"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// OpenRepositories connects the configured store. The returned func releases
// it.
func OpenRepositories(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (Repositories, func(), error) {
	switch cfg.Driver {
	case "memory":
		log.Warn().Msg("database.driver=memory: data is lost on restart")
		return MemoryRepositories(memory.NewStore()), func() {}, nil
	case "postgres", "":
		pool, err := postgres.NewPool(ctx, cfg, log)
		if err != nil {
			return Repositories{}, nil, err
		}
		return PostgresRepositories(pool), pool.Close, nil
	default:
		return Repositories{}, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// OpenRedis connects Redis, or returns nil when it is disabled.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	if !cfg.Enabled {
		log.Warn().Msg("redis disabled: no rate limiting, idempotency cache or token replay protection")
		return nil, nil
	}
	return redisStorage.NewClient(ctx, cfg, log)
}
