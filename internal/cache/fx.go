package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/astrolabe/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("cache",
	fx.Provide(NewChartCache),
)

// NewChartCache selects the chart cache backend from configuration.
func NewChartCache(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) ChartCache {
	if !cfg.Cache.Enabled {
		return NewNoopChartCache()
	}
	if cfg.Cache.Backend != config.CacheBackendRedis {
		return NewMemoryChartCache(cfg.Cache.TTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := client.Ping(pingCtx).Err(); err != nil {
				log.Warn("redis chart cache unreachable, lookups will miss",
					zap.String("addr", cfg.Cache.RedisAddr),
					zap.Error(err),
				)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisChartCache(client, cfg.Cache.TTL, log)
}
