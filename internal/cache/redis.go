package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang/snappy"
	"github.com/redis/go-redis/v9"
	enginedomain "github.com/smallbiznis/astrolabe/internal/engine/domain"
	"go.uber.org/zap"
)

type redisChartCache struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisChartCache stores snappy-compressed JSON charts in redis.
func NewRedisChartCache(client redis.Cmdable, ttl time.Duration, log *zap.Logger) ChartCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &redisChartCache{client: client, ttl: ttl, log: log.Named("cache.redis")}
}

func (c *redisChartCache) Get(ctx context.Context, key ChartKey) (enginedomain.ChartData, bool) {
	raw, err := c.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("chart cache read failed", zap.Error(err))
		}
		return nil, false
	}

	decoded, err := snappy.Decode(nil, raw)
	if err != nil {
		c.log.Warn("chart cache entry corrupt", zap.Error(err))
		return nil, false
	}
	var chart enginedomain.ChartData
	if err := json.Unmarshal(decoded, &chart); err != nil {
		c.log.Warn("chart cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return chart, true
}

func (c *redisChartCache) Set(ctx context.Context, key ChartKey, chart enginedomain.ChartData) {
	if chart == nil {
		return
	}
	payload, err := json.Marshal(chart)
	if err != nil {
		c.log.Warn("chart cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key.String(), snappy.Encode(nil, payload), c.ttl).Err(); err != nil {
		c.log.Warn("chart cache write failed", zap.Error(err))
	}
}
