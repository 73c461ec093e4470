package cache

import (
	"context"
	"fmt"
	"time"

	enginedomain "github.com/smallbiznis/astrolabe/internal/engine/domain"
)

// ChartKey addresses a cached natal chart. The engine variant is part of the key
// so artifacts of one variant are never served for another.
type ChartKey struct {
	Variant   enginedomain.Variant
	SolarDate string
	TimeIndex int
	Gender    string
	FixLeap   bool
	Language  string
}

func (k ChartKey) String() string {
	return fmt.Sprintf("astrolabe:natal:%s:%s:%d:%s:%t:%s", k.Variant, k.SolarDate, k.TimeIndex, k.Gender, k.FixLeap, k.Language)
}

// ChartCache memoizes computed natal charts. Lookups never fail; a backend
// error reads as a miss.
type ChartCache interface {
	Get(ctx context.Context, key ChartKey) (enginedomain.ChartData, bool)
	Set(ctx context.Context, key ChartKey, chart enginedomain.ChartData)
}

type memoryChartCache struct {
	charts Cache[ChartKey, enginedomain.ChartData]
	ttl    time.Duration
}

// NewMemoryChartCache keeps charts in process memory for ttl.
func NewMemoryChartCache(ttl time.Duration) ChartCache {
	return &memoryChartCache{
		charts: NewTTLCache[ChartKey, enginedomain.ChartData](),
		ttl:    ttl,
	}
}

func (c *memoryChartCache) Get(_ context.Context, key ChartKey) (enginedomain.ChartData, bool) {
	return c.charts.Get(key)
}

func (c *memoryChartCache) Set(_ context.Context, key ChartKey, chart enginedomain.ChartData) {
	if chart == nil {
		return
	}
	c.charts.Set(key, chart, c.ttl)
}

type noopChartCache struct{}

// NewNoopChartCache returns a cache that never stores anything.
func NewNoopChartCache() ChartCache { return noopChartCache{} }

func (noopChartCache) Get(context.Context, ChartKey) (enginedomain.ChartData, bool) { return nil, false }

func (noopChartCache) Set(context.Context, ChartKey, enginedomain.ChartData) {}
