package cache

import (
	"context"
	"testing"
	"time"

	enginedomain "github.com/smallbiznis/astrolabe/internal/engine/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache[string, int]()
	c.now = func() time.Time { return now }

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestTTLCacheBoundsSize(t *testing.T) {
	c := NewTTLCache[int, int]()
	c.maxEntries = 3
	for i := 0; i < 10; i++ {
		c.Set(i, i, time.Hour)
	}
	assert.LessOrEqual(t, c.Len(), 3)
}

func TestMemoryChartCacheIsVariantScoped(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryChartCache(time.Hour)
	key := ChartKey{Variant: enginedomain.VariantReal, SolarDate: "20000816", TimeIndex: 2, Gender: "female", FixLeap: true, Language: "zh-CN"}

	c.Set(ctx, key, enginedomain.ChartData{"solarDate": "2000-8-16"})

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "2000-8-16", got["solarDate"])

	degradedKey := key
	degradedKey.Variant = enginedomain.VariantDegraded
	_, ok = c.Get(ctx, degradedKey)
	assert.False(t, ok)

	otherLanguage := key
	otherLanguage.Language = "en-US"
	_, ok = c.Get(ctx, otherLanguage)
	assert.False(t, ok)
}

func TestNoopChartCache(t *testing.T) {
	c := NewNoopChartCache()
	c.Set(context.Background(), ChartKey{}, enginedomain.ChartData{"a": 1})
	_, ok := c.Get(context.Background(), ChartKey{})
	assert.False(t, ok)
}

func TestChartKeyString(t *testing.T) {
	key := ChartKey{Variant: enginedomain.VariantDegraded, SolarDate: "20000816", TimeIndex: 2, Gender: "female", FixLeap: false, Language: "en-US"}
	assert.Equal(t, "astrolabe:natal:degraded:20000816:2:female:false:en-US", key.String())
}
