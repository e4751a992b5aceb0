package redis

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/metrics"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// --- In-memory layer unit tests (no Redis needed) ---

func TestMemoryCache_HitAndExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := newMemoryCache(10*time.Second, clock)

	_, hit := cache.get("missing")
	assert.False(t, hit)

	cache.set("k", []byte("v"))
	value, hit := cache.get("k")
	require.True(t, hit)
	assert.Equal(t, []byte("v"), value)

	clock.Advance(11 * time.Second)
	_, hit = cache.get("k")
	assert.False(t, hit, "expired entry is a miss")
	assert.Equal(t, 1, cache.size(), "expired entry stays until evicted")
	assert.Equal(t, 1, cache.evictExpired())
	assert.Equal(t, 0, cache.size())
}

func TestMemoryCache_ZeroTTLDisablesCaching(t *testing.T) {
	cache := newMemoryCache(0, clockwork.NewFakeClock())
	cache.set("k", []byte("v"))
	assert.Equal(t, 0, cache.size())
}

func TestMemoryCache_InvalidatePrefix(t *testing.T) {
	cache := newMemoryCache(time.Minute, clockwork.NewFakeClock())
	cache.set(domain.AggregateKey("a", "overview", ""), []byte("1"))
	cache.set(domain.AggregateKey("a", "words", "viz=bar"), []byte("2"))
	cache.set(domain.AggregateKey("ab", "overview", ""), []byte("3"))

	removed := cache.invalidatePrefix(domain.AggregateKeyPrefix("a"))
	assert.Equal(t, 2, removed)
	_, hit := cache.get(domain.AggregateKey("ab", "overview", ""))
	assert.True(t, hit, "dataset IDs sharing a prefix are not touched")
}

func TestAggregateCache_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	cm := metrics.NewCacheMetrics(reg)
	cache := NewAggregateCache(nil, time.Minute, time.Hour, clockwork.NewFakeClock(), cm)

	key := domain.AggregateKey("ds", "overview", "")
	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)

	cache.Set(ctx, key, []byte("x"))
	value, ok := cache.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []byte("x"), value)

	require.NoError(t, cache.InvalidateDataset(ctx, "ds"))
	_, ok = cache.Get(ctx, key)
	assert.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(cm.Hits.WithLabelValues(layerMemory)))
	assert.Equal(t, 2.0, testutil.ToFloat64(cm.Misses.WithLabelValues(layerMemory)))
	assert.Equal(t, 1.0, testutil.ToFloat64(cm.Invalidations))
}

func TestAggregateCache_EvictionTimer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := clockwork.NewFakeClock()
	cache := NewAggregateCache(nil, time.Second, time.Hour, clock, nil)
	cache.Set(context.Background(), "agg:ds:overview:", []byte("x"))

	stop := cache.StartEvictionTimer(time.Minute)

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(time.Minute)

	assert.Eventually(t, func() bool { return cache.mem.size() == 0 }, time.Second, 5*time.Millisecond)

	stop()
	stop()
}
