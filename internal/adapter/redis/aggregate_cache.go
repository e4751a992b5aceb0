package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/adapter/metrics"
	"github.com/nine420421/bilibili-sentiment-analysis/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const (
	layerMemory = "memory"
	layerRedis  = "redis"

	scanBatch = 200
)

// AggregateCache keeps serialized aggregate views in an in-process L1 in
// front of an optional Redis L2. Redis failures degrade to misses.
type AggregateCache struct {
	rdb      goredis.Cmdable
	redisTTL time.Duration
	mem      *memoryCache
	clock    clockwork.Clock
	metrics  *metrics.CacheMetrics
}

var _ domain.AggregateCache = (*AggregateCache)(nil)

// NewAggregateCache builds the cache. rdb may be nil to run memory-only;
// cm may be nil to skip metrics.
func NewAggregateCache(rdb goredis.Cmdable, memTTL, redisTTL time.Duration, clock clockwork.Clock, cm *metrics.CacheMetrics) *AggregateCache {
	return &AggregateCache{
		rdb:      rdb,
		redisTTL: redisTTL,
		mem:      newMemoryCache(memTTL, clock),
		clock:    clock,
		metrics:  cm,
	}
}

// StartEvictionTimer runs a periodic goroutine that evicts expired in-memory entries.
// Returns a stop function that should be deferred.
func (c *AggregateCache) StartEvictionTimer(interval time.Duration) func() {
	ticker := c.clock.NewTicker(interval)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				if evicted := c.mem.evictExpired(); evicted > 0 {
					slog.Debug("Evicted expired aggregate cache entries", "count", evicted, "remaining", c.mem.size())
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-stopped
		})
	}
}

func (c *AggregateCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if value, ok := c.mem.get(key); ok {
		c.hit(layerMemory)
		return value, true
	}
	c.miss(layerMemory)

	if c.rdb == nil {
		return nil, false
	}

	value, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.Warn("Redis aggregate cache GET failed", "key", key, "error", err)
		}
		c.miss(layerRedis)
		return nil, false
	}
	c.hit(layerRedis)

	c.mem.set(key, value)
	return value, true
}

func (c *AggregateCache) Set(ctx context.Context, key string, value []byte) {
	c.mem.set(key, value)

	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, value, c.redisTTL).Err(); err != nil {
		slog.Warn("Failed to populate Redis aggregate cache", "key", key, "error", err)
	}
}

// InvalidateDataset drops every cached view of a dataset from both layers
// and tells the other replicas to drop their in-process copies.
func (c *AggregateCache) InvalidateDataset(ctx context.Context, datasetID string) error {
	prefix := domain.AggregateKeyPrefix(datasetID)
	c.mem.invalidatePrefix(prefix)
	if c.metrics != nil {
		c.metrics.Invalidations.Inc()
	}

	if c.rdb == nil {
		return nil
	}

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cached aggregates: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cached aggregates: %w", err)
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	return publishInvalidation(ctx, c.rdb, datasetID)
}

func (c *AggregateCache) hit(layer string) {
	if c.metrics != nil {
		c.metrics.Hits.WithLabelValues(layer).Inc()
	}
}

func (c *AggregateCache) miss(layer string) {
	if c.metrics != nil {
		c.metrics.Misses.WithLabelValues(layer).Inc()
	}
}

// memoryCache is an in-memory L1 cache with TTL-based expiry.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

type memoryCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func newMemoryCache(ttl time.Duration, clock clockwork.Clock) *memoryCache {
	return &memoryCache{
		entries: make(map[string]memoryCacheEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (c *memoryCache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.clock.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (c *memoryCache) set(key string, value []byte) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryCacheEntry{
		value:     value,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

func (c *memoryCache) invalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *memoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}
