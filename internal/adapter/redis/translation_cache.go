package redis

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/signcast/internal/adapter/metrics"
	"github.com/pscheid92/signcast/internal/domain"
)

const (
	backendMemory = "memory"
	backendRedis  = "redis"
)

// TranslationCache is a two-layer cache: an in-process map in front of an
// optional Redis. Any backend failure is a miss.
type TranslationCache struct {
	rdb     goredis.Cmdable
	ttl     time.Duration
	mem     *memoryCache
	metrics *metrics.CacheMetrics
}

var _ domain.TranslationCache = (*TranslationCache)(nil)

// NewTranslationCache builds the cache. rdb may be nil, in which case only
// the in-process layer is used.
func NewTranslationCache(rdb goredis.Cmdable, ttl time.Duration, m *metrics.CacheMetrics) *TranslationCache {
	return &TranslationCache{
		rdb:     rdb,
		ttl:     ttl,
		mem:     newMemoryCache(ttl),
		metrics: m,
	}
}

// StartEvictionTimer periodically drops expired in-memory entries.
// Returns a stop function that should be deferred.
func (c *TranslationCache) StartEvictionTimer(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if evicted := c.mem.evictExpired(); evicted > 0 {
					slog.Debug("Evicted expired translations", "count", evicted, "remaining", c.mem.size())
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (c *TranslationCache) Get(ctx context.Context, key string) (string, bool) {
	if v, ok := c.mem.get(key); ok {
		c.metrics.Hits.WithLabelValues(backendMemory).Inc()
		return v, true
	}
	c.metrics.Misses.WithLabelValues(backendMemory).Inc()

	if c.rdb == nil {
		return "", false
	}

	v, err := c.rdb.Get(ctx, redisKey(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			c.metrics.Misses.WithLabelValues(backendRedis).Inc()
		} else {
			c.metrics.Errors.WithLabelValues(backendRedis).Inc()
			slog.WarnContext(ctx, "Redis translation cache GET failed", "error", err)
		}
		return "", false
	}

	c.metrics.Hits.WithLabelValues(backendRedis).Inc()
	c.mem.set(key, v)
	return v, true
}

func (c *TranslationCache) Set(ctx context.Context, key, value string) {
	c.mem.set(key, value)

	if c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, redisKey(key), value, c.ttl).Err(); err != nil {
		c.metrics.Errors.WithLabelValues(backendRedis).Inc()
		slog.WarnContext(ctx, "Redis translation cache SET failed", "error", err)
	}
}

func redisKey(key string) string {
	return "translation:" + key
}

// memoryCache is the in-process layer with TTL-based expiry.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
}

type memoryCacheEntry struct {
	value     string
	expiresAt time.Time
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{
		entries: make(map[string]memoryCacheEntry),
		ttl:     ttl,
	}
}

func (c *memoryCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.value, true
}

func (c *memoryCache) set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryCacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *memoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}
