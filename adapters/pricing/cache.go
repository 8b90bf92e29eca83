package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lease-analyzer/core/valuation"
	"lease-analyzer/internal/logging"
)

// MemoryCache wraps a source with an in-process TTL cache. Only successful
// quotes are cached so a flaky provider is retried on the next request.
type MemoryCache struct {
	inner valuation.PriceSource
	ttl   time.Duration
	now   func() time.Time

	mu    sync.RWMutex
	cache map[string]*cachedQuote
}

type cachedQuote struct {
	quote     valuation.Quote
	expiresAt time.Time
}

// NewMemoryCache creates a caching wrapper
func NewMemoryCache(inner valuation.PriceSource, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]*cachedQuote),
	}
}

// Name implements valuation.PriceSource.
func (c *MemoryCache) Name() string {
	return c.inner.Name()
}

// Lookup implements valuation.PriceSource.
func (c *MemoryCache) Lookup(ctx context.Context, brand, model string, year int) (*valuation.Quote, error) {
	key := cacheKey(brand, model, year)

	c.mu.RLock()
	if cached, ok := c.cache[key]; ok && c.now().Before(cached.expiresAt) {
		c.mu.RUnlock()
		q := cached.quote
		return &q, nil
	}
	c.mu.RUnlock()

	q, err := c.inner.Lookup(ctx, brand, model, year)
	if err != nil || q == nil {
		return q, err
	}

	c.mu.Lock()
	c.cache[key] = &cachedQuote{quote: *q, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()

	return q, nil
}

// Len returns the number of cached entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// RedisCache wraps a source with a Redis-backed cache shared between
// processes. Redis failures are treated as cache misses.
type RedisCache struct {
	inner  valuation.PriceSource
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

type redisQuote struct {
	MSRP     string `json:"msrp"`
	Trim     string `json:"trim,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// NewRedisClient connects to a single Redis node.
func NewRedisClient(addr string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
}

// NewRedisCache creates a Redis caching wrapper.
func NewRedisCache(inner valuation.PriceSource, client redis.UniversalClient, ttl time.Duration, prefix string) *RedisCache {
	return &RedisCache{
		inner:  inner,
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}
}

// Name implements valuation.PriceSource.
func (c *RedisCache) Name() string {
	return c.inner.Name()
}

// Lookup implements valuation.PriceSource.
func (c *RedisCache) Lookup(ctx context.Context, brand, model string, year int) (*valuation.Quote, error) {
	key := c.prefix + cacheKey(brand, model, year)

	if q, ok := c.get(ctx, key); ok {
		return q, nil
	}

	q, err := c.inner.Lookup(ctx, brand, model, year)
	if err != nil || q == nil {
		return q, err
	}

	c.set(ctx, key, q)
	return q, nil
}

func (c *RedisCache) get(ctx context.Context, key string) (*valuation.Quote, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Debug("valuation cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var rq redisQuote
	if err := json.Unmarshal([]byte(raw), &rq); err != nil {
		logging.Debug("valuation cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	msrp, err := decimal.NewFromString(rq.MSRP)
	if err != nil {
		return nil, false
	}
	return &valuation.Quote{MSRP: msrp, Trim: rq.Trim, Provider: rq.Provider}, true
}

func (c *RedisCache) set(ctx context.Context, key string, q *valuation.Quote) {
	data, err := json.Marshal(redisQuote{MSRP: q.MSRP.String(), Trim: q.Trim, Provider: q.Provider})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logging.Debug("valuation cache write failed", zap.String("key", key), zap.Error(err))
	}
}
