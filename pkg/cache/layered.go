package cache

import (
	"context"
	"time"
)

// LayeredCache keeps a short-lived process-local copy (L1) of a shared
// backend (L2, normally Redis). Writes go through to L2 first.
type LayeredCache struct {
	memCache   *MemoryCache
	redisCache Service
	l1TTL      time.Duration
}

type LayeredOption func(*layeredSettings)

type layeredSettings struct {
	size int
	ttl  time.Duration
}

func WithLayeredMemorySize(size int) LayeredOption {
	return func(s *layeredSettings) { s.size = size }
}

// WithLayeredMemoryTTL caps how long L1 keeps an entry, so replicas see
// each other's writes within that window.
func WithLayeredMemoryTTL(ttl time.Duration) LayeredOption {
	return func(s *layeredSettings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewLayeredCache(redisCache Service, opts ...LayeredOption) *LayeredCache {
	s := layeredSettings{size: 1000, ttl: time.Minute}
	for _, opt := range opts {
		opt(&s)
	}

	return &LayeredCache{
		memCache:   NewMemoryCache(WithMemoryMaxSize(s.size)),
		redisCache: redisCache,
		l1TTL:      s.ttl,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := lc.redisCache.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	_ = lc.memCache.Set(ctx, key, value, lc.memTTL(expiration))
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, err := lc.memCache.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err := lc.redisCache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	_ = lc.memCache.Set(ctx, key, v, lc.l1TTL)
	return v, nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.memCache.Delete(ctx, keys...)
	return lc.redisCache.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := lc.memCache.Exists(ctx, key); ok {
		return true, nil
	}
	return lc.redisCache.Exists(ctx, key)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.memCache.Close()
	return lc.redisCache.Close()
}

func (lc *LayeredCache) memTTL(expiration time.Duration) time.Duration {
	if expiration > 0 && expiration < lc.l1TTL {
		return expiration
	}
	return lc.l1TTL
}

var _ Service = (*LayeredCache)(nil)
