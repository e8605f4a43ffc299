package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"CoeffRisk/internal/domain/models"
	drepo "CoeffRisk/internal/domain/repository"
	"CoeffRisk/pkg/cache"
	"CoeffRisk/pkg/logger"
)

const keyPrefix = "payload"

// Cached keeps decoded payloads in a cache in front of another source.
// Cache failures never fail a fetch.
type Cached struct {
	next  drepo.PriceSource
	cache cache.Service
	ttl   time.Duration
	log   *logger.Logger
}

func NewCached(next drepo.PriceSource, c cache.Service, ttl time.Duration, l *logger.Logger) *Cached {
	if l == nil {
		l = logger.Nop()
	}
	return &Cached{next: next, cache: c, ttl: ttl, log: l.With("pricefeed_cache")}
}

// Key is the cache key for ticker.
func Key(ticker string) string { return cache.Key(keyPrefix, ticker) }

func (c *Cached) Fetch(ctx context.Context, ticker string) (models.Payload, error) {
	key := Key(ticker)

	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var p models.Payload
		if jerr := json.Unmarshal(raw, &p); jerr == nil {
			return p, nil
		}
		_ = c.cache.Delete(ctx, key)
	case !errors.Is(err, cache.ErrCacheMiss):
		c.log.Warn("cache get failed", logger.String("key", key), logger.Error(err))
	}

	p, err := c.next.Fetch(ctx, ticker)
	if err != nil {
		return models.Payload{}, err
	}
	if len(p.History) == 0 {
		return p, nil
	}

	if b, err := json.Marshal(p); err == nil {
		if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
			c.log.Warn("cache set failed", logger.String("key", key), logger.Error(err))
		}
	}
	return p, nil
}

var _ drepo.PriceSource = (*Cached)(nil)
