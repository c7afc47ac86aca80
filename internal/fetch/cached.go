package fetch

import (
	"context"

	"github.com/yashsmehta/auto-apply/internal/cache"
	"github.com/yashsmehta/auto-apply/internal/metrics"
)

// cacheOperation is the operation kind under which page fetches are keyed.
const cacheOperation = "scrape"

// Cached decorates a Fetcher with the shared response cache. Pages are keyed
// by the caller-supplied URL before any https upgrade, so repeat runs hit the
// cache regardless of scheme rewriting. Only successful fetches are stored.
type Cached struct {
	inner Fetcher
	cache *cache.Cache
}

// NewCached wraps inner with c. A nil cache passes calls straight through.
func NewCached(inner Fetcher, c *cache.Cache) *Cached {
	return &Cached{inner: inner, cache: c}
}

// Fetch serves the page from cache when fresh, delegating to the wrapped
// fetcher otherwise. Cached results come back with FromCache set.
func (f *Cached) Fetch(ctx context.Context, rawURL string) (Result, error) {
	if f.cache == nil {
		return f.inner.Fetch(ctx, rawURL)
	}

	if v, ok := f.cache.Get(rawURL, cacheOperation); ok {
		if res, ok := v.(Result); ok {
			res.FromCache = true
			metrics.CacheEvents.WithLabelValues("hit").Inc()
			return res, nil
		}
	}
	metrics.CacheEvents.WithLabelValues("miss").Inc()

	res, err := f.inner.Fetch(ctx, rawURL)
	if err != nil {
		return res, err
	}
	f.cache.Set(rawURL, cacheOperation, res)
	metrics.CacheEvents.WithLabelValues("store").Inc()
	return res, nil
}
