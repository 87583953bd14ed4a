package pricing

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/observability"
)

// Cache defaults.
const (
	DefaultCacheSize = 10000
	DefaultCacheTTL  = 5 * time.Minute
)

// Cached memoizes positive quotes of a strategy in an expiring LRU keyed by
// chain and address. Misses are not cached.
type Cached struct {
	inner Strategy
	cache *expirable.LRU[string, domain.Quote]
}

// NewCached wraps inner with a cache of size entries living ttl.
func NewCached(inner Strategy, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		inner: inner,
		cache: expirable.NewLRU[string, domain.Quote](size, nil, ttl),
	}
}

// Name implements Strategy.
func (c *Cached) Name() string { return c.inner.Name() }

// Resolve implements Strategy.
func (c *Cached) Resolve(ctx context.Context, chain domain.Chain, addresses []string) (map[string]domain.Quote, error) {
	out := make(map[string]domain.Quote, len(addresses))
	var misses []string
	for _, addr := range addresses {
		if q, ok := c.cache.Get(cacheKey(chain.ID, addr)); ok {
			out[addr] = q
			continue
		}
		misses = append(misses, addr)
	}
	hits := len(addresses) - len(misses)
	if hits > 0 {
		observability.RecordCacheLookup(c.Name(), true)
	}
	if len(misses) == 0 {
		return out, nil
	}
	observability.RecordCacheLookup(c.Name(), false)

	fresh, err := c.inner.Resolve(ctx, chain, misses)
	for addr, q := range fresh {
		if q.PriceUSD > 0 {
			c.cache.Add(cacheKey(chain.ID, addr), q)
		}
		out[addr] = q
	}
	return out, err
}

// Len returns the number of cached quotes.
func (c *Cached) Len() int { return c.cache.Len() }

func cacheKey(chain, addr string) string {
	return chain + "|" + addr
}
