package pricing

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/observability"
)

// NativePriceSource looks up coin prices by CoinGecko id.
type NativePriceSource interface {
	NativePrices(ctx context.Context, ids []string) (map[string]float64, error)
}

// NativePricer prices chain native assets, caching per coin id.
type NativePricer struct {
	source NativePriceSource
	cache  *expirable.LRU[string, float64]
}

// NewNativePricer creates a NativePricer caching prices for ttl.
func NewNativePricer(source NativePriceSource, ttl time.Duration) *NativePricer {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &NativePricer{
		source: source,
		cache:  expirable.NewLRU[string, float64](256, nil, ttl),
	}
}

// NativePrice returns the USD price of chain's native asset.
// Zero with a nil error means no price is known.
func (p *NativePricer) NativePrice(ctx context.Context, chain domain.Chain) (float64, error) {
	id := chain.NativeCoinGeckoID
	if id == "" {
		return 0, nil
	}
	if v, ok := p.cache.Get(id); ok {
		observability.RecordCacheLookup(domain.PriceSourceNative, true)
		return v, nil
	}
	observability.RecordCacheLookup(domain.PriceSourceNative, false)

	prices, err := p.source.NativePrices(ctx, []string{id})
	if err != nil {
		return 0, err
	}
	v := prices[id]
	if v > 0 {
		p.cache.Add(id, v)
	}
	return v, nil
}
