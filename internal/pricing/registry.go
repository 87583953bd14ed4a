package pricing

import (
	"context"
	"fmt"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

// Registry prices tokens from the last known usd_price in the asset registry.
// It is the fallback tier for assets the live providers do not list.
type Registry struct {
	assets storage.AssetStore
}

// NewRegistry creates a registry-backed price strategy.
func NewRegistry(assets storage.AssetStore) *Registry {
	return &Registry{assets: assets}
}

// Name implements Strategy.
func (r *Registry) Name() string { return domain.PriceSourceRegistry }

// Resolve implements Strategy.
func (r *Registry) Resolve(ctx context.Context, chain domain.Chain, addresses []string) (map[string]domain.Quote, error) {
	out := make(map[string]domain.Quote)
	if len(addresses) == 0 {
		return out, nil
	}

	assets, err := r.assets.PricedByAddress(ctx, chain.ID, addresses)
	if err != nil {
		return out, fmt.Errorf("registry prices %s: %w", chain.ID, err)
	}
	for _, a := range assets {
		if a.USDPrice == nil || *a.USDPrice <= 0 {
			continue
		}
		out[chain.NormalizeAddress(a.TokenAddress)] = domain.Quote{
			PriceUSD:     *a.USDPrice,
			LiquidityUSD: a.LiquidityUSD,
			Source:       domain.PriceSourceRegistry,
		}
	}
	return out, nil
}
