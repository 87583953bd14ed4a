package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

// AssetStore is an in-memory implementation of storage.AssetStore.
type AssetStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Asset // keyed by (chain, token_address)
}

// NewAssetStore creates a new in-memory asset registry.
func NewAssetStore() *AssetStore {
	return &AssetStore{data: make(map[string]*domain.Asset)}
}

func assetKey(chain, address string) string {
	return chain + "|" + address
}

// Upsert inserts or replaces assets keyed by (chain, token_address).
func (s *AssetStore) Upsert(_ context.Context, assets []*domain.Asset) error {
	for _, a := range assets {
		if a == nil || a.Chain == "" || a.TokenSymbol == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range assets {
		s.data[assetKey(a.Chain, a.TokenAddress)] = copyAsset(a)
	}
	return nil
}

// Get retrieves an asset. Returns ErrNotFound if not exists.
func (s *AssetStore) Get(_ context.Context, chain, tokenAddress string) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[assetKey(chain, tokenAddress)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyAsset(a), nil
}

// List retrieves assets matching the filter, ordered by token_symbol ASC.
func (s *AssetStore) List(_ context.Context, f storage.AssetFilter) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var result []*domain.Asset
	for _, a := range s.data {
		if f.Chain != "" && a.Chain != f.Chain {
			continue
		}
		if f.SupportedOnly && !a.IsSupported {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(a.TokenSymbol), search) &&
			!strings.Contains(strings.ToLower(a.TokenName), search) {
			continue
		}
		result = append(result, copyAsset(a))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TokenSymbol != result[j].TokenSymbol {
			return result[i].TokenSymbol < result[j].TokenSymbol
		}
		if result[i].Chain != result[j].Chain {
			return result[i].Chain < result[j].Chain
		}
		return result[i].TokenAddress < result[j].TokenAddress
	})
	return result, nil
}

// PricedByAddress retrieves assets among addresses that carry a positive usd_price.
func (s *AssetStore) PricedByAddress(_ context.Context, chain string, addresses []string) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Asset
	for _, addr := range addresses {
		a, ok := s.data[assetKey(chain, addr)]
		if !ok || a.USDPrice == nil || *a.USDPrice <= 0 {
			continue
		}
		result = append(result, copyAsset(a))
	}
	return result, nil
}

func copyAsset(a *domain.Asset) *domain.Asset {
	cp := *a
	if a.Decimals != nil {
		v := *a.Decimals
		cp.Decimals = &v
	}
	if a.USDPrice != nil {
		v := *a.USDPrice
		cp.USDPrice = &v
	}
	if a.LiquidityUSD != nil {
		v := *a.LiquidityUSD
		cp.LiquidityUSD = &v
	}
	return &cp
}

var _ storage.AssetStore = (*AssetStore)(nil)
