package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage/memory"
)

func f64(v float64) *float64 { return &v }

func TestRegistry_Resolve(t *testing.T) {
	store := memory.NewAssetStore()
	require.NoError(t, store.Upsert(context.Background(), []*domain.Asset{
		{Chain: "ethereum", TokenAddress: "0xaa", TokenSymbol: "AAA", USDPrice: f64(2.5), LiquidityUSD: f64(40000)},
		{Chain: "ethereum", TokenAddress: "0xbb", TokenSymbol: "BBB", USDPrice: f64(0)},
		{Chain: "ethereum", TokenAddress: "0xcc", TokenSymbol: "CCC"},
		{Chain: "base", TokenAddress: "0xdd", TokenSymbol: "DDD", USDPrice: f64(9)},
	}))

	got, err := NewRegistry(store).Resolve(context.Background(), ethereum, []string{"0xaa", "0xbb", "0xcc", "0xdd"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, 2.5, got["0xaa"].PriceUSD)
	assert.Equal(t, 40000.0, *got["0xaa"].LiquidityUSD)
	assert.Equal(t, domain.PriceSourceRegistry, got["0xaa"].Source)
}
