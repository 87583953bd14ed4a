package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

func seedAssets(t *testing.T, store *AssetStore) {
	t.Helper()
	assets := []*domain.Asset{
		{Chain: "ethereum", TokenAddress: "", TokenSymbol: "ETH", TokenName: "Ether", AssetClass: domain.AssetClassCore, IsSupported: true, USDPrice: ptr(3000.0)},
		{Chain: "ethereum", TokenAddress: "0xa0b8", TokenSymbol: "USDC", TokenName: "USD Coin", Decimals: ptr(6), AssetClass: domain.AssetClassCore, IsSupported: true, USDPrice: ptr(1.0)},
		{Chain: "ethereum", TokenAddress: "0x1f98", TokenSymbol: "UNI", TokenName: "Uniswap", IsSupported: true, USDPrice: ptr(0.0)},
		{Chain: "base", TokenAddress: "0x833589", TokenSymbol: "USDC", TokenName: "USD Coin", Decimals: ptr(6), IsSupported: false},
		{Chain: "solana", TokenAddress: "DezX", TokenSymbol: "BONK", TokenName: "Bonk_100%", IsSupported: true, LiquidityUSD: ptr(1e6)},
	}
	require.NoError(t, store.Upsert(context.Background(), assets))
}

func TestAssetStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAssetStore(pool)
	ctx := context.Background()
	seedAssets(t, store)

	got, err := store.Get(ctx, "ethereum", "0xa0b8")
	require.NoError(t, err)
	assert.Equal(t, "USDC", got.TokenSymbol)
	assert.Equal(t, 6, got.DecimalsOrDefault())
	assert.Equal(t, domain.AssetClassCore, got.AssetClass)
	assert.NotZero(t, got.UpdatedAt)

	uni, err := store.Get(ctx, "ethereum", "0x1f98")
	require.NoError(t, err)
	assert.Nil(t, uni.Decimals)
	assert.Equal(t, domain.DefaultAssetDecimals, uni.DecimalsOrDefault())
	assert.Equal(t, domain.AssetClassNonCore, uni.AssetClass)

	// Upsert replaces the existing row.
	require.NoError(t, store.Upsert(ctx, []*domain.Asset{
		{Chain: "ethereum", TokenAddress: "0x1f98", TokenSymbol: "UNI", TokenName: "Uniswap", IsSupported: true, USDPrice: ptr(7.5)},
	}))
	uni, err = store.Get(ctx, "ethereum", "0x1f98")
	require.NoError(t, err)
	require.NotNil(t, uni.USDPrice)
	assert.InDelta(t, 7.5, *uni.USDPrice, 1e-9)

	_, err = store.Get(ctx, "ethereum", "0xdead")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAssetStore_UpsertRejectsUnknownClass(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAssetStore(pool)
	err := store.Upsert(context.Background(), []*domain.Asset{
		{Chain: "ethereum", TokenAddress: "0x01", TokenSymbol: "X", AssetClass: "premium"},
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestAssetStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAssetStore(pool)
	ctx := context.Background()
	seedAssets(t, store)

	all, err := store.List(ctx, storage.AssetFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "BONK", all[0].TokenSymbol)
	assert.Equal(t, "USDC", all[3].TokenSymbol)
	assert.Equal(t, "base", all[3].Chain)

	supported, err := store.List(ctx, storage.AssetFilter{SupportedOnly: true})
	require.NoError(t, err)
	assert.Len(t, supported, 4)

	eth, err := store.List(ctx, storage.AssetFilter{Chain: "ethereum", Search: "usd"})
	require.NoError(t, err)
	require.Len(t, eth, 1)
	assert.Equal(t, "0xa0b8", eth[0].TokenAddress)

	// Wildcards in the search term are literal.
	pct, err := store.List(ctx, storage.AssetFilter{Search: "100%"})
	require.NoError(t, err)
	require.Len(t, pct, 1)
	assert.Equal(t, "BONK", pct[0].TokenSymbol)
}

func TestAssetStore_PricedByAddress(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAssetStore(pool)
	ctx := context.Background()
	seedAssets(t, store)

	priced, err := store.PricedByAddress(ctx, "ethereum", []string{"0xa0b8", "0x1f98", "0xdead"})
	require.NoError(t, err)
	require.Len(t, priced, 1)
	assert.Equal(t, "USDC", priced[0].TokenSymbol)

	none, err := store.PricedByAddress(ctx, "ethereum", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
