package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

func pricedToken(scanID, symbol string, usd float64, c domain.Classification) *domain.PricedToken {
	return &domain.PricedToken{
		TokenBalance: domain.TokenBalance{
			Chain:           "ethereum",
			ContractAddress: "0x" + symbol,
			Symbol:          symbol,
			Name:            symbol + " Token",
			Balance:         "1.5",
			Decimals:        18,
		},
		ScanID:         scanID,
		PriceUSD:       usd / 1.5,
		BalanceUSD:     usd,
		PriceKnown:     true,
		PriceSource:    domain.PriceSourceCoinGecko,
		Classification: c,
	}
}

func TestTokenStore_InsertBulkAndGetByScanID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	const scanID = "9a6d4f7e-1c2b-4f3a-8e5d-000000000001"
	insertScan(t, pool, scanID, testWallet, 1700000000000)

	store := NewTokenStore(pool)
	ctx := context.Background()

	native := pricedToken(scanID, "ETH", 3000, domain.ClassificationCore)
	native.ContractAddress = ""
	native.LogoURL = "https://example.com/eth.png"

	scam := pricedToken(scanID, "FAKE_DROP", 0, domain.ClassificationUnsafe)
	scam.PriceKnown = false
	scam.PriceSource = ""
	scam.PriceUSD = 0

	legacy := pricedToken(scanID, "UNI", 120, domain.ClassificationPositions)
	legacy.LiquidityUSD = ptr(250000.0)
	legacy.LastTransferAt = 1690000000000

	tokens := []*domain.PricedToken{scam, legacy, native, pricedToken(scanID, "SHIB", 4, domain.ClassificationDust)}
	require.NoError(t, store.InsertBulk(ctx, tokens))
	for _, tok := range tokens {
		assert.NotZero(t, tok.ID)
		assert.NotZero(t, tok.CreatedAt)
	}

	got, err := store.GetByScanID(ctx, scanID)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "ETH", got[0].Symbol)
	assert.Equal(t, "", got[0].ContractAddress)
	assert.Equal(t, "https://example.com/eth.png", got[0].LogoURL)
	assert.Equal(t, "UNI", got[1].Symbol)
	assert.Equal(t, domain.ClassificationRecoverable, got[1].Classification)
	require.NotNil(t, got[1].LiquidityUSD)
	assert.InDelta(t, 250000.0, *got[1].LiquidityUSD, 1e-9)
	assert.Equal(t, int64(1690000000000), got[1].LastTransferAt)
	assert.Equal(t, "SHIB", got[2].Symbol)
	assert.Equal(t, "FAKE_DROP", got[3].Symbol)
	assert.False(t, got[3].PriceKnown)
	assert.Nil(t, got[3].LiquidityUSD)
}

func TestTokenStore_InsertBulkMissingScanFailsAtomically(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	const scanID = "9a6d4f7e-1c2b-4f3a-8e5d-000000000002"
	insertScan(t, pool, scanID, testWallet, 1700000000000)

	store := NewTokenStore(pool)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.PricedToken{
		pricedToken(scanID, "USDC", 50, domain.ClassificationRecoverable),
		pricedToken("9a6d4f7e-1c2b-4f3a-8e5d-0000000000ff", "DAI", 50, domain.ClassificationRecoverable),
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	got, err := store.GetByScanID(ctx, scanID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTokenStore_InsertBulkEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	assert.NoError(t, store.InsertBulk(context.Background(), nil))
}
