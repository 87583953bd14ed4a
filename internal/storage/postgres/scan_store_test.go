package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

const testWallet = "0x742d35cc6634c0532925a3b844bc9e7595f0beb1"

func TestScanStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScanStore(pool)
	ctx := context.Background()

	scan := &domain.WalletScan{
		ID:              "5f0c8e2a-7d0e-4a53-9a59-4c1c3b0a6f10",
		WalletAddress:   testWallet,
		Chains:          []string{"ethereum", "base"},
		TotalBalanceUSD: 11630.5,
		RecoverableUSD:  180.25,
		DustUSD:         8.5,
		HygieneScore:    76,
		AlertCount:      2,
		TokensCount:     13,
		ScannedAt:       1700000000000,
	}

	require.NoError(t, store.Insert(ctx, scan))

	got, err := store.GetByID(ctx, scan.ID)
	require.NoError(t, err)
	assert.Equal(t, scan, got)
}

func TestScanStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScanStore(pool)
	ctx := context.Background()

	scan := &domain.WalletScan{
		ID:            "0b7f7c53-3a0e-4e4b-8b9f-111111111111",
		WalletAddress: testWallet,
		HygieneScore:  100,
		ScannedAt:     1700000000000,
	}
	require.NoError(t, store.Insert(ctx, scan))

	err := store.Insert(ctx, scan)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestScanStore_InsertRejectsScoreOutOfRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScanStore(pool)
	err := store.Insert(context.Background(), &domain.WalletScan{
		ID:            "0b7f7c53-3a0e-4e4b-8b9f-222222222222",
		WalletAddress: testWallet,
		HygieneScore:  101,
		ScannedAt:     1700000000000,
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestScanStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScanStore(pool)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "0b7f7c53-3a0e-4e4b-8b9f-333333333333")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Malformed ids are simply absent.
	_, err = store.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestScanStore_LatestAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScanStore(pool)
	ctx := context.Background()

	insertScan(t, pool, "0b7f7c53-3a0e-4e4b-8b9f-000000000001", testWallet, 1700000000000)
	insertScan(t, pool, "0b7f7c53-3a0e-4e4b-8b9f-000000000003", testWallet, 1700000300000)
	insertScan(t, pool, "0b7f7c53-3a0e-4e4b-8b9f-000000000002", testWallet, 1700000200000)
	insertScan(t, pool, "0b7f7c53-3a0e-4e4b-8b9f-000000000009", "other", 1800000000000)

	latest, err := store.GetLatestByWallet(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, "0b7f7c53-3a0e-4e4b-8b9f-000000000003", latest.ID)

	scans, err := store.ListByWallet(ctx, testWallet, 2)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, int64(1700000300000), scans[0].ScannedAt)
	assert.Equal(t, int64(1700000200000), scans[1].ScannedAt)

	all, err := store.ListByWallet(ctx, testWallet, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = store.GetLatestByWallet(ctx, "never-scanned")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
