package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

func TestPriceObservationStore_InsertAndGet(t *testing.T) {
	store := NewPriceObservationStore()
	ctx := context.Background()

	obs := []*domain.PriceObservation{
		{Chain: "ethereum", TokenAddress: "0xa", PriceUSD: 2, Source: domain.PriceSourceDexScreener, ObservedAt: 2000},
		{Chain: "ethereum", TokenAddress: "0xa", PriceUSD: 1, Source: domain.PriceSourceCoinGecko, ObservedAt: 1000},
		{Chain: "base", TokenAddress: "0xa", PriceUSD: 9, ObservedAt: 1500},
	}
	if err := store.InsertBulk(ctx, obs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByToken(ctx, "ethereum", "0xa")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(got))
	}
	if got[0].ObservedAt != 1000 || got[1].ObservedAt != 2000 {
		t.Errorf("unexpected order: %d, %d", got[0].ObservedAt, got[1].ObservedAt)
	}

	if err := store.InsertBulk(ctx, []*domain.PriceObservation{{}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
