package storage

import (
	"context"

	"github.com/renaobrien/elutio/internal/domain"
)

// ScanStore provides access to wallet_scans storage.
type ScanStore interface {
	// Insert adds a new scan. Returns ErrDuplicateKey if the scan id exists.
	Insert(ctx context.Context, s *domain.WalletScan) error

	// GetByID retrieves a scan by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, scanID string) (*domain.WalletScan, error)

	// GetLatestByWallet retrieves the most recent scan of a wallet.
	// Returns ErrNotFound if the wallet was never scanned.
	GetLatestByWallet(ctx context.Context, wallet string) (*domain.WalletScan, error)

	// ListByWallet retrieves up to limit scans of a wallet, newest first.
	ListByWallet(ctx context.Context, wallet string, limit int) ([]*domain.WalletScan, error)
}

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// InsertBulk adds tokens atomically. Every token must reference an existing scan.
	InsertBulk(ctx context.Context, tokens []*domain.PricedToken) error

	// GetByScanID retrieves all tokens of a scan, ordered by balance_usd DESC.
	GetByScanID(ctx context.Context, scanID string) ([]*domain.PricedToken, error)
}

// AssetFilter narrows asset registry listings.
type AssetFilter struct {
	Chain         string // exact chain id, empty for all chains
	Search        string // case-insensitive substring of symbol or name
	SupportedOnly bool
}

// AssetStore provides access to asset_registry storage.
type AssetStore interface {
	// Upsert inserts or replaces assets keyed by (chain, token_address).
	Upsert(ctx context.Context, assets []*domain.Asset) error

	// Get retrieves an asset. Returns ErrNotFound if not exists.
	Get(ctx context.Context, chain, tokenAddress string) (*domain.Asset, error)

	// List retrieves assets matching the filter, ordered by token_symbol ASC.
	List(ctx context.Context, f AssetFilter) ([]*domain.Asset, error)

	// PricedByAddress retrieves assets of a chain among the given addresses
	// that carry a positive usd_price.
	PricedByAddress(ctx context.Context, chain string, addresses []string) ([]*domain.Asset, error)
}

// PriceObservationStore provides access to price_observations storage.
type PriceObservationStore interface {
	// InsertBulk appends observations.
	InsertBulk(ctx context.Context, obs []*domain.PriceObservation) error

	// GetByToken retrieves observations of one token, ordered by observed_at ASC.
	GetByToken(ctx context.Context, chain, tokenAddress string) ([]*domain.PriceObservation, error)
}
