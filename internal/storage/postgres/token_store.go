package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// InsertBulk adds tokens atomically. Fails the entire batch if any token
// references a missing scan or violates a column check.
func (s *TokenStore) InsertBulk(ctx context.Context, tokens []*domain.PricedToken) error {
	if len(tokens) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO tokens (
			scan_id, chain, symbol, name, contract_address, balance, decimals,
			balance_usd, price_usd, liquidity_usd, price_known, price_source,
			classification, has_unlimited_approval, logo_url, last_transfer_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at
	`

	batch := &pgx.Batch{}
	for _, t := range tokens {
		if t == nil || t.ScanID == "" {
			return storage.ErrInvalidInput
		}
		batch.Queue(query,
			t.ScanID,
			t.Chain,
			t.Symbol,
			t.Name,
			nullString(t.ContractAddress),
			t.Balance,
			t.Decimals,
			t.BalanceUSD,
			t.PriceUSD,
			t.LiquidityUSD,
			t.PriceKnown,
			t.PriceSource,
			string(t.Classification.Canonical()),
			t.HasUnlimitedApproval,
			nullString(t.LogoURL),
			nullInt64(t.LastTransferAt),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, t := range tokens {
		if err := results.QueryRow().Scan(&t.ID, &t.CreatedAt); err != nil {
			results.Close()
			if isInvalidInputError(err) {
				return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
			}
			return fmt.Errorf("insert token %s/%s: %w", t.Chain, t.Symbol, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByScanID retrieves all tokens of a scan, ordered by balance_usd DESC.
func (s *TokenStore) GetByScanID(ctx context.Context, scanID string) ([]*domain.PricedToken, error) {
	query := `
		SELECT id, scan_id::text, chain, symbol, name, COALESCE(contract_address, ''), balance,
			decimals, balance_usd, price_usd, liquidity_usd, price_known, price_source,
			classification, has_unlimited_approval, COALESCE(logo_url, ''),
			COALESCE(last_transfer_at, 0), created_at
		FROM tokens
		WHERE scan_id::text = $1
		ORDER BY balance_usd DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("query tokens by scan id: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.PricedToken
	for rows.Next() {
		var t domain.PricedToken
		var classification string
		err := rows.Scan(
			&t.ID,
			&t.ScanID,
			&t.Chain,
			&t.Symbol,
			&t.Name,
			&t.ContractAddress,
			&t.Balance,
			&t.Decimals,
			&t.BalanceUSD,
			&t.PriceUSD,
			&t.LiquidityUSD,
			&t.PriceKnown,
			&t.PriceSource,
			&classification,
			&t.HasUnlimitedApproval,
			&t.LogoURL,
			&t.LastTransferAt,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		t.Classification = domain.Classification(classification).Canonical()
		tokens = append(tokens, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}
	return tokens, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
