package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

// AssetStore implements storage.AssetStore using PostgreSQL.
type AssetStore struct {
	pool *Pool
}

// NewAssetStore creates a new AssetStore.
func NewAssetStore(pool *Pool) *AssetStore {
	return &AssetStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AssetStore = (*AssetStore)(nil)

const assetColumns = `
	chain, token_address, token_symbol, token_name, decimals, asset_class,
	is_supported, usd_price, liquidity_usd, COALESCE(logo_url, ''), updated_at
`

// Upsert inserts or replaces assets keyed by (chain, token_address).
func (s *AssetStore) Upsert(ctx context.Context, assets []*domain.Asset) error {
	if len(assets) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO asset_registry (
			chain, token_address, token_symbol, token_name, decimals, asset_class,
			is_supported, usd_price, liquidity_usd, logo_url, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, (EXTRACT(EPOCH FROM NOW()) * 1000)::BIGINT)
		ON CONFLICT (chain, token_address) DO UPDATE SET
			token_symbol  = EXCLUDED.token_symbol,
			token_name    = EXCLUDED.token_name,
			decimals      = EXCLUDED.decimals,
			asset_class   = EXCLUDED.asset_class,
			is_supported  = EXCLUDED.is_supported,
			usd_price     = EXCLUDED.usd_price,
			liquidity_usd = EXCLUDED.liquidity_usd,
			logo_url      = EXCLUDED.logo_url,
			updated_at    = EXCLUDED.updated_at
	`

	for _, a := range assets {
		if a == nil || a.Chain == "" || a.TokenSymbol == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			a.Chain,
			a.TokenAddress,
			a.TokenSymbol,
			a.TokenName,
			a.Decimals,
			string(a.ClassOrDefault()),
			a.IsSupported,
			a.USDPrice,
			a.LiquidityUSD,
			nullString(a.LogoURL),
		)
		if err != nil {
			if isInvalidInputError(err) {
				return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
			}
			return fmt.Errorf("upsert asset %s/%s: %w", a.Chain, a.TokenSymbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Get retrieves an asset. Returns ErrNotFound if not exists.
func (s *AssetStore) Get(ctx context.Context, chain, tokenAddress string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM asset_registry WHERE chain = $1 AND token_address = $2`

	a, err := scanAsset(s.pool.QueryRow(ctx, query, chain, tokenAddress))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

// List retrieves assets matching the filter, ordered by token_symbol ASC.
func (s *AssetStore) List(ctx context.Context, f storage.AssetFilter) ([]*domain.Asset, error) {
	var (
		conds []string
		args  []any
	)
	if f.Chain != "" {
		args = append(args, f.Chain)
		conds = append(conds, fmt.Sprintf("chain = $%d", len(args)))
	}
	if f.SupportedOnly {
		conds = append(conds, "is_supported")
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		conds = append(conds, fmt.Sprintf("(token_symbol ILIKE $%d OR token_name ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + assetColumns + ` FROM asset_registry`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY token_symbol ASC, chain ASC, token_address ASC`

	return s.queryAssets(ctx, query, args...)
}

// PricedByAddress retrieves assets among addresses that carry a positive usd_price.
func (s *AssetStore) PricedByAddress(ctx context.Context, chain string, addresses []string) ([]*domain.Asset, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + assetColumns + `
		FROM asset_registry
		WHERE chain = $1 AND token_address = ANY($2) AND usd_price > 0
	`
	return s.queryAssets(ctx, query, chain, addresses)
}

func (s *AssetStore) queryAssets(ctx context.Context, query string, args ...any) ([]*domain.Asset, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var assets []*domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset row: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset rows: %w", err)
	}
	return assets, nil
}

// scanAsset scans a single row into Asset.
func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var a domain.Asset
	var class string
	err := row.Scan(
		&a.Chain,
		&a.TokenAddress,
		&a.TokenSymbol,
		&a.TokenName,
		&a.Decimals,
		&class,
		&a.IsSupported,
		&a.USDPrice,
		&a.LiquidityUSD,
		&a.LogoURL,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.AssetClass = domain.AssetClass(class)
	return &a, nil
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
