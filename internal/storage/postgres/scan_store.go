package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

// ScanStore implements storage.ScanStore using PostgreSQL.
type ScanStore struct {
	pool *Pool
}

// NewScanStore creates a new ScanStore.
func NewScanStore(pool *Pool) *ScanStore {
	return &ScanStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScanStore = (*ScanStore)(nil)

const scanColumns = `
	id::text, wallet_address, chains, total_balance_usd, recoverable_usd, dust_usd,
	hygiene_score, alert_count, tokens_count, scanned_at
`

// Insert adds a new scan. Returns ErrDuplicateKey if the scan id exists.
func (s *ScanStore) Insert(ctx context.Context, scan *domain.WalletScan) error {
	if scan == nil || scan.ID == "" || scan.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO wallet_scans (
			id, wallet_address, chains, total_balance_usd, recoverable_usd, dust_usd,
			hygiene_score, alert_count, tokens_count, scanned_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	chains := scan.Chains
	if chains == nil {
		chains = []string{}
	}

	_, err := s.pool.Exec(ctx, query,
		scan.ID,
		scan.WalletAddress,
		chains,
		scan.TotalBalanceUSD,
		scan.RecoverableUSD,
		scan.DustUSD,
		scan.HygieneScore,
		scan.AlertCount,
		scan.TokensCount,
		scan.ScannedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isInvalidInputError(err) {
			return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
		}
		return fmt.Errorf("insert wallet scan: %w", err)
	}
	return nil
}

// GetByID retrieves a scan by its ID. Returns ErrNotFound if not exists.
func (s *ScanStore) GetByID(ctx context.Context, scanID string) (*domain.WalletScan, error) {
	query := `SELECT ` + scanColumns + ` FROM wallet_scans WHERE id::text = $1`

	scan, err := scanWalletScan(s.pool.QueryRow(ctx, query, scanID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet scan by id: %w", err)
	}
	return scan, nil
}

// GetLatestByWallet retrieves the most recent scan of a wallet.
func (s *ScanStore) GetLatestByWallet(ctx context.Context, wallet string) (*domain.WalletScan, error) {
	query := `
		SELECT ` + scanColumns + `
		FROM wallet_scans
		WHERE wallet_address = $1
		ORDER BY scanned_at DESC, created_at DESC
		LIMIT 1
	`

	scan, err := scanWalletScan(s.pool.QueryRow(ctx, query, wallet))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest wallet scan: %w", err)
	}
	return scan, nil
}

// ListByWallet retrieves up to limit scans of a wallet, newest first.
// A non-positive limit returns all scans.
func (s *ScanStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]*domain.WalletScan, error) {
	query := `
		SELECT ` + scanColumns + `
		FROM wallet_scans
		WHERE wallet_address = $1
		ORDER BY scanned_at DESC, created_at DESC
	`
	args := []any{wallet}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wallet scans: %w", err)
	}
	defer rows.Close()

	var scans []*domain.WalletScan
	for rows.Next() {
		scan, err := scanWalletScan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet scan row: %w", err)
		}
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet scans: %w", err)
	}
	return scans, nil
}

// scanWalletScan scans a single row into WalletScan.
func scanWalletScan(row pgx.Row) (*domain.WalletScan, error) {
	var s domain.WalletScan
	err := row.Scan(
		&s.ID,
		&s.WalletAddress,
		&s.Chains,
		&s.TotalBalanceUSD,
		&s.RecoverableUSD,
		&s.DustUSD,
		&s.HygieneScore,
		&s.AlertCount,
		&s.TokensCount,
		&s.ScannedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
