package clickhouse

import (
	"context"
	"fmt"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

// PriceObservationStore implements storage.PriceObservationStore using ClickHouse.
type PriceObservationStore struct {
	conn *Conn
}

// NewPriceObservationStore creates a new PriceObservationStore.
func NewPriceObservationStore(conn *Conn) *PriceObservationStore {
	return &PriceObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceObservationStore = (*PriceObservationStore)(nil)

// InsertBulk appends observations in a single batch.
func (s *PriceObservationStore) InsertBulk(ctx context.Context, obs []*domain.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}
	for _, o := range obs {
		if o == nil || o.Chain == "" || o.ObservedAt < 0 {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_observations (
			chain, token_address, symbol, price_usd, liquidity_usd, source, scan_id, observed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range obs {
		err = batch.Append(
			o.Chain, o.TokenAddress, o.Symbol, o.PriceUSD,
			o.LiquidityUSD, o.Source, o.ScanID, uint64(o.ObservedAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByToken retrieves observations of one token, ordered by observed_at ASC.
func (s *PriceObservationStore) GetByToken(ctx context.Context, chain, tokenAddress string) ([]*domain.PriceObservation, error) {
	query := `
		SELECT chain, token_address, symbol, price_usd, liquidity_usd, source, scan_id, observed_at
		FROM price_observations
		WHERE chain = ? AND token_address = ?
		ORDER BY observed_at ASC, scan_id ASC
	`

	rows, err := s.conn.Query(ctx, query, chain, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("query price observations: %w", err)
	}
	defer rows.Close()

	return scanPriceObservations(rows)
}

func scanPriceObservations(rows chRows) ([]*domain.PriceObservation, error) {
	var out []*domain.PriceObservation

	for rows.Next() {
		var o domain.PriceObservation
		var observedAt uint64

		err := rows.Scan(
			&o.Chain, &o.TokenAddress, &o.Symbol, &o.PriceUSD,
			&o.LiquidityUSD, &o.Source, &o.ScanID, &observedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price observation row: %w", err)
		}

		o.ObservedAt = int64(observedAt)
		out = append(out, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price observation rows: %w", err)
	}
	return out, nil
}
