package scan

import (
	"context"
	"fmt"
	"strings"

	"github.com/renaobrien/elutio/internal/chains"
	"github.com/renaobrien/elutio/internal/classify"
	"github.com/renaobrien/elutio/internal/domain"
)

// DefaultListLimit bounds ListScans when no limit is given.
const DefaultListLimit = 20

// GetScan returns a stored scan. Returns storage.ErrNotFound if missing.
func (s *Service) GetScan(ctx context.Context, id string) (*domain.WalletScan, error) {
	scan, err := s.scans.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("get scan %s: %w", id, err)
	}
	return scan, nil
}

// GetTokens returns the tokens of a scan, highest USD value first.
// A positive thresholdUSD re-buckets the labels for display.
func (s *Service) GetTokens(ctx context.Context, id string, thresholdUSD float64) ([]*domain.PricedToken, error) {
	id = strings.TrimSpace(id)
	if _, err := s.scans.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("get scan %s: %w", id, err)
	}
	tokens, err := s.tokens.GetByScanID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tokens of %s: %w", id, err)
	}
	for _, t := range tokens {
		t.Classification = t.Classification.Canonical()
	}
	if thresholdUSD > 0 {
		tokens = classify.Rebucket(tokens, thresholdUSD)
	}
	return tokens, nil
}

// DisplayThreshold is the dust threshold token listings re-bucket with when
// the caller names none. Zero keeps the scan labels.
func (s *Service) DisplayThreshold() float64 {
	return s.classifier.Policy().UIDustThresholdUSD
}

// LatestScan returns the most recent scan of a wallet.
func (s *Service) LatestScan(ctx context.Context, wallet string) (*domain.WalletScan, error) {
	scan, err := s.scans.GetLatestByWallet(ctx, normalizeWallet(wallet))
	if err != nil {
		return nil, fmt.Errorf("latest scan of %s: %w", wallet, err)
	}
	return scan, nil
}

// ListScans returns up to limit scans of a wallet, newest first.
func (s *Service) ListScans(ctx context.Context, wallet string, limit int) ([]*domain.WalletScan, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	scans, err := s.scans.ListByWallet(ctx, normalizeWallet(wallet), limit)
	if err != nil {
		return nil, fmt.Errorf("list scans of %s: %w", wallet, err)
	}
	return scans, nil
}

// normalizeWallet lower-cases EVM addresses, the only case-insensitive kind.
func normalizeWallet(wallet string) string {
	wallet = strings.TrimSpace(wallet)
	if chains.ValidateAddress(domain.ChainKindEVM, wallet) == nil {
		return strings.ToLower(wallet)
	}
	return wallet
}
