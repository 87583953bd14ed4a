package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	scans  *ScanStore // optional, enforces the scan_id reference
	byScan map[string][]*domain.PricedToken
	nextID int64
}

// NewTokenStore creates a new in-memory token store. When scans is non-nil,
// tokens referencing an unknown scan are rejected.
func NewTokenStore(scans *ScanStore) *TokenStore {
	return &TokenStore{
		scans:  scans,
		byScan: make(map[string][]*domain.PricedToken),
	}
}

// InsertBulk adds tokens atomically. Fails the entire batch on invalid input.
func (s *TokenStore) InsertBulk(_ context.Context, tokens []*domain.PricedToken) error {
	if len(tokens) == 0 {
		return nil
	}

	for _, t := range tokens {
		if t == nil || t.ScanID == "" {
			return storage.ErrInvalidInput
		}
		if s.scans != nil && !s.scans.exists(t.ScanID) {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tokens {
		s.nextID++
		cp := copyToken(t)
		cp.ID = s.nextID
		t.ID = cp.ID
		s.byScan[t.ScanID] = append(s.byScan[t.ScanID], cp)
	}
	return nil
}

// GetByScanID retrieves all tokens of a scan, ordered by balance_usd DESC.
func (s *TokenStore) GetByScanID(_ context.Context, scanID string) ([]*domain.PricedToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byScan[scanID]
	result := make([]*domain.PricedToken, 0, len(stored))
	for _, t := range stored {
		result = append(result, copyToken(t))
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].BalanceUSD != result[j].BalanceUSD {
			return result[i].BalanceUSD > result[j].BalanceUSD
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func copyToken(t *domain.PricedToken) *domain.PricedToken {
	cp := *t
	if t.LiquidityUSD != nil {
		v := *t.LiquidityUSD
		cp.LiquidityUSD = &v
	}
	return &cp
}

var _ storage.TokenStore = (*TokenStore)(nil)
