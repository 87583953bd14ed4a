package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

// ScanStore is an in-memory implementation of storage.ScanStore.
type ScanStore struct {
	mu       sync.RWMutex
	byID     map[string]*domain.WalletScan
	byWallet map[string][]string // wallet -> scan ids in insert order
}

// NewScanStore creates a new in-memory scan store.
func NewScanStore() *ScanStore {
	return &ScanStore{
		byID:     make(map[string]*domain.WalletScan),
		byWallet: make(map[string][]string),
	}
}

// Insert adds a new scan. Returns ErrDuplicateKey if the scan id exists.
func (s *ScanStore) Insert(_ context.Context, scan *domain.WalletScan) error {
	if scan == nil || scan.ID == "" || scan.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[scan.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.byID[scan.ID] = copyScan(scan)
	s.byWallet[scan.WalletAddress] = append(s.byWallet[scan.WalletAddress], scan.ID)
	return nil
}

// GetByID retrieves a scan by its ID. Returns ErrNotFound if not exists.
func (s *ScanStore) GetByID(_ context.Context, scanID string) (*domain.WalletScan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scan, exists := s.byID[scanID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyScan(scan), nil
}

// GetLatestByWallet retrieves the most recent scan of a wallet.
func (s *ScanStore) GetLatestByWallet(ctx context.Context, wallet string) (*domain.WalletScan, error) {
	scans, err := s.ListByWallet(ctx, wallet, 1)
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, storage.ErrNotFound
	}
	return scans[0], nil
}

// ListByWallet retrieves up to limit scans of a wallet, newest first.
// A non-positive limit returns all scans.
func (s *ScanStore) ListByWallet(_ context.Context, wallet string, limit int) ([]*domain.WalletScan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byWallet[wallet]
	result := make([]*domain.WalletScan, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		result = append(result, copyScan(s.byID[ids[i]]))
	}

	// Newest first; the later insert wins a tie, like created_at DESC.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ScannedAt > result[j].ScannedAt
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *ScanStore) exists(scanID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[scanID]
	return ok
}

func copyScan(scan *domain.WalletScan) *domain.WalletScan {
	cp := *scan
	cp.Chains = append([]string(nil), scan.Chains...)
	return &cp
}

var _ storage.ScanStore = (*ScanStore)(nil)
