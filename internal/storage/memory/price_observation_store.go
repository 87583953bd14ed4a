package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/renaobrien/elutio/internal/domain"
	"github.com/renaobrien/elutio/internal/storage"
)

// PriceObservationStore is an in-memory implementation of storage.PriceObservationStore.
type PriceObservationStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PriceObservation // keyed by (chain, token_address)
}

// NewPriceObservationStore creates a new in-memory observation store.
func NewPriceObservationStore() *PriceObservationStore {
	return &PriceObservationStore{data: make(map[string][]*domain.PriceObservation)}
}

// InsertBulk appends observations. Fails the entire batch on invalid input.
func (s *PriceObservationStore) InsertBulk(_ context.Context, obs []*domain.PriceObservation) error {
	for _, o := range obs {
		if o == nil || o.Chain == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range obs {
		cp := *o
		key := assetKey(o.Chain, o.TokenAddress)
		s.data[key] = append(s.data[key], &cp)
	}
	return nil
}

// GetByToken retrieves observations of one token, ordered by observed_at ASC.
func (s *PriceObservationStore) GetByToken(_ context.Context, chain, tokenAddress string) ([]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[assetKey(chain, tokenAddress)]
	result := make([]*domain.PriceObservation, 0, len(stored))
	for _, o := range stored {
		cp := *o
		result = append(result, &cp)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ObservedAt < result[j].ObservedAt
	})
	return result, nil
}

var _ storage.PriceObservationStore = (*PriceObservationStore)(nil)
