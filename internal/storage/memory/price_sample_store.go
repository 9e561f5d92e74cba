package memory

import (
	"context"
	"sort"
	"sync"

	"bridge-transfer-indexer/internal/domain"
	"bridge-transfer-indexer/internal/storage"
)

// PriceSampleStore is an in-memory implementation of storage.PriceSampleStore.
type PriceSampleStore struct {
	mu       sync.RWMutex
	bySymbol map[string][]*domain.PriceSample
	seen     map[sampleKey]struct{}
}

type sampleKey struct {
	symbol    string
	timestamp int64
}

// NewPriceSampleStore creates a new in-memory price sample store.
func NewPriceSampleStore() *PriceSampleStore {
	return &PriceSampleStore{
		bySymbol: make(map[string][]*domain.PriceSample),
		seen:     make(map[sampleKey]struct{}),
	}
}

// InsertBulk appends samples. Returns ErrDuplicateKey on a repeated
// (symbol, timestamp) pair.
func (s *PriceSampleStore) InsertBulk(_ context.Context, samples []*domain.PriceSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range samples {
		if p == nil || p.Symbol == "" {
			return storage.ErrInvalidInput
		}
		k := sampleKey{p.Symbol, p.Timestamp}
		if _, exists := s.seen[k]; exists {
			return storage.ErrDuplicateKey
		}
	}

	for _, p := range samples {
		k := sampleKey{p.Symbol, p.Timestamp}
		s.seen[k] = struct{}{}
		pCopy := *p
		s.bySymbol[p.Symbol] = append(s.bySymbol[p.Symbol], &pCopy)
	}
	return nil
}

// GetBySymbol retrieves all samples for a symbol, ordered by timestamp ASC.
func (s *PriceSampleStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.PriceSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples := make([]*domain.PriceSample, 0, len(s.bySymbol[symbol]))
	for _, p := range s.bySymbol[symbol] {
		pCopy := *p
		samples = append(samples, &pCopy)
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp < samples[j].Timestamp
	})
	return samples, nil
}

// GetByTimeRange retrieves samples for a symbol within [start, end]
// (inclusive), ordered by timestamp ASC.
func (s *PriceSampleStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.PriceSample, error) {
	all, err := s.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var samples []*domain.PriceSample
	for _, p := range all {
		if p.Timestamp >= start && p.Timestamp <= end {
			samples = append(samples, p)
		}
	}
	return samples, nil
}

var _ storage.PriceSampleStore = (*PriceSampleStore)(nil)
