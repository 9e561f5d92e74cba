package memory

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"bridge-transfer-indexer/internal/domain"
	"bridge-transfer-indexer/internal/storage"
)

// TransferStore is an in-memory implementation of storage.TransferStore.
// Token metadata for LiquiditySummary comes from a sibling TokenStore when
// one is attached; without one the summary reports addresses only.
type TransferStore struct {
	mu       sync.RWMutex
	byTxHash map[string]*domain.TransferRecord
	tokens   *TokenStore
}

// NewTransferStore creates a new in-memory transfer store.
func NewTransferStore() *TransferStore {
	return &TransferStore{
		byTxHash: make(map[string]*domain.TransferRecord),
	}
}

// WithTokenStore attaches a token store used to resolve token names and
// symbols in LiquiditySummary.
func (s *TransferStore) WithTokenStore(tokens *TokenStore) *TransferStore {
	s.tokens = tokens
	return s
}

// InsertBatch persists records, skipping tx hashes that already exist.
func (s *TransferStore) InsertBatch(_ context.Context, records []*domain.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r == nil || r.TxHash == "" || r.TokenCount == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := s.byTxHash[r.TxHash]; exists {
			continue
		}
		rCopy := *r
		rCopy.TokenAddr = domain.CanonicalAddr(r.TokenAddr)
		rCopy.TokenCount = new(big.Int).Set(r.TokenCount)
		s.byTxHash[r.TxHash] = &rCopy
	}
	return nil
}

// MaxBlockNum returns the highest persisted block number, or ErrNotFound
// when the store is empty.
func (s *TransferStore) MaxBlockNum(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.byTxHash) == 0 {
		return 0, storage.ErrNotFound
	}

	var max int64
	for _, r := range s.byTxHash {
		if r.BlockNum > max {
			max = r.BlockNum
		}
	}
	return max, nil
}

// GetByTxHash retrieves a transfer by transaction hash. Returns ErrNotFound
// if not exists.
func (s *TransferStore) GetByTxHash(_ context.Context, txHash string) (*domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.byTxHash[txHash]
	if !exists {
		return nil, storage.ErrNotFound
	}

	rCopy := *r
	rCopy.TokenCount = new(big.Int).Set(r.TokenCount)
	return &rCopy, nil
}

// GetByBlockRange retrieves transfers with block_num in [from, to],
// ordered by block_num ASC.
func (s *TransferStore) GetByBlockRange(_ context.Context, from, to int64) ([]*domain.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*domain.TransferRecord
	for _, r := range s.byTxHash {
		if r.BlockNum >= from && r.BlockNum <= to {
			rCopy := *r
			rCopy.TokenCount = new(big.Int).Set(r.TokenCount)
			records = append(records, &rCopy)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].BlockNum < records[j].BlockNum
	})
	return records, nil
}

// LiquiditySummary aggregates per-token transfer counts, token sums and
// USD sums.
func (s *TransferStore) LiquiditySummary(ctx context.Context) ([]*domain.Liquidity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byToken := make(map[string]*domain.Liquidity)
	for _, r := range s.byTxHash {
		l, exists := byToken[r.TokenAddr]
		if !exists {
			l = &domain.Liquidity{
				ContractAddress: r.TokenAddr,
				Tokens:          new(big.Int),
			}
			byToken[r.TokenAddr] = l
		}
		l.Tokens.Add(l.Tokens, r.TokenCount)
		l.USD += r.USD
		l.NumberOfTransfers++
	}

	result := make([]*domain.Liquidity, 0, len(byToken))
	for addr, l := range byToken {
		if s.tokens != nil {
			if tok, err := s.tokens.GetByAddress(ctx, addr); err == nil {
				l.TokenName = tok.Name
				l.TokenSymbol = tok.Symbol
			}
		}
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ContractAddress < result[j].ContractAddress
	})
	return result, nil
}

var _ storage.TransferStore = (*TransferStore)(nil)
