package memory

import (
	"context"
	"sort"
	"sync"

	"bridge-transfer-indexer/internal/domain"
	"bridge-transfer-indexer/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	byAddr map[string]*domain.Token // keyed by canonical contract address
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		byAddr: make(map[string]*domain.Token),
	}
}

// UpsertBatch inserts tokens, skipping addresses that already exist.
func (s *TokenStore) UpsertBatch(_ context.Context, tokens []*domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tok := range tokens {
		if tok == nil || tok.ContractAddr == "" {
			return storage.ErrInvalidInput
		}
		addr := domain.CanonicalAddr(tok.ContractAddr)
		if _, exists := s.byAddr[addr]; exists {
			continue
		}
		tokCopy := *tok
		tokCopy.ContractAddr = addr
		s.byAddr[addr] = &tokCopy
	}
	return nil
}

// GetByAddress retrieves a token by contract address. Returns ErrNotFound
// if not exists.
func (s *TokenStore) GetByAddress(_ context.Context, contractAddr string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, exists := s.byAddr[domain.CanonicalAddr(contractAddr)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokCopy := *tok
	return &tokCopy, nil
}

// GetAll retrieves all tokens, ordered by contract address.
func (s *TokenStore) GetAll(_ context.Context) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := make([]*domain.Token, 0, len(s.byAddr))
	for _, tok := range s.byAddr {
		tokCopy := *tok
		tokens = append(tokens, &tokCopy)
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].ContractAddr < tokens[j].ContractAddr
	})
	return tokens, nil
}

var _ storage.TokenStore = (*TokenStore)(nil)
