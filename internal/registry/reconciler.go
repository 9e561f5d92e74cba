// Package registry reconciles token metadata observed on transfer events
// into the durable token registry.
package registry

import (
	"context"
	"sort"
	"strconv"

	"bridge-transfer-indexer/internal/domain"
	"bridge-transfer-indexer/internal/storage"
)

// BuildTokenSet deduplicates the batch into one Token per contract address.
// Duplicates within the batch are last-write-wins; every event for one
// contract reports the same metadata, so the order does not matter.
// Decimal strings that fail to parse default to DefaultDecimals.
func BuildTokenSet(events []*domain.TransferEvent) map[string]*domain.Token {
	tokens := make(map[string]*domain.Token)
	for _, e := range events {
		addr := domain.CanonicalAddr(e.ContractAddr)
		tokens[addr] = &domain.Token{
			ContractAddr: addr,
			Name:         e.TokenName,
			Symbol:       e.TokenSymbol,
			Decimals:     ParseDecimals(e.TokenDecimal),
		}
	}
	return tokens
}

// ParseDecimals parses a string-encoded decimal precision, defaulting to
// DefaultDecimals on any parse failure. Explorer metadata is untrusted.
func ParseDecimals(s string) uint32 {
	d, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return domain.DefaultDecimals
	}
	return uint32(d)
}

// Reconcile persists the token set with insert-if-absent semantics.
// Tokens are submitted in address order so batch contents are
// deterministic across runs.
func Reconcile(ctx context.Context, store storage.TokenStore, tokens map[string]*domain.Token) error {
	if len(tokens) == 0 {
		return nil
	}

	batch := make([]*domain.Token, 0, len(tokens))
	for _, tok := range tokens {
		batch = append(batch, tok)
	}
	sort.Slice(batch, func(i, j int) bool {
		return batch[i].ContractAddr < batch[j].ContractAddr
	})

	return store.UpsertBatch(ctx, batch)
}
