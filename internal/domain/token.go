package domain

import "strings"

// DefaultDecimals is the decimal precision assumed when token metadata
// reports an unparseable or missing decimals field.
const DefaultDecimals = 18

// Token represents ERC-20 token metadata discovered from transfer events.
// Corresponds to tokens table in PostgreSQL. Metadata is immutable once
// inserted: reconciliation uses insert-if-absent, never update.
type Token struct {
	ContractAddr string // contract address, canonical lowercase hex (PK)
	Name         string // display name as reported by the explorer
	Symbol       string // ticker symbol as reported by the explorer
	Decimals     uint32 // decimal precision, DefaultDecimals when unknown
	CreatedAt    int64  // record creation timestamp (unix seconds)
}

// CanonicalAddr lowercases a hex contract address so that all stores and
// lookups agree on one key per contract.
func CanonicalAddr(addr string) string {
	return strings.ToLower(addr)
}
