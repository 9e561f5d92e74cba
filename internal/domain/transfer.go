package domain

import (
	"math/big"
	"strconv"
)

// ZeroAddress is the EVM zero address. Bridge-inbound mints report it as
// the sender; every other transfer is discarded by the pipeline.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// TransferEvent is a raw token transfer as returned by the block explorer.
// Ephemeral: it exists only within one pipeline run. All numeric fields
// arrive string-encoded and are treated as untrusted input.
type TransferEvent struct {
	TxHash       string   // transaction hash (unique)
	From         string   // sender address
	To           string   // recipient address
	ContractAddr string   // token contract address
	Value        *big.Int // raw integer token amount
	BlockNum     int64    // block number, 0 when absent from the response
	Timestamp    string   // block timestamp, string-encoded unix seconds
	TokenName    string   // token name reported on the event
	TokenSymbol  string   // token symbol reported on the event
	TokenDecimal string   // decimals reported on the event, string-encoded
}

// UnixTimestamp parses the string-encoded block timestamp. Malformed
// timestamps degrade to 0, matching the defaulting policy for untrusted
// explorer fields.
func (e *TransferEvent) UnixTimestamp() int64 {
	ts, err := strconv.ParseInt(e.Timestamp, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

// TransferRecord is an enriched transfer as persisted.
// Corresponds to transfers_forward table in PostgreSQL. tx_hash is the
// primary key: re-ingesting the same hash is a no-op, which is what makes
// the pipeline safe to re-run over an already-committed block range.
type TransferRecord struct {
	TxHash     string   // transaction hash (PK)
	TokenAddr  string   // FK to tokens.contract_addr
	TokenCount *big.Int // raw integer token amount
	USD        float64  // computed USD value, 0 when no rate was available
	BlockNum   int64    // block number, watermark input
	Timestamp  string   // block timestamp, string-encoded unix seconds
	ToChain    uint32   // destination-chain classification tag
}

// UnixTimestamp parses the record's string-encoded timestamp, 0 on failure.
func (r *TransferRecord) UnixTimestamp() int64 {
	ts, err := strconv.ParseInt(r.Timestamp, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}
