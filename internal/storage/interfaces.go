package storage

import (
	"context"

	"bridge-transfer-indexer/internal/domain"
)

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// UpsertBatch inserts tokens, silently skipping any contract address
	// that already exists. Existing metadata is never overwritten.
	UpsertBatch(ctx context.Context, tokens []*domain.Token) error

	// GetByAddress retrieves a token by contract address. Returns
	// ErrNotFound if not exists.
	GetByAddress(ctx context.Context, contractAddr string) (*domain.Token, error)

	// GetAll retrieves all known tokens, ordered by contract address.
	GetAll(ctx context.Context) ([]*domain.Token, error)
}

// TransferStore provides access to transfers_forward storage.
type TransferStore interface {
	// InsertBatch persists a chunk of records as one statement.
	// Rows whose tx_hash already exists are skipped, not errors.
	InsertBatch(ctx context.Context, records []*domain.TransferRecord) error

	// MaxBlockNum returns the highest persisted block number.
	// Returns ErrNotFound when no transfers exist.
	MaxBlockNum(ctx context.Context) (int64, error)

	// GetByTxHash retrieves a transfer by transaction hash. Returns
	// ErrNotFound if not exists.
	GetByTxHash(ctx context.Context, txHash string) (*domain.TransferRecord, error)

	// GetByBlockRange retrieves transfers with block_num in [from, to],
	// ordered by block_num ASC.
	GetByBlockRange(ctx context.Context, from, to int64) ([]*domain.TransferRecord, error)

	// LiquiditySummary aggregates per-token transfer counts, raw token
	// sums and USD sums over all persisted transfers.
	LiquiditySummary(ctx context.Context) ([]*domain.Liquidity, error)
}

// PriceSampleStore archives fetched price series for audit and backtests.
type PriceSampleStore interface {
	// InsertBulk appends samples. The archive is append-only; duplicate
	// (symbol, timestamp) pairs within a batch are rejected.
	InsertBulk(ctx context.Context, samples []*domain.PriceSample) error

	// GetBySymbol retrieves all archived samples for a symbol, ordered
	// by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.PriceSample, error)

	// GetByTimeRange retrieves samples for a symbol within [start, end]
	// (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.PriceSample, error)
}
