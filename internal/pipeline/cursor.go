package pipeline

import (
	"context"
	"errors"
	"log"

	"bridge-transfer-indexer/internal/storage"
)

// DefaultGenesisBlock is the first block of the tracked bridge deployment,
// the resume point when the store holds no transfers yet.
const DefaultGenesisBlock = 4164120

// Cursor computes the next fetch window from the persisted watermark.
type Cursor struct {
	transfers storage.TransferStore
	genesis   int64
	logger    *log.Logger
}

// NewCursor creates a cursor over the transfer store. A zero genesis
// falls back to DefaultGenesisBlock; a nil logger falls back to
// log.Default().
func NewCursor(transfers storage.TransferStore, genesis int64, logger *log.Logger) *Cursor {
	if genesis == 0 {
		genesis = DefaultGenesisBlock
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Cursor{
		transfers: transfers,
		genesis:   genesis,
		logger:    logger,
	}
}

// ResumeBlock returns the block the next fetch window starts at:
// watermark+1 so ranges neither gap nor overlap. An empty store resumes
// from genesis. A failing aggregate query also resumes from genesis:
// fail-open is deliberate, because re-scanning is safe when persistence is
// idempotent on transaction hash, while halting ingestion is not.
func (c *Cursor) ResumeBlock(ctx context.Context) int64 {
	max, err := c.transfers.MaxBlockNum(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Printf("Error reading watermark, resuming from genesis: %v", err)
		}
		return c.genesis
	}
	return max + 1
}
