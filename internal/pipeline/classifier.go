package pipeline

import "bridge-transfer-indexer/internal/domain"

// DefaultDestinationChain is the placeholder tag applied while transaction
// payload decoding is not wired up.
const DefaultDestinationChain = 1000

// Classifier assigns a destination-chain tag to a transfer. Real
// classification requires decoding the transaction payload; the interface
// keeps that pluggable.
type Classifier interface {
	Classify(e *domain.TransferEvent) uint32
}

// StaticClassifier tags every transfer with a fixed chain ID.
type StaticClassifier struct {
	ChainID uint32
}

// Classify returns the configured chain ID regardless of the event.
func (c StaticClassifier) Classify(_ *domain.TransferEvent) uint32 {
	return c.ChainID
}

var _ Classifier = StaticClassifier{}
