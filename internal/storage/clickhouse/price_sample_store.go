package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"bridge-transfer-indexer/internal/domain"
	"bridge-transfer-indexer/internal/storage"
)

// PriceSampleStore implements storage.PriceSampleStore using ClickHouse.
// Every fetched price series is archived here so a run's USD valuations can
// be audited and replayed against the exact samples it saw.
type PriceSampleStore struct {
	conn *Conn
}

// NewPriceSampleStore creates a new PriceSampleStore.
func NewPriceSampleStore(conn *Conn) *PriceSampleStore {
	return &PriceSampleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceSampleStore = (*PriceSampleStore)(nil)

// InsertBulk appends samples in one native batch. Rejects intra-batch
// duplicate (symbol, timestamp) pairs; the ReplacingMergeTree table folds
// cross-run duplicates during merges.
func (s *PriceSampleStore) InsertBulk(ctx context.Context, samples []*domain.PriceSample) error {
	if len(samples) == 0 {
		return nil
	}

	type key struct {
		symbol    string
		timestamp int64
	}
	seen := make(map[key]struct{})
	for _, p := range samples {
		k := key{p.Symbol, p.Timestamp}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_samples (
			symbol, timestamp, open, high, low, close
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range samples {
		err = batch.Append(
			p.Symbol, uint64(p.Timestamp),
			p.Open, p.High, p.Low, p.Close,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves all samples for a symbol, ordered by timestamp ASC.
func (s *PriceSampleStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.PriceSample, error) {
	query := `
		SELECT symbol, timestamp, open, high, low, close
		FROM price_samples FINAL
		WHERE symbol = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	return scanPriceSamples(rows)
}

// GetByTimeRange retrieves samples for a symbol within [start, end]
// (inclusive), ordered by timestamp ASC.
func (s *PriceSampleStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.PriceSample, error) {
	query := `
		SELECT symbol, timestamp, open, high, low, close
		FROM price_samples FINAL
		WHERE symbol = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPriceSamples(rows)
}

// scanPriceSamples scans all rows into PriceSample slices.
func scanPriceSamples(rows driver.Rows) ([]*domain.PriceSample, error) {
	var samples []*domain.PriceSample

	for rows.Next() {
		var p domain.PriceSample
		var ts uint64
		if err := rows.Scan(&p.Symbol, &ts, &p.Open, &p.High, &p.Low, &p.Close); err != nil {
			return nil, fmt.Errorf("scan price sample: %w", err)
		}
		p.Timestamp = int64(ts)
		samples = append(samples, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price samples: %w", err)
	}

	return samples, nil
}
