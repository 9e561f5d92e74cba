package postgres

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/jackc/pgx/v5"

	"bridge-transfer-indexer/internal/domain"
	"bridge-transfer-indexer/internal/storage"
)

// TransferStore implements storage.TransferStore using PostgreSQL.
type TransferStore struct {
	pool *Pool
}

// NewTransferStore creates a new TransferStore.
func NewTransferStore(pool *Pool) *TransferStore {
	return &TransferStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransferStore = (*TransferStore)(nil)

// InsertBatch persists a chunk of records as one multi-row statement.
// Duplicate tx_hash rows are skipped via ON CONFLICT DO NOTHING, which is
// what makes re-ingestion of an already-committed range a no-op.
func (s *TransferStore) InsertBatch(ctx context.Context, records []*domain.TransferRecord) error {
	if len(records) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO transfers_forward (tx_hash, token_addr, token_count, usd, block_num, timestamp, to_chain)
		VALUES `)

	args := make([]interface{}, 0, len(records)*7)
	for i, r := range records {
		if r == nil || r.TxHash == "" || r.TokenCount == nil {
			return storage.ErrInvalidInput
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args,
			r.TxHash,
			domain.CanonicalAddr(r.TokenAddr),
			r.TokenCount.String(),
			r.USD,
			r.BlockNum,
			r.Timestamp,
			r.ToChain,
		)
	}
	sb.WriteString(" ON CONFLICT (tx_hash) DO NOTHING")

	if _, err := s.pool.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert transfers: %w", err)
	}
	return nil
}

// MaxBlockNum returns the highest persisted block number, the watermark
// the next run resumes from. Returns ErrNotFound when no transfers exist.
func (s *TransferStore) MaxBlockNum(ctx context.Context) (int64, error) {
	query := `SELECT MAX(block_num) FROM transfers_forward`

	var max *int64
	if err := s.pool.QueryRow(ctx, query).Scan(&max); err != nil {
		return 0, fmt.Errorf("query max block: %w", err)
	}
	if max == nil {
		return 0, storage.ErrNotFound
	}
	return *max, nil
}

// GetByTxHash retrieves a transfer by transaction hash. Returns ErrNotFound
// if not exists.
func (s *TransferStore) GetByTxHash(ctx context.Context, txHash string) (*domain.TransferRecord, error) {
	query := `
		SELECT tx_hash, token_addr, token_count::text, usd, block_num, timestamp, to_chain
		FROM transfers_forward
		WHERE tx_hash = $1
	`

	row := s.pool.QueryRow(ctx, query, txHash)
	r, err := scanTransfer(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transfer by tx hash: %w", err)
	}
	return r, nil
}

// GetByBlockRange retrieves transfers with block_num in [from, to],
// ordered by block_num ASC.
func (s *TransferStore) GetByBlockRange(ctx context.Context, from, to int64) ([]*domain.TransferRecord, error) {
	query := `
		SELECT tx_hash, token_addr, token_count::text, usd, block_num, timestamp, to_chain
		FROM transfers_forward
		WHERE block_num >= $1 AND block_num <= $2
		ORDER BY block_num ASC
	`

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query transfers by block range: %w", err)
	}
	defer rows.Close()

	var records []*domain.TransferRecord
	for rows.Next() {
		r, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return records, nil
}

// LiquiditySummary aggregates per-token transfer counts, raw token sums and
// USD sums over all persisted transfers.
func (s *TransferStore) LiquiditySummary(ctx context.Context) ([]*domain.Liquidity, error) {
	query := `
		SELECT t.token_name, t.token_sym, t.contract_addr,
		       COALESCE(SUM(f.token_count), 0)::text,
		       COALESCE(SUM(f.usd), 0),
		       COUNT(f.tx_hash)
		FROM tokens t
		LEFT JOIN transfers_forward f ON f.token_addr = t.contract_addr
		GROUP BY t.token_name, t.token_sym, t.contract_addr
		ORDER BY t.contract_addr ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query liquidity summary: %w", err)
	}
	defer rows.Close()

	var result []*domain.Liquidity
	for rows.Next() {
		var l domain.Liquidity
		var tokenSum string
		if err := rows.Scan(&l.TokenName, &l.TokenSymbol, &l.ContractAddress,
			&tokenSum, &l.USD, &l.NumberOfTransfers); err != nil {
			return nil, fmt.Errorf("scan liquidity: %w", err)
		}
		tokens, ok := new(big.Int).SetString(tokenSum, 10)
		if !ok {
			return nil, fmt.Errorf("parse token sum %q", tokenSum)
		}
		l.Tokens = tokens
		result = append(result, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liquidity rows: %w", err)
	}
	return result, nil
}

// scanTransfer scans a single row into TransferRecord.
func scanTransfer(row pgx.Row) (*domain.TransferRecord, error) {
	var r domain.TransferRecord
	var count string

	err := row.Scan(
		&r.TxHash,
		&r.TokenAddr,
		&count,
		&r.USD,
		&r.BlockNum,
		&r.Timestamp,
		&r.ToChain,
	)
	if err != nil {
		return nil, err
	}

	value, ok := new(big.Int).SetString(count, 10)
	if !ok {
		return nil, fmt.Errorf("parse token_count %q", count)
	}
	r.TokenCount = value

	return &r, nil
}
