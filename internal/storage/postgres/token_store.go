package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"bridge-transfer-indexer/internal/domain"
	"bridge-transfer-indexer/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// UpsertBatch inserts tokens with ON CONFLICT DO NOTHING on contract_addr,
// so concurrently discovered tokens never collide and existing metadata is
// never overwritten.
func (s *TokenStore) UpsertBatch(ctx context.Context, tokens []*domain.Token) error {
	if len(tokens) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO tokens (contract_addr, token_name, token_sym, decimals)
		VALUES `)

	args := make([]interface{}, 0, len(tokens)*4)
	for i, tok := range tokens {
		if tok == nil || tok.ContractAddr == "" {
			return storage.ErrInvalidInput
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
		args = append(args, domain.CanonicalAddr(tok.ContractAddr), tok.Name, tok.Symbol, tok.Decimals)
	}
	sb.WriteString(" ON CONFLICT (contract_addr) DO NOTHING")

	if _, err := s.pool.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("upsert tokens: %w", err)
	}
	return nil
}

// GetByAddress retrieves a token by contract address. Returns ErrNotFound
// if not exists.
func (s *TokenStore) GetByAddress(ctx context.Context, contractAddr string) (*domain.Token, error) {
	query := `
		SELECT contract_addr, token_name, token_sym, decimals, EXTRACT(EPOCH FROM created_at)::bigint
		FROM tokens
		WHERE contract_addr = $1
	`

	row := s.pool.QueryRow(ctx, query, domain.CanonicalAddr(contractAddr))
	tok, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by address: %w", err)
	}
	return tok, nil
}

// GetAll retrieves all known tokens, ordered by contract address.
func (s *TokenStore) GetAll(ctx context.Context) ([]*domain.Token, error) {
	query := `
		SELECT contract_addr, token_name, token_sym, decimals, EXTRACT(EPOCH FROM created_at)::bigint
		FROM tokens
		ORDER BY contract_addr ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.Token
	for rows.Next() {
		tok, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}
	return tokens, nil
}

// scanToken scans a single row into Token.
func scanToken(row pgx.Row) (*domain.Token, error) {
	var tok domain.Token

	err := row.Scan(
		&tok.ContractAddr,
		&tok.Name,
		&tok.Symbol,
		&tok.Decimals,
		&tok.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &tok, nil
}
