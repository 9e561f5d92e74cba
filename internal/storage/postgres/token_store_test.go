package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-transfer-indexer/internal/domain"
	"bridge-transfer-indexer/internal/storage"
	"bridge-transfer-indexer/internal/storage/postgres"
)

func TestTokenStore_UpsertBatchAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTokenStore(pool)

	tokens := []*domain.Token{
		{ContractAddr: "0xDAC17F958D2EE523A2206206994597C13D831EC7", Name: "Tether USD", Symbol: "USDT", Decimals: 6},
		{ContractAddr: "0xaaa", Name: "Alpha", Symbol: "ALP", Decimals: 18},
	}
	require.NoError(t, store.UpsertBatch(ctx, tokens))

	// Addresses are stored and looked up canonically.
	got, err := store.GetByAddress(ctx, "0xdac17f958d2ee523a2206206994597c13d831ec7")
	require.NoError(t, err)
	assert.Equal(t, "0xdac17f958d2ee523a2206206994597c13d831ec7", got.ContractAddr)
	assert.Equal(t, "Tether USD", got.Name)
	assert.Equal(t, "USDT", got.Symbol)
	assert.Equal(t, uint32(6), got.Decimals)
	assert.Greater(t, got.CreatedAt, int64(0))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "0xaaa", all[0].ContractAddr, "GetAll ordered by address")
}

func TestTokenStore_UpsertBatch_ConflictKeepsFirstWrite(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTokenStore(pool)

	require.NoError(t, store.UpsertBatch(ctx, []*domain.Token{
		{ContractAddr: "0xaaa", Name: "Original", Symbol: "ONE", Decimals: 6},
	}))
	require.NoError(t, store.UpsertBatch(ctx, []*domain.Token{
		{ContractAddr: "0xaaa", Name: "Renamed", Symbol: "TWO", Decimals: 8},
		{ContractAddr: "0xbbb", Name: "Beta", Symbol: "BET", Decimals: 18},
	}))

	got, err := store.GetByAddress(ctx, "0xaaa")
	require.NoError(t, err)
	assert.Equal(t, "ONE", got.Symbol, "existing metadata never overwritten")

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "new token in the conflicting batch still inserted")
}

func TestTokenStore_GetByAddress_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTokenStore(pool)

	_, err := store.GetByAddress(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTokenStore_UpsertBatch_EmptyAndInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTokenStore(pool)

	assert.NoError(t, store.UpsertBatch(ctx, nil))

	err := store.UpsertBatch(ctx, []*domain.Token{{ContractAddr: ""}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
