package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridge-transfer-indexer/internal/domain"
	"bridge-transfer-indexer/internal/storage"
)

func TestPriceSampleStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceSampleStore(conn)
	ctx := context.Background()

	// Empty insert is a no-op
	err := store.InsertBulk(ctx, nil)
	assert.NoError(t, err)

	samples := []*domain.PriceSample{
		{Symbol: "ETH", Timestamp: 2000, Open: 2600, High: 2700, Low: 2500, Close: 2650},
		{Symbol: "ETH", Timestamp: 1000, Open: 2500, High: 2600, Low: 2400, Close: 2550},
	}
	err = store.InsertBulk(ctx, samples)
	require.NoError(t, err)

	got, err := store.GetBySymbol(ctx, "ETH")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].Timestamp, "ordered ascending")
	assert.Equal(t, 2500.0, got[0].Open)
	assert.Equal(t, 2600.0, got[0].High)
	assert.Equal(t, 2400.0, got[0].Low)
	assert.Equal(t, 2550.0, got[0].Close)
}

func TestPriceSampleStore_InsertBulk_IntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceSampleStore(conn)
	ctx := context.Background()

	samples := []*domain.PriceSample{
		{Symbol: "ETH", Timestamp: 1000, Close: 2500},
		{Symbol: "ETH", Timestamp: 1000, Close: 2600},
	}
	err := store.InsertBulk(ctx, samples)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPriceSampleStore_GetBySymbol_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceSampleStore(conn)

	got, err := store.GetBySymbol(context.Background(), "DOGE")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPriceSampleStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceSampleStore(conn)
	ctx := context.Background()

	samples := []*domain.PriceSample{
		{Symbol: "ETH", Timestamp: 1000, Close: 2500},
		{Symbol: "ETH", Timestamp: 2000, Close: 2600},
		{Symbol: "ETH", Timestamp: 3000, Close: 2700},
		{Symbol: "BTC", Timestamp: 2000, Close: 35000},
	}
	require.NoError(t, store.InsertBulk(ctx, samples))

	got, err := store.GetByTimeRange(ctx, "ETH", 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].Timestamp)
	assert.Equal(t, int64(2000), got[1].Timestamp)
	for _, p := range got {
		assert.Equal(t, "ETH", p.Symbol)
	}
}
