package memory

import (
	"context"
	"errors"
	"testing"

	"bridge-transfer-indexer/internal/domain"
	"bridge-transfer-indexer/internal/storage"
)

func TestTokenStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()

	tokens := []*domain.Token{
		{ContractAddr: "0xBBB", Name: "Beta", Symbol: "BET", Decimals: 18},
		{ContractAddr: "0xaaa", Name: "Alpha", Symbol: "ALP", Decimals: 6},
	}
	if err := store.UpsertBatch(ctx, tokens); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}

	// Lookup is case-insensitive on address.
	got, err := store.GetByAddress(ctx, "0xBbB")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if got.Symbol != "BET" {
		t.Errorf("Symbol = %q, want BET", got.Symbol)
	}
	if got.ContractAddr != "0xbbb" {
		t.Errorf("Address not canonicalized: %q", got.ContractAddr)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 tokens, got %d", len(all))
	}
	if all[0].ContractAddr != "0xaaa" || all[1].ContractAddr != "0xbbb" {
		t.Error("GetAll not ordered by address")
	}
}

func TestTokenStore_InsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()

	if err := store.UpsertBatch(ctx, []*domain.Token{{ContractAddr: "0xaaa", Symbol: "ONE", Decimals: 6}}); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}
	if err := store.UpsertBatch(ctx, []*domain.Token{{ContractAddr: "0xaaa", Symbol: "TWO", Decimals: 8}}); err != nil {
		t.Fatalf("Second UpsertBatch failed: %v", err)
	}

	got, err := store.GetByAddress(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if got.Symbol != "ONE" {
		t.Errorf("First write should win, got %q", got.Symbol)
	}
}

func TestTokenStore_GetByAddress_NotFound(t *testing.T) {
	_, err := NewTokenStore().GetByAddress(context.Background(), "0xmissing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestTokenStore_InvalidInput(t *testing.T) {
	err := NewTokenStore().UpsertBatch(context.Background(), []*domain.Token{{ContractAddr: ""}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestTokenStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()

	if err := store.UpsertBatch(ctx, []*domain.Token{{ContractAddr: "0xaaa", Symbol: "ALP", Decimals: 6}}); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}

	got, _ := store.GetByAddress(ctx, "0xaaa")
	got.Symbol = "MUTATED"

	again, _ := store.GetByAddress(ctx, "0xaaa")
	if again.Symbol != "ALP" {
		t.Error("Store state leaked through returned pointer")
	}
}
