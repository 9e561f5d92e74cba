package explorer

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"bridge-transfer-indexer/internal/domain"
)

const sampleResponse = `{
	"status": "1",
	"message": "OK",
	"result": [
		{
			"blockNumber": "4164200",
			"timeStamp": "1622550000",
			"hash": "0xAbC123",
			"from": "0x0000000000000000000000000000000000000000",
			"contractAddress": "0xDAC17F958D2EE523A2206206994597C13D831EC7",
			"to": "0xRecipient",
			"value": "340282366920938463463374607431768211456",
			"tokenName": "Tether USD",
			"tokenSymbol": "USDT",
			"tokenDecimal": "6"
		},
		{
			"blockNumber": "not-a-number",
			"timeStamp": "1622550100",
			"hash": "0xdef456",
			"from": "0xSender",
			"contractAddress": "0xcontract",
			"to": "0xother",
			"value": "garbage",
			"tokenName": "Broken",
			"tokenSymbol": "BRK",
			"tokenDecimal": ""
		}
	]
}`

func TestFetchTokenTransfers_ParsesResponse(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	events, err := client.FetchTokenTransfers(context.Background(), "0x0000000000000000000000000000000000000816", 4164120, MaxBlockSentinel)
	if err != nil {
		t.Fatalf("FetchTokenTransfers failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}

	e := events[0]
	if e.BlockNum != 4164200 {
		t.Errorf("BlockNum = %d, want 4164200", e.BlockNum)
	}
	if e.From != domain.ZeroAddress {
		t.Errorf("From = %q, want zero address", e.From)
	}
	if e.ContractAddr != "0xdac17f958d2ee523a2206206994597c13d831ec7" {
		t.Errorf("ContractAddr not canonicalized: %q", e.ContractAddr)
	}
	// A u128-scale value survives intact.
	want, _ := new(big.Int).SetString("340282366920938463463374607431768211456", 10)
	if e.Value.Cmp(want) != 0 {
		t.Errorf("Value = %s, want %s", e.Value, want)
	}
	if e.UnixTimestamp() != 1622550000 {
		t.Errorf("UnixTimestamp = %d, want 1622550000", e.UnixTimestamp())
	}

	// Malformed numeric fields degrade to defaults.
	b := events[1]
	if b.BlockNum != 0 {
		t.Errorf("Malformed block number should default to 0, got %d", b.BlockNum)
	}
	if b.Value.Sign() != 0 {
		t.Errorf("Malformed value should default to 0, got %s", b.Value)
	}

	q := gotQuery.Load().(url.Values)
	checks := map[string]string{
		"module":     "account",
		"action":     "tokentx",
		"address":    "0x0000000000000000000000000000000000000816",
		"startblock": "4164120",
		"endblock":   "999999999",
		"sort":       "asc",
		"apikey":     "test-key",
	}
	for key, want := range checks {
		if got := q[key]; len(got) != 1 || got[0] != want {
			t.Errorf("Query param %s = %v, want %q", key, got, want)
		}
	}
}

func TestFetchTokenTransfers_NoTransactionsIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"No transactions found","result":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	events, err := client.FetchTokenTransfers(context.Background(), "0xaddr", 0, MaxBlockSentinel)
	if err != nil {
		t.Fatalf("Expected clean empty result, got error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}

func TestFetchTokenTransfers_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"NOTOK: invalid API key","result":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key")
	_, err := client.FetchTokenTransfers(context.Background(), "0xaddr", 0, MaxBlockSentinel)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Expected ErrFetch, got %v", err)
	}
}

func TestFetchTokenTransfers_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"status":"0","message":"No transactions found","result":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", WithMaxRetries(2), WithRetryDelay(10*time.Millisecond))
	_, err := client.FetchTokenTransfers(context.Background(), "0xaddr", 0, MaxBlockSentinel)
	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls, got %d", calls.Load())
	}
}

func TestFetchTokenTransfers_ExhaustedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", WithMaxRetries(1), WithRetryDelay(time.Millisecond))
	_, err := client.FetchTokenTransfers(context.Background(), "0xaddr", 0, MaxBlockSentinel)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Expected ErrFetch after exhausted retries, got %v", err)
	}
}

func TestFilterBridgeInbound(t *testing.T) {
	events := []*domain.TransferEvent{
		{TxHash: "0x1", From: domain.ZeroAddress, Value: big.NewInt(1)},
		{TxHash: "0x2", From: "0xsender", Value: big.NewInt(2)},
		{TxHash: "0x3", From: domain.ZeroAddress, Value: big.NewInt(3)},
	}

	filtered := FilterBridgeInbound(events)
	if len(filtered) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(filtered))
	}
	if filtered[0].TxHash != "0x1" || filtered[1].TxHash != "0x3" {
		t.Errorf("Filter changed relative order: %s, %s", filtered[0].TxHash, filtered[1].TxHash)
	}
}

func TestFilterBridgeInbound_Empty(t *testing.T) {
	if got := FilterBridgeInbound(nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %d", len(got))
	}
}
