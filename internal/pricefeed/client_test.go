package pricefeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

const sampleSeries = `{
	"status": "ok",
	"values": [
		{"datetime": "2021-06-01 12:00:00", "open": "2600", "high": "2700", "low": "2500", "close": "2600"},
		{"datetime": "2021-06-01 11:00:00", "open": "2500", "high": "2600", "low": "2400", "close": "2500"},
		{"datetime": "bogus", "open": "1", "high": "1", "low": "1", "close": "1"}
	]
}`

func TestTimeSeries_ParsesAndSortsAscending(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Write([]byte(sampleSeries))
	}))
	defer server.Close()

	client := NewClient(server.URL, "feed-key")
	samples, err := client.TimeSeries(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("TimeSeries failed: %v", err)
	}

	// Unparseable datetime row dropped, remaining two sorted ascending.
	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(samples))
	}
	if samples[0].Timestamp >= samples[1].Timestamp {
		t.Errorf("Samples not ascending: %d, %d", samples[0].Timestamp, samples[1].Timestamp)
	}

	first := samples[0]
	if first.Symbol != "ETH" {
		t.Errorf("Symbol = %q, want ETH", first.Symbol)
	}
	if first.Open != 2500 || first.Close != 2500 {
		t.Errorf("Unexpected OHLC: %+v", first)
	}
	if first.Estimate() != 2500 {
		t.Errorf("Estimate = %v, want 2500", first.Estimate())
	}
	// 2021-06-01 11:00:00 UTC
	if first.Timestamp != 1622545200 {
		t.Errorf("Timestamp = %d, want 1622545200", first.Timestamp)
	}

	q := gotQuery.Load().(url.Values)
	if got := q.Get("symbol"); got != "ETH/USD" {
		t.Errorf("symbol param = %q, want ETH/USD", got)
	}
	if got := q.Get("apikey"); got != "feed-key" {
		t.Errorf("apikey param = %q, want feed-key", got)
	}
}

func TestTimeSeries_EmptySeriesIsErrNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","values":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.TimeSeries(context.Background(), "ETH")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Expected ErrNoData, got %v", err)
	}
}

func TestTimeSeries_FeedErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"invalid api key"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad")
	_, err := client.TimeSeries(context.Background(), "ETH")
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Expected ErrFetch, got %v", err)
	}
}

func TestTimeSeries_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(sampleSeries))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", WithMaxRetries(2))
	clientWithFastRetry(client)

	samples, err := client.TimeSeries(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if len(samples) != 2 {
		t.Errorf("Expected 2 samples, got %d", len(samples))
	}
}

// clientWithFastRetry shortens backoff so retry tests stay fast.
func clientWithFastRetry(c *Client) {
	c.retryDelay = 10 * time.Millisecond
	c.maxDelay = 20 * time.Millisecond
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"2500.50", 2500.50},
		{"0", 0},
		{"", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		if got := parsePrice(tt.in); got != tt.want {
			t.Errorf("parsePrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
