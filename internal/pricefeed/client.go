// Package pricefeed fetches asset price time series from an external
// market-data API, over HTTP for historical series and WebSocket for live
// ticks.
package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"bridge-transfer-indexer/internal/domain"
)

// Errors returned by the price feed client.
var (
	// ErrFetch indicates a network, auth or rate-limit failure against
	// the price feed API.
	ErrFetch = errors.New("price feed fetch failed")

	// ErrNoData is returned when the feed answers with an empty series.
	// An asset with no samples cannot price anything; fatal for the run.
	ErrNoData = errors.New("price feed returned no samples")
)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
	DefaultInterval   = "1h"
	DefaultOutputSize = 168 // one week of hourly samples
)

// datetimeLayout is the feed's timestamp format, wall clock in UTC.
const datetimeLayout = "2006-01-02 15:04:05"

// Client fetches price time series over HTTP.
type Client struct {
	baseURL     string
	apiKey      string
	interval    string
	outputSize  int
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithInterval sets the sample interval requested from the feed.
func WithInterval(interval string) ClientOption {
	return func(c *Client) {
		c.interval = interval
	}
}

// WithOutputSize sets the number of samples requested from the feed.
func WithOutputSize(n int) ClientOption {
	return func(c *Client) {
		c.outputSize = n
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new price feed client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		interval:    DefaultInterval,
		outputSize:  DefaultOutputSize,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: 2.0,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// timeSeriesResponse is the feed's time_series envelope. Values arrive
// newest-first with string-encoded OHLC fields.
type timeSeriesResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
	} `json:"values"`
}

// TimeSeries fetches the price series for an asset symbol, returned
// ascending by timestamp. Samples with an unparseable datetime are
// dropped; an empty resulting series is ErrNoData.
func (c *Client) TimeSeries(ctx context.Context, symbol string) ([]*domain.PriceSample, error) {
	q := url.Values{}
	q.Set("symbol", symbol+"/USD")
	q.Set("interval", c.interval)
	q.Set("outputsize", strconv.Itoa(c.outputSize))
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}

	var resp timeSeriesResponse
	if err := c.get(ctx, q, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "" && resp.Status != "ok" {
		return nil, fmt.Errorf("%w: feed status %q: %s", ErrFetch, resp.Status, resp.Message)
	}

	samples := make([]*domain.PriceSample, 0, len(resp.Values))
	for _, v := range resp.Values {
		ts, err := time.ParseInLocation(datetimeLayout, v.Datetime, time.UTC)
		if err != nil {
			continue
		}
		samples = append(samples, &domain.PriceSample{
			Symbol:    symbol,
			Timestamp: ts.Unix(),
			Open:      parsePrice(v.Open),
			High:      parsePrice(v.High),
			Low:       parsePrice(v.Low),
			Close:     parsePrice(v.Close),
		})
	}

	if len(samples) == 0 {
		return nil, ErrNoData
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp < samples[j].Timestamp
	})
	return samples, nil
}

// parsePrice parses a string-encoded price, 0 on failure.
func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// get performs the HTTP request with retries and exponential backoff.
func (c *Client) get(ctx context.Context, q url.Values, result interface{}) error {
	reqURL := c.baseURL + "?" + q.Encode()

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrFetch, ctx.Err())
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("%w: create request: %v", ErrFetch, err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		}

		if err := json.Unmarshal(body, result); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		return nil
	}

	return fmt.Errorf("%w: max retries exceeded: %v", ErrFetch, lastErr)
}
