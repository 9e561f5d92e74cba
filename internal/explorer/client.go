// Package explorer fetches ERC-20 transfer events from an
// etherscan-compatible block-explorer API.
package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bridge-transfer-indexer/internal/domain"
)

// ErrFetch indicates a network, auth or rate-limit failure against the
// explorer API. Fatal for the run: the orchestrator aborts with the
// watermark untouched.
var ErrFetch = errors.New("explorer fetch failed")

// MaxBlockSentinel bounds the practically unbounded upper end of a fetch
// window.
const MaxBlockSentinel = 999999999

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Client fetches token transfer events over HTTP.
type Client struct {
	baseURL     string
	apiKey      string
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

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new explorer API client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTokenTransfers returns all ERC-20 transfer events involving the
// given address in [fromBlock, toBlock], sorted ascending by block. The
// explorer response is untrusted: malformed numeric fields degrade to
// defaults rather than failing the fetch.
func (c *Client) FetchTokenTransfers(ctx context.Context, address string, fromBlock, toBlock int64) ([]*domain.TransferEvent, error) {
	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "tokentx")
	q.Set("address", address)
	q.Set("startblock", strconv.FormatInt(fromBlock, 10))
	q.Set("endblock", strconv.FormatInt(toBlock, 10))
	q.Set("sort", "asc")
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}

	var resp tokenTxResponse
	if err := c.get(ctx, q, &resp); err != nil {
		return nil, err
	}

	// Status "0" with an empty result is the explorer's way of saying
	// "no transactions found"; anything else under status "0" is a real
	// failure (bad key, rate limit).
	if resp.Status != "1" {
		if len(resp.Result) == 0 && strings.Contains(strings.ToLower(resp.Message), "no transactions") {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: explorer status %q: %s", ErrFetch, resp.Status, resp.Message)
	}

	events := make([]*domain.TransferEvent, 0, len(resp.Result))
	for _, row := range resp.Result {
		events = append(events, rowToEvent(row))
	}
	return events, nil
}

// rowToEvent converts a raw explorer row, applying the defaulting policy
// for untrusted fields: missing block number -> 0, unparseable value -> 0.
func rowToEvent(row tokenTxRow) *domain.TransferEvent {
	blockNum, err := strconv.ParseInt(row.BlockNumber, 10, 64)
	if err != nil {
		blockNum = 0
	}

	value, ok := new(big.Int).SetString(row.Value, 10)
	if !ok {
		value = new(big.Int)
	}

	return &domain.TransferEvent{
		TxHash:       row.Hash,
		From:         domain.CanonicalAddr(row.From),
		To:           domain.CanonicalAddr(row.To),
		ContractAddr: domain.CanonicalAddr(row.ContractAddr),
		Value:        value,
		BlockNum:     blockNum,
		Timestamp:    row.TimeStamp,
		TokenName:    row.TokenName,
		TokenSymbol:  row.TokenSymbol,
		TokenDecimal: row.TokenDecimal,
	}
}

// FilterBridgeInbound keeps only transfers sent from the zero address,
// this pipeline's convention for mint/bridge-inbound events. Everything
// else is discarded, not stored.
func FilterBridgeInbound(events []*domain.TransferEvent) []*domain.TransferEvent {
	var filtered []*domain.TransferEvent
	for _, e := range events {
		if e.From == domain.ZeroAddress {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// get performs the HTTP request with retries and exponential backoff.
// All exits other than a decoded 200 response wrap ErrFetch.
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
			// Exponential backoff
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

		// Handle rate limiting
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
