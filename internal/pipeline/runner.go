// Package pipeline orchestrates one scheduled ingestion run: resolve the
// resume block, fetch and filter transfer events, reconcile the token
// registry, match prices, normalize to USD, and persist in idempotent
// chunks.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"bridge-transfer-indexer/internal/domain"
	"bridge-transfer-indexer/internal/explorer"
	"bridge-transfer-indexer/internal/observability"
	"bridge-transfer-indexer/internal/pricing"
	"bridge-transfer-indexer/internal/registry"
	"bridge-transfer-indexer/internal/storage"
)

// DefaultChunkSize is the number of records per persistence statement,
// bounded by the store's write-size limits.
const DefaultChunkSize = 250

// EventSource fetches raw transfer events for an address and block range.
type EventSource interface {
	FetchTokenTransfers(ctx context.Context, address string, fromBlock, toBlock int64) ([]*domain.TransferEvent, error)
}

// PriceSource fetches an asset's price time series, ascending by timestamp.
type PriceSource interface {
	TimeSeries(ctx context.Context, symbol string) ([]*domain.PriceSample, error)
}

// Runner executes the ingestion pipeline. One Run call is one scheduled
// invocation; the external scheduler serializes invocations against a
// given store.
type Runner struct {
	events     EventSource
	prices     PriceSource
	tokens     storage.TokenStore
	transfers  storage.TransferStore
	archive    storage.PriceSampleStore
	classifier Classifier
	cursor     *Cursor

	filterAddress string
	baseAsset     string
	chunkSize     int
	rules         pricing.SymbolRules
	logger        *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	EventSource   EventSource
	PriceSource   PriceSource
	TokenStore    storage.TokenStore
	TransferStore storage.TransferStore

	// PriceArchive is optional; fetched price series are appended to it
	// when set, and archive failures never affect the run.
	PriceArchive storage.PriceSampleStore

	// Classifier tags the destination chain. Default: StaticClassifier
	// with DefaultDestinationChain.
	Classifier Classifier

	// FilterAddress is the address whose token transfers are ingested.
	FilterAddress string

	// BaseAsset is the symbol priced against the feed for non-stable,
	// non-skipped tokens. Default: "ETH".
	BaseAsset string

	// GenesisBlock overrides the resume point for an empty store.
	GenesisBlock int64

	// ChunkSize overrides the persistence chunk size.
	ChunkSize int

	// SymbolRules override the stablecoin and skip lists.
	SymbolRules *pricing.SymbolRules

	Logger *log.Logger
}

// NewRunner creates a new pipeline runner.
func NewRunner(opts RunnerOptions) *Runner {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = StaticClassifier{ChainID: DefaultDestinationChain}
	}

	baseAsset := opts.BaseAsset
	if baseAsset == "" {
		baseAsset = "ETH"
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	rules := pricing.DefaultSymbolRules()
	if opts.SymbolRules != nil {
		rules = *opts.SymbolRules
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		events:        opts.EventSource,
		prices:        opts.PriceSource,
		tokens:        opts.TokenStore,
		transfers:     opts.TransferStore,
		archive:       opts.PriceArchive,
		classifier:    classifier,
		cursor:        NewCursor(opts.TransferStore, opts.GenesisBlock, opts.Logger),
		filterAddress: domain.CanonicalAddr(opts.FilterAddress),
		baseAsset:     baseAsset,
		chunkSize:     chunkSize,
		rules:         rules,
		logger:        logger,
	}
}

// RunResult contains counters from one pipeline run.
type RunResult struct {
	ResumeBlock        int64
	EventsFetched      int
	EventsKept         int
	TokensDiscovered   int
	TransfersPersisted int
	ChunksFailed       int
}

// Run executes one ingestion pass. A fetch or price-series failure aborts
// with no side effects since the previous state; an empty filtered batch is
// a clean early exit, not an error. Persistence is at-least-once: a failed
// chunk is logged and skipped while earlier chunks stay committed, and the
// tx_hash primary key absorbs the re-delivery on the next run.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{}

	// ResolveCursor
	result.ResumeBlock = r.cursor.ResumeBlock(ctx)
	observability.DefaultMetrics.ResumeBlock.Set(float64(result.ResumeBlock))
	r.logger.Printf("Resuming ingestion from block %d", result.ResumeBlock)

	// FetchEvents
	fetchStart := time.Now()
	events, err := r.events.FetchTokenTransfers(ctx, r.filterAddress, result.ResumeBlock, explorer.MaxBlockSentinel)
	observability.RecordAPILatency("explorer", time.Since(fetchStart).Seconds())
	if err != nil {
		observability.RecordFetchError("explorer")
		observability.RecordRun("error", time.Since(start).Seconds())
		return result, fmt.Errorf("fetch transfer events: %w", err)
	}
	result.EventsFetched = len(events)
	observability.DefaultMetrics.EventsFetched.Add(float64(len(events)))

	filtered := explorer.FilterBridgeInbound(events)
	result.EventsKept = len(filtered)
	observability.DefaultMetrics.EventsFiltered.Add(float64(len(filtered)))

	// EarlyExit: nothing bridged in since the watermark is a valid
	// steady state.
	if len(filtered) == 0 {
		r.logger.Printf("No bridge-inbound transfers after block %d", result.ResumeBlock)
		observability.RecordRun("empty", time.Since(start).Seconds())
		return result, nil
	}

	// The price fetch depends on the event batch only for iteration
	// order, so it runs concurrently with registry reconciliation and
	// joins before MatchAndNormalize.
	type priceResult struct {
		series []*domain.PriceSample
		err    error
	}
	priceCh := make(chan priceResult, 1)
	go func() {
		start := time.Now()
		series, err := r.prices.TimeSeries(ctx, r.baseAsset)
		observability.RecordAPILatency("pricefeed", time.Since(start).Seconds())
		priceCh <- priceResult{series, err}
	}()

	// ReconcileTokens. Token insertion happens before transfer insertion
	// so the foreign key is satisfiable; a registry failure degrades to a
	// log line rather than aborting the run.
	tokenSet := registry.BuildTokenSet(filtered)
	result.TokensDiscovered = len(tokenSet)
	observability.DefaultMetrics.TokensDiscovered.Add(float64(len(tokenSet)))
	if err := registry.Reconcile(ctx, r.tokens, tokenSet); err != nil {
		r.logger.Printf("Error reconciling token registry: %v", err)
	}

	// FetchPriceSeries join
	pr := <-priceCh
	if pr.err != nil {
		observability.RecordFetchError("pricefeed")
		observability.RecordRun("error", time.Since(start).Seconds())
		return result, fmt.Errorf("fetch price series: %w", pr.err)
	}
	observability.DefaultMetrics.PriceSamplesGot.Add(float64(len(pr.series)))
	r.archivePriceSeries(ctx, pr.series)

	// MatchAndNormalize
	records, err := r.matchAndNormalize(filtered, pr.series, tokenSet)
	if err != nil {
		observability.RecordRun("error", time.Since(start).Seconds())
		return result, err
	}

	// PersistBatch
	persisted, failed := r.persistChunks(ctx, records)
	result.TransfersPersisted = persisted
	result.ChunksFailed = failed

	r.logger.Printf("Run complete: fetched=%d kept=%d tokens=%d persisted=%d failedChunks=%d",
		result.EventsFetched, result.EventsKept, result.TokensDiscovered, persisted, failed)
	observability.RecordRun("ok", time.Since(start).Seconds())
	observability.DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()
	return result, nil
}

// matchAndNormalize converts filtered events into persisted records with
// USD values. Transfers are sorted by timestamp first: the monotonic price
// sweep is only correct over ascending targets, and the explorer's
// ascending order is assumed but not guaranteed.
func (r *Runner) matchAndNormalize(filtered []*domain.TransferEvent, series []*domain.PriceSample, tokenSet map[string]*domain.Token) ([]*domain.TransferRecord, error) {
	matcher, err := pricing.NewMatcher(series)
	if err != nil {
		return nil, fmt.Errorf("build price matcher: %w", err)
	}

	events := make([]*domain.TransferEvent, len(filtered))
	copy(events, filtered)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].UnixTimestamp() < events[j].UnixTimestamp()
	})

	records := make([]*domain.TransferRecord, 0, len(events))
	for _, e := range events {
		record := &domain.TransferRecord{
			TxHash:     e.TxHash,
			TokenAddr:  e.ContractAddr,
			TokenCount: e.Value,
			BlockNum:   e.BlockNum,
			Timestamp:  e.Timestamp,
			ToChain:    r.classifier.Classify(e),
		}

		symbol := ""
		decimals := uint32(domain.DefaultDecimals)
		if tok, ok := tokenSet[e.ContractAddr]; ok {
			symbol = tok.Symbol
			decimals = tok.Decimals
		}

		switch {
		case r.rules.IsStable(symbol):
			// Pegged 1:1; skip the feed entirely.
			record.USD = pricing.ToUSD(1.0, e.Value, decimals)
		case r.rules.IsSkipped(symbol):
			// No price series wired for this asset yet; USD stays 0.
		default:
			rate := matcher.EstimateAt(e.UnixTimestamp())
			record.USD = pricing.ToUSD(rate, e.Value, decimals)
		}

		records = append(records, record)
	}
	return records, nil
}

// persistChunks writes records in fixed-size chunks. A chunk failure is
// logged and skipped; earlier chunks stay committed.
func (r *Runner) persistChunks(ctx context.Context, records []*domain.TransferRecord) (persisted, failed int) {
	for from := 0; from < len(records); from += r.chunkSize {
		to := from + r.chunkSize
		if to > len(records) {
			to = len(records)
		}
		chunk := records[from:to]

		if err := r.transfers.InsertBatch(ctx, chunk); err != nil {
			r.logger.Printf("Error persisting chunk [%d:%d]: %v", from, to, err)
			observability.DefaultMetrics.ChunkErrors.Inc()
			failed++
			continue
		}
		persisted += len(chunk)

		if last := chunk[len(chunk)-1]; last.BlockNum > 0 {
			observability.DefaultMetrics.HighestBlockSeen.Set(float64(last.BlockNum))
		}
	}
	observability.DefaultMetrics.TransfersPersisted.Add(float64(persisted))
	return persisted, failed
}

// archivePriceSeries appends the fetched series to the archive store when
// one is configured. Best effort only.
func (r *Runner) archivePriceSeries(ctx context.Context, series []*domain.PriceSample) {
	if r.archive == nil || len(series) == 0 {
		return
	}
	if err := r.archive.InsertBulk(ctx, series); err != nil {
		r.logger.Printf("Error archiving price series: %v", err)
	}
}
