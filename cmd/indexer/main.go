// Package main runs the scheduled ingestion pipeline: fetch bridge-inbound
// token transfers, value them in USD, persist them idempotently.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bridge-transfer-indexer/internal/config"
	"bridge-transfer-indexer/internal/explorer"
	"bridge-transfer-indexer/internal/observability"
	"bridge-transfer-indexer/internal/pipeline"
	"bridge-transfer-indexer/internal/pricefeed"
	"bridge-transfer-indexer/internal/pricing"
	"bridge-transfer-indexer/internal/storage"
	chstore "bridge-transfer-indexer/internal/storage/clickhouse"
	"bridge-transfer-indexer/internal/storage/memory"
	"bridge-transfer-indexer/internal/storage/migrations"
	pgstore "bridge-transfer-indexer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	once := flag.Bool("once", false, "Run a single ingestion pass and exit")
	interval := flag.Duration("interval", 0, "Override run interval")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", "", "Override Prometheus metrics HTTP address (empty keeps config)")

	flag.Parse()

	logger := log.New(os.Stdout, "[indexer] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Error loading config: %v", err)
	}
	if *interval > 0 {
		cfg.RunInterval = *interval
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	// Start metrics server if enabled
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{}, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	runner, cleanup, err := buildRunner(ctx, cfg, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Error building pipeline: %v", err)
	}
	defer cleanup()

	if cfg.PriceFeedWSURL != "" && !*once {
		startPriceStream(ctx, cfg, logger)
	}

	if *once {
		if _, err := runner.Run(ctx); err != nil {
			logger.Printf("Run error: %v", err)
		}
		done <- struct{}{}
		return
	}

	logger.Printf("Scheduler started, run interval: %v", cfg.RunInterval)
	ticker := time.NewTicker(cfg.RunInterval)
	defer ticker.Stop()

	// First pass immediately, then on the ticker.
	if _, err := runner.Run(ctx); err != nil {
		logger.Printf("Run error: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Println("Scheduler stopping...")
			done <- struct{}{}
			return
		case <-ticker.C:
			if _, err := runner.Run(ctx); err != nil {
				logger.Printf("Run error: %v", err)
			}
		}
	}
}

// startPriceStream subscribes to the feed's WebSocket and keeps the live
// price gauge current. Failures only disable the gauge, never the pipeline.
func startPriceStream(ctx context.Context, cfg *config.Config, logger *log.Logger) {
	ws, err := pricefeed.NewWSClient(ctx, cfg.PriceFeedWSURL, nil)
	if err != nil {
		logger.Printf("Price stream unavailable: %v", err)
		return
	}
	if err := ws.Subscribe(cfg.BaseAsset); err != nil {
		logger.Printf("Price stream subscribe failed: %v", err)
		ws.Close()
		return
	}
	logger.Printf("Price stream connected, tracking %s", cfg.BaseAsset)

	go func() {
		defer ws.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case tick, ok := <-ws.Ticks():
				if !ok {
					return
				}
				observability.UpdateLivePrice(tick.Symbol, tick.Price)
			}
		}
	}()
}

// buildRunner wires stores, API clients and the pipeline from config.
func buildRunner(ctx context.Context, cfg *config.Config, useMemory bool, logger *log.Logger) (*pipeline.Runner, func(), error) {
	var (
		tokenStore    storage.TokenStore
		transferStore storage.TransferStore
		cleanups      []func()
	)

	if useMemory || cfg.PostgresDSN == "" {
		logger.Println("Using in-memory storage")
		tokens := memory.NewTokenStore()
		tokenStore = tokens
		transferStore = memory.NewTransferStore().WithTokenStore(tokens)
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}

		tokenStore = pgstore.NewTokenStore(pool)
		transferStore = pgstore.NewTransferStore(pool)
	}

	var archive storage.PriceSampleStore
	if cfg.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			logger.Printf("ClickHouse unavailable, price archive disabled: %v", err)
		} else {
			cleanups = append(cleanups, func() { conn.Close() })
			if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
				logger.Printf("ClickHouse migrations failed, price archive disabled: %v", err)
			} else {
				archive = chstore.NewPriceSampleStore(conn)
			}
		}
	}

	rules := pricing.SymbolRules{Stable: cfg.StableSymbols, Skip: cfg.SkipSymbols}

	runner := pipeline.NewRunner(pipeline.RunnerOptions{
		EventSource:   explorer.NewClient(cfg.ExplorerURL, cfg.ExplorerAPIKey),
		PriceSource:   pricefeed.NewClient(cfg.PriceFeedURL, cfg.PriceFeedAPIKey),
		TokenStore:    tokenStore,
		TransferStore: transferStore,
		PriceArchive:  archive,
		FilterAddress: cfg.FilterAddress,
		BaseAsset:     cfg.BaseAsset,
		GenesisBlock:  cfg.GenesisBlock,
		ChunkSize:     cfg.ChunkSize,
		SymbolRules:   &rules,
		Logger:        logger,
	})

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return runner, cleanup, nil
}
