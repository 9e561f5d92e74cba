// Package main serves the informational HTTP API over the indexed data.
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
	"bridge-transfer-indexer/internal/server"
	"bridge-transfer-indexer/internal/storage"
	"bridge-transfer-indexer/internal/storage/memory"
	pgstore "bridge-transfer-indexer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Override HTTP listen address (empty keeps config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Error loading config: %v", err)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	ctx := context.Background()

	var (
		tokenStore    storage.TokenStore
		transferStore storage.TransferStore
	)
	if *useMemory || cfg.PostgresDSN == "" {
		logger.Println("Using in-memory storage")
		tokens := memory.NewTokenStore()
		tokenStore = tokens
		transferStore = memory.NewTransferStore().WithTokenStore(tokens)
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatalf("Error connecting to PostgreSQL: %v", err)
		}
		defer pool.Close()
		tokenStore = pgstore.NewTokenStore(pool)
		transferStore = pgstore.NewTransferStore(pool)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.New(tokenStore, transferStore, logger).Handler(),
	}

	go func() {
		logger.Printf("Starting HTTP server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Printf("Received signal %v, shutting down...", sig)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Shutdown error: %v", err)
	}
}
