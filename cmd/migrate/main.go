// Package main applies the embedded schema migrations to PostgreSQL and,
// when configured, ClickHouse.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"bridge-transfer-indexer/internal/config"
	chstore "bridge-transfer-indexer/internal/storage/clickhouse"
	"bridge-transfer-indexer/internal/storage/migrations"
	pgstore "bridge-transfer-indexer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	reset := flag.Bool("reset", false, "Drop all tables before applying migrations")

	flag.Parse()

	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Error loading config: %v", err)
	}
	if cfg.PostgresDSN == "" {
		logger.Fatal("postgres_dsn is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("Error connecting to PostgreSQL: %v", err)
	}
	defer pool.Close()

	if *reset {
		logger.Println("Dropping existing tables...")
		if err := migrations.ResetPostgres(ctx, pool); err != nil {
			logger.Fatalf("Error resetting schema: %v", err)
		}
	}

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Error applying PostgreSQL migrations: %v", err)
	}
	logger.Println("PostgreSQL migrations applied")

	if cfg.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			logger.Fatalf("Error connecting to ClickHouse: %v", err)
		}
		defer conn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			logger.Fatalf("Error applying ClickHouse migrations: %v", err)
		}
		logger.Println("ClickHouse migrations applied")
	}
}
