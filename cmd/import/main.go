// Package main imports trader volume stats for one or more protocols.
// Executes: submit query → poll execution → fetch pages → batch import
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solana-trader-stats/internal/config"
	"solana-trader-stats/internal/dune"
	"solana-trader-stats/internal/pipeline"
	"solana-trader-stats/internal/storage"
	chstore "solana-trader-stats/internal/storage/clickhouse"
	"solana-trader-stats/internal/storage/memory"
	"solana-trader-stats/internal/storage/migrations"
	pgstore "solana-trader-stats/internal/storage/postgres"
)

func main() {
	protocols := flag.String("protocols", "", "Comma-separated protocols to import (default: all configured)")
	date := flag.String("date", "", "Dataset date tag (YYYY-MM-DD, optional)")
	resume := flag.Bool("resume", false, "Resume from the last committed checkpoint")
	replace := flag.Bool("replace", false, "Delete existing rows before importing")
	flag.Parse()

	logger := log.New(os.Stdout, "[import] ", log.LstdFlags|log.Lshortfile)

	if *resume && *replace {
		logger.Fatal("--resume and --replace are mutually exclusive")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if cfg.DuneAPIKey == "" {
		logger.Fatal("DUNE_API_KEY is required")
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling import...", sig)
		cancel()
	}()

	stats, checkpoints, closeStores, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("Storage: %v", err)
	}
	defer closeStores()

	client := dune.NewClient(cfg.DuneAPIKey)
	poller := dune.NewPoller(dune.PollerOptions{
		Client:      client,
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
		Logger:      logger,
	})

	svc := pipeline.NewService(pipeline.ServiceOptions{
		Client:      client,
		Poller:      poller,
		Stats:       stats,
		Checkpoints: checkpoints,
		Queries:     cfg.Queries,
		PageSize:    cfg.PageSize,
		BatchSize:   cfg.BatchSize,
		Logger:      logger,
	})

	targets := resolveProtocols(*protocols, cfg.Queries)
	if len(targets) == 0 {
		logger.Fatal("No protocols to import")
	}

	failed := 0
	for _, protocol := range targets {
		if ctx.Err() != nil {
			logger.Fatalf("Import cancelled: %v", ctx.Err())
		}

		if *replace {
			if err := stats.DeleteByProtocol(ctx, protocol); err != nil {
				logger.Fatalf("Delete %s rows: %v", protocol, err)
			}
		}

		summary, err := svc.FetchAndImport(ctx, protocol, *date, *resume)
		if err != nil {
			failed++
			var stageErr *pipeline.StageError
			if errors.As(err, &stageErr) {
				logger.Printf("Import %s failed at %s stage: %v", protocol, stageErr.Stage, stageErr.Err)
			} else {
				logger.Printf("Import %s failed: %v", protocol, err)
			}
			continue
		}

		fmt.Printf("%s: inserted=%d skipped=%d invalid=%d resumed=%v duration=%s\n",
			summary.Protocol, summary.Inserted, summary.Skipped, summary.Invalid,
			summary.Resumed, summary.Duration.Round(time.Millisecond))
	}

	if failed > 0 {
		logger.Fatalf("%d of %d imports failed", failed, len(targets))
	}
}

// resolveProtocols expands the --protocols flag against the configured
// query set; empty selects everything configured.
func resolveProtocols(raw string, queries map[string]int64) []string {
	if raw == "" {
		list := make([]string, 0, len(queries))
		for protocol := range queries {
			list = append(list, protocol)
		}
		return list
	}

	var list []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}

// buildStores connects the configured backend and applies migrations.
func buildStores(ctx context.Context, cfg *config.Config) (storage.TraderStatStore, storage.CheckpointStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, nil, nil, fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return pgstore.NewTraderStatStore(pool), pgstore.NewCheckpointStore(pool), pool.Close, nil

	case config.BackendClickhouse:
		if cfg.ClickhouseDSN == "" {
			return nil, nil, nil, fmt.Errorf("CLICKHOUSE_DSN is required for the clickhouse backend")
		}
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return chstore.NewTraderStatStore(conn), chstore.NewCheckpointStore(conn), func() { conn.Close() }, nil

	default:
		return memory.NewTraderStatStore(), memory.NewCheckpointStore(), func() {}, nil
	}
}
