// Package main runs scheduled daily imports for all configured protocols.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"solana-trader-stats/internal/config"
	"solana-trader-stats/internal/dune"
	"solana-trader-stats/internal/pipeline"
	"solana-trader-stats/internal/storage"
	chstore "solana-trader-stats/internal/storage/clickhouse"
	"solana-trader-stats/internal/storage/memory"
	"solana-trader-stats/internal/storage/migrations"
	pgstore "solana-trader-stats/internal/storage/postgres"
)

// runTimeout bounds one full import cycle across all protocols.
const runTimeout = 2 * time.Hour

func main() {
	logger := log.New(os.Stdout, "[scheduler] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if cfg.DuneAPIKey == "" {
		logger.Fatal("DUNE_API_KEY is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

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

	protocols := make([]string, 0, len(cfg.Queries))
	for protocol := range cfg.Queries {
		protocols = append(protocols, protocol)
	}
	sort.Strings(protocols)

	// Seconds field, optional
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	_, err = c.AddFunc(cfg.CronSpec, func() {
		// keep each run bounded
		rctx, rcancel := context.WithTimeout(ctx, runTimeout)
		defer rcancel()
		runImports(rctx, logger, svc, protocols)
	})
	if err != nil {
		logger.Fatalf("Schedule %q: %v", cfg.CronSpec, err)
	}

	logger.Printf("Scheduling imports for %v with spec %q", protocols, cfg.CronSpec)
	c.Start()

	sig := <-sigCh
	logger.Printf("Received signal %v, stopping scheduler...", sig)
	cancel()

	// Let a running import cycle finish before exiting
	<-c.Stop().Done()
	logger.Println("Shutdown complete")
}

// runImports executes one import cycle, tagging rows with today's date.
func runImports(ctx context.Context, logger *log.Logger, svc *pipeline.Service, protocols []string) {
	date := time.Now().UTC().Format("2006-01-02")
	logger.Printf("Starting import cycle for %s", date)

	for _, protocol := range protocols {
		if ctx.Err() != nil {
			logger.Printf("Import cycle interrupted: %v", ctx.Err())
			return
		}

		summary, err := svc.FetchAndImport(ctx, protocol, date, false)
		if err != nil {
			logger.Printf("Import %s failed: %v", protocol, err)
			continue
		}
		logger.Printf("Imported %s: inserted=%d skipped=%d invalid=%d",
			protocol, summary.Inserted, summary.Skipped, summary.Invalid)
	}
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
