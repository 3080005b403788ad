// Package main prints volume reports for imported protocols.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"solana-trader-stats/internal/config"
	"solana-trader-stats/internal/stats"
	"solana-trader-stats/internal/storage"
	chstore "solana-trader-stats/internal/storage/clickhouse"
	"solana-trader-stats/internal/storage/memory"
	pgstore "solana-trader-stats/internal/storage/postgres"
)

func main() {
	protocol := flag.String("protocol", "", "Protocol to report on (required)")
	thresholdsFlag := flag.String("thresholds", "", "Comma-separated percentile thresholds (default: built-in set)")
	totalsOnly := flag.Bool("totals", false, "Print only volume totals")
	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *protocol == "" {
		logger.Fatal("--protocol is required")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}

	ctx := context.Background()

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("Storage: %v", err)
	}
	defer closeStore()

	agg := stats.NewAggregator(store, 0)

	totals, err := agg.ComputeTotals(ctx, *protocol)
	if err != nil {
		logger.Fatalf("Compute totals: %v", err)
	}

	fmt.Printf("Protocol: %s\n", totals.Protocol)
	fmt.Printf("Total volume:   %s USD\n", totals.TotalVolume.StringFixed(2))
	fmt.Printf("Total traders:  %d\n", totals.TotalTraders)
	fmt.Printf("Active traders: %d\n", totals.ActiveTraders)

	if *totalsOnly {
		return
	}

	thresholds, err := parseThresholds(*thresholdsFlag)
	if err != nil {
		logger.Fatalf("Parse thresholds: %v", err)
	}

	buckets, err := agg.ComputePercentiles(ctx, *protocol, thresholds)
	if err != nil {
		logger.Fatalf("Compute percentiles: %v", err)
	}

	fmt.Printf("\n%-6s %-10s %-12s %-18s %s\n", "Pct", "Traders", "Ranks", "Volume (USD)", "Share")
	for _, b := range buckets {
		fmt.Printf("%-6d %-10d %-12s %-18s %6.2f%%\n",
			b.Threshold, b.TraderCount, b.RankRange, b.BracketVolume.StringFixed(2), b.VolumeSharePct)
	}
}

// parseThresholds parses the --thresholds flag; empty selects defaults.
func parseThresholds(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}

	var thresholds []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		th, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("malformed threshold %q", part)
		}
		thresholds = append(thresholds, th)
	}
	return thresholds, nil
}

// buildStore connects the configured read backend. Reports never write,
// so no migrations are applied here.
func buildStore(ctx context.Context, cfg *config.Config) (storage.TraderStatStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewTraderStatStore(pool), pool.Close, nil

	case config.BackendClickhouse:
		if cfg.ClickhouseDSN == "" {
			return nil, nil, fmt.Errorf("CLICKHOUSE_DSN is required for the clickhouse backend")
		}
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, nil, err
		}
		return chstore.NewTraderStatStore(conn), func() { conn.Close() }, nil

	default:
		return memory.NewTraderStatStore(), func() {}, nil
	}
}
