package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend names.
const (
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
	BackendMemory     = "memory"
)

// Config carries all runtime settings. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	DuneAPIKey string

	StoreBackend  string
	PostgresDSN   string
	ClickhouseDSN string

	PageSize        int64
	BatchSize       int
	PollInterval    time.Duration
	PollMaxAttempts int

	CronSpec string

	// Queries maps protocol identifiers to saved query IDs.
	Queries map[string]int64
}

// defaultQueries are the saved volume queries per protocol.
var defaultQueries = map[string]int64{
	"bullx":   4235678,
	"photon":  4235681,
	"trojan":  4235684,
	"bonkbot": 4235687,
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		DuneAPIKey:      getEnv("DUNE_API_KEY", ""),
		StoreBackend:    getEnv("STORE_BACKEND", BackendPostgres),
		PostgresDSN:     getEnv("POSTGRES_DSN", ""),
		ClickhouseDSN:   getEnv("CLICKHOUSE_DSN", ""),
		PageSize:        getEnvInt64("PAGE_SIZE", 1000),
		BatchSize:       int(getEnvInt64("BATCH_SIZE", 1000)),
		PollInterval:    getEnvDuration("POLL_INTERVAL", 5*time.Second),
		PollMaxAttempts: int(getEnvInt64("POLL_MAX_ATTEMPTS", 120)),
		CronSpec:        getEnv("CRON_SPEC", "0 30 2 * * *"),
	}

	queries, err := parseQueries(getEnv("PROTOCOL_QUERIES", ""))
	if err != nil {
		return nil, err
	}
	cfg.Queries = queries

	switch cfg.StoreBackend {
	case BackendPostgres, BackendClickhouse, BackendMemory:
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	return cfg, nil
}

// parseQueries parses a "protocol:queryID,protocol:queryID" list. An
// empty value selects the built-in query set.
func parseQueries(raw string) (map[string]int64, error) {
	if raw == "" {
		queries := make(map[string]int64, len(defaultQueries))
		for protocol, id := range defaultQueries {
			queries[protocol] = id
		}
		return queries, nil
	}

	queries := make(map[string]int64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		protocol, idStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("malformed query mapping %q", pair)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed query ID in %q", pair)
		}
		queries[strings.TrimSpace(protocol)] = id
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("PROTOCOL_QUERIES contained no mappings")
	}
	return queries, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
