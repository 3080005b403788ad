package domain

import "github.com/shopspring/decimal"

// ChainSolana tags stats sourced from Solana protocol queries.
const ChainSolana = "solana"

// TraderStat represents one trader's aggregate activity for a protocol.
// Corresponds to trader_stats table.
type TraderStat struct {
	ID        int64           // BIGSERIAL primary key (0 until stored)
	Protocol  string          // protocol identifier, e.g. "bullx"
	Trader    string          // base58 trader address, unique per protocol
	Volume    decimal.Decimal // traded volume in USD
	Chain     string          // optional chain tag, e.g. "solana"
	Date      string          // optional dataset date tag (YYYY-MM-DD)
	CreatedAt int64           // record creation timestamp (ms)
}

// ImportCheckpoint marks how much of an import has been durably committed
// for a protocol. Rows are counted from the head of the source's stable
// ordering, so a resumed run skips exactly RowsImported rows.
type ImportCheckpoint struct {
	Protocol     string // checkpoint key
	RowsImported int64  // source rows committed so far
	LastPage     int64  // index of the last fully committed batch
	StartedAt    int64  // run start timestamp (ms)
	UpdatedAt    int64  // last advance timestamp (ms)
}
