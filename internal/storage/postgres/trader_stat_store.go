package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"solana-trader-stats/internal/domain"
	"solana-trader-stats/internal/storage"
)

// TraderStatStore implements storage.TraderStatStore using PostgreSQL.
// The unique (protocol, trader) constraint is the concurrency guard
// against duplicate rows when overlapping runs target the same protocol.
type TraderStatStore struct {
	pool *Pool
}

// NewTraderStatStore creates a new TraderStatStore.
func NewTraderStatStore(pool *Pool) *TraderStatStore {
	return &TraderStatStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TraderStatStore = (*TraderStatStore)(nil)

// InsertBulkSkipDuplicates adds stats in one transaction, skipping rows
// whose (protocol, trader) key already exists. Returns the number of rows
// actually inserted.
func (s *TraderStatStore) InsertBulkSkipDuplicates(ctx context.Context, stats []*domain.TraderStat) (int64, error) {
	if len(stats) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trader_stats (protocol, trader, volume, chain, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (protocol, trader) DO NOTHING
	`

	now := time.Now().UnixMilli()
	var inserted int64
	for _, st := range stats {
		if st == nil || st.Protocol == "" || st.Trader == "" {
			return 0, storage.ErrInvalidInput
		}

		createdAt := st.CreatedAt
		if createdAt == 0 {
			createdAt = now
		}

		tag, err := tx.Exec(ctx, query,
			st.Protocol, st.Trader, st.Volume.String(), st.Chain, st.Date, createdAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert trader stat: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return inserted, nil
}

// GetPageByVolumeDesc retrieves one page of stats for a protocol, ordered
// by volume DESC, trader ASC. The trader tiebreak keeps equal volumes in a
// stable order across reads.
func (s *TraderStatStore) GetPageByVolumeDesc(ctx context.Context, protocol string, offset, limit int64) ([]*domain.TraderStat, error) {
	if offset < 0 || limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT id, protocol, trader, volume, chain, date, created_at
		FROM trader_stats
		WHERE protocol = $1
		ORDER BY volume DESC, trader ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.pool.Query(ctx, query, protocol, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get trader stats page: %w", err)
	}
	defer rows.Close()

	return scanTraderStats(rows)
}

// CountByProtocol returns the number of stats stored for a protocol.
func (s *TraderStatStore) CountByProtocol(ctx context.Context, protocol string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trader_stats WHERE protocol = $1`, protocol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trader stats: %w", err)
	}
	return count, nil
}

// DeleteByProtocol removes all stats for a protocol.
func (s *TraderStatStore) DeleteByProtocol(ctx context.Context, protocol string) error {
	if protocol == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `DELETE FROM trader_stats WHERE protocol = $1`, protocol)
	if err != nil {
		return fmt.Errorf("delete trader stats: %w", err)
	}
	return nil
}

// scanTraderStats scans multiple rows into a slice of TraderStat.
func scanTraderStats(rows pgx.Rows) ([]*domain.TraderStat, error) {
	var stats []*domain.TraderStat

	for rows.Next() {
		var st domain.TraderStat
		var volume string

		err := rows.Scan(&st.ID, &st.Protocol, &st.Trader, &volume, &st.Chain, &st.Date, &st.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan trader stat row: %w", err)
		}

		st.Volume, err = decimal.NewFromString(volume)
		if err != nil {
			return nil, fmt.Errorf("parse volume %q: %w", volume, err)
		}

		stats = append(stats, &st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trader stat rows: %w", err)
	}

	return stats, nil
}
