package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"solana-trader-stats/internal/domain"
	"solana-trader-stats/internal/storage"
)

// TraderStatStore implements storage.TraderStatStore using ClickHouse.
//
// ClickHouse does not enforce uniqueness at insert time; the table uses
// ReplacingMergeTree keyed by (protocol, trader) and reads go through
// FINAL, so duplicate delivery collapses to one row. Inserts still check
// existence per row to report an accurate inserted count.
type TraderStatStore struct {
	conn *Conn
}

// NewTraderStatStore creates a new TraderStatStore.
func NewTraderStatStore(conn *Conn) *TraderStatStore {
	return &TraderStatStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TraderStatStore = (*TraderStatStore)(nil)

// InsertBulkSkipDuplicates adds stats, skipping rows whose key already
// exists. Returns the number of rows actually inserted.
func (s *TraderStatStore) InsertBulkSkipDuplicates(ctx context.Context, stats []*domain.TraderStat) (int64, error) {
	if len(stats) == 0 {
		return 0, nil
	}

	type key struct {
		protocol string
		trader   string
	}
	seen := make(map[key]struct{}, len(stats))

	var fresh []*domain.TraderStat
	for _, st := range stats {
		if st == nil || st.Protocol == "" || st.Trader == "" {
			return 0, storage.ErrInvalidInput
		}

		k := key{st.Protocol, st.Trader}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		exists, err := s.exists(ctx, st.Protocol, st.Trader)
		if err != nil {
			return 0, fmt.Errorf("check exists: %w", err)
		}
		if exists {
			continue
		}
		fresh = append(fresh, st)
	}

	if len(fresh) == 0 {
		return 0, nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trader_stats (protocol, trader, volume, chain, date, created_at)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare batch: %w", err)
	}

	now := time.Now().UnixMilli()
	for _, st := range fresh {
		createdAt := st.CreatedAt
		if createdAt == 0 {
			createdAt = now
		}
		err = batch.Append(st.Protocol, st.Trader, st.Volume, st.Chain, st.Date, uint64(createdAt))
		if err != nil {
			return 0, fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("send batch: %w", err)
	}

	return int64(len(fresh)), nil
}

// GetPageByVolumeDesc retrieves one page of stats for a protocol, ordered
// by volume DESC, trader ASC.
func (s *TraderStatStore) GetPageByVolumeDesc(ctx context.Context, protocol string, offset, limit int64) ([]*domain.TraderStat, error) {
	if offset < 0 || limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT protocol, trader, volume, chain, date, created_at
		FROM trader_stats FINAL
		WHERE protocol = ?
		ORDER BY volume DESC, trader ASC
		LIMIT ? OFFSET ?
	`

	rows, err := s.conn.Query(ctx, query, protocol, uint64(limit), uint64(offset))
	if err != nil {
		return nil, fmt.Errorf("get trader stats page: %w", err)
	}
	defer rows.Close()

	var stats []*domain.TraderStat
	for rows.Next() {
		var st domain.TraderStat
		var volume decimal.Decimal
		var createdAt uint64

		err := rows.Scan(&st.Protocol, &st.Trader, &volume, &st.Chain, &st.Date, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan trader stat row: %w", err)
		}

		st.Volume = volume
		st.CreatedAt = int64(createdAt)
		stats = append(stats, &st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trader stat rows: %w", err)
	}

	return stats, nil
}

// CountByProtocol returns the number of stats stored for a protocol.
func (s *TraderStatStore) CountByProtocol(ctx context.Context, protocol string) (int64, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count() FROM trader_stats FINAL WHERE protocol = ?
	`, protocol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trader stats: %w", err)
	}
	return int64(count), nil
}

// DeleteByProtocol removes all stats for a protocol.
func (s *TraderStatStore) DeleteByProtocol(ctx context.Context, protocol string) error {
	if protocol == "" {
		return storage.ErrInvalidInput
	}

	err := s.conn.Exec(ctx, `DELETE FROM trader_stats WHERE protocol = ?`, protocol)
	if err != nil {
		return fmt.Errorf("delete trader stats: %w", err)
	}
	return nil
}

// exists checks if a stat with the given key exists.
func (s *TraderStatStore) exists(ctx context.Context, protocol, trader string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count() FROM trader_stats FINAL WHERE protocol = ? AND trader = ?
	`, protocol, trader).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
