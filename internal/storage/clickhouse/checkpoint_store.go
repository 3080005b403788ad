package clickhouse

import (
	"context"
	"fmt"

	"solana-trader-stats/internal/domain"
	"solana-trader-stats/internal/storage"
)

// CheckpointStore is a ClickHouse implementation of storage.CheckpointStore.
// Advances insert a new version; ReplacingMergeTree keyed by protocol keeps
// the row with the highest updated_at and reads go through FINAL.
type CheckpointStore struct {
	conn *Conn
}

// NewCheckpointStore creates a new ClickHouse checkpoint store.
func NewCheckpointStore(conn *Conn) *CheckpointStore {
	return &CheckpointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// Get retrieves the checkpoint for a protocol.
func (s *CheckpointStore) Get(ctx context.Context, protocol string) (*domain.ImportCheckpoint, error) {
	if protocol == "" {
		return nil, storage.ErrInvalidInput
	}

	rows, err := s.conn.Query(ctx, `
		SELECT protocol, rows_imported, last_page, started_at, updated_at
		FROM import_checkpoints FINAL
		WHERE protocol = ?
	`, protocol)
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get checkpoint: %w", err)
		}
		return nil, storage.ErrNotFound
	}

	var cp domain.ImportCheckpoint
	var rowsImported, lastPage, startedAt, updatedAt uint64
	if err := rows.Scan(&cp.Protocol, &rowsImported, &lastPage, &startedAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scan checkpoint row: %w", err)
	}

	cp.RowsImported = int64(rowsImported)
	cp.LastPage = int64(lastPage)
	cp.StartedAt = int64(startedAt)
	cp.UpdatedAt = int64(updatedAt)
	return &cp, nil
}

// Put saves the checkpoint by inserting a new version row.
func (s *CheckpointStore) Put(ctx context.Context, cp *domain.ImportCheckpoint) error {
	if cp == nil || cp.Protocol == "" {
		return storage.ErrInvalidInput
	}

	err := s.conn.Exec(ctx, `
		INSERT INTO import_checkpoints (protocol, rows_imported, last_page, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, cp.Protocol, uint64(cp.RowsImported), uint64(cp.LastPage), uint64(cp.StartedAt), uint64(cp.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put checkpoint: %w", err)
	}

	return nil
}

// Clear removes the checkpoint for a protocol.
func (s *CheckpointStore) Clear(ctx context.Context, protocol string) error {
	if protocol == "" {
		return storage.ErrInvalidInput
	}

	err := s.conn.Exec(ctx, `DELETE FROM import_checkpoints WHERE protocol = ?`, protocol)
	if err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}
