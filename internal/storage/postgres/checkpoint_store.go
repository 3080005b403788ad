package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-trader-stats/internal/domain"
	"solana-trader-stats/internal/storage"
)

// CheckpointStore is a PostgreSQL implementation of storage.CheckpointStore.
// One row per protocol in import_checkpoints.
type CheckpointStore struct {
	pool *Pool
}

// NewCheckpointStore creates a new PostgreSQL checkpoint store.
func NewCheckpointStore(pool *Pool) *CheckpointStore {
	return &CheckpointStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// Get retrieves the checkpoint for a protocol.
func (s *CheckpointStore) Get(ctx context.Context, protocol string) (*domain.ImportCheckpoint, error) {
	if protocol == "" {
		return nil, storage.ErrInvalidInput
	}

	row := s.pool.QueryRow(ctx, `
		SELECT protocol, rows_imported, last_page, started_at, updated_at
		FROM import_checkpoints
		WHERE protocol = $1
	`, protocol)

	var cp domain.ImportCheckpoint
	err := row.Scan(&cp.Protocol, &cp.RowsImported, &cp.LastPage, &cp.StartedAt, &cp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}

	return &cp, nil
}

// Put saves the checkpoint. Uses upsert to handle initial insert and
// subsequent advances.
func (s *CheckpointStore) Put(ctx context.Context, cp *domain.ImportCheckpoint) error {
	if cp == nil || cp.Protocol == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_checkpoints (protocol, rows_imported, last_page, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (protocol) DO UPDATE
		SET rows_imported = EXCLUDED.rows_imported,
		    last_page = EXCLUDED.last_page,
		    started_at = EXCLUDED.started_at,
		    updated_at = EXCLUDED.updated_at
	`, cp.Protocol, cp.RowsImported, cp.LastPage, cp.StartedAt, cp.UpdatedAt)
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

	_, err := s.pool.Exec(ctx, `DELETE FROM import_checkpoints WHERE protocol = $1`, protocol)
	if err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}
