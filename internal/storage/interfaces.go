package storage

import (
	"context"

	"solana-trader-stats/internal/domain"
)

// TraderStatStore provides access to trader_stats storage.
//
// Page reads are ordered by volume DESC, trader ASC. The secondary key
// breaks ties between equal volumes so the ordering is stable across
// repeated reads, which resume-by-row-count depends on.
type TraderStatStore interface {
	// InsertBulkSkipDuplicates adds stats in one atomic batch, silently
	// skipping rows whose (protocol, trader) key already exists.
	// Returns the number of rows actually inserted.
	InsertBulkSkipDuplicates(ctx context.Context, stats []*domain.TraderStat) (int64, error)

	// GetPageByVolumeDesc retrieves one page of stats for a protocol,
	// ordered by volume DESC, trader ASC.
	GetPageByVolumeDesc(ctx context.Context, protocol string, offset, limit int64) ([]*domain.TraderStat, error)

	// CountByProtocol returns the number of stats stored for a protocol.
	CountByProtocol(ctx context.Context, protocol string) (int64, error)

	// DeleteByProtocol removes all stats for a protocol. Used to reset a
	// dataset before importing a fresh generation.
	DeleteByProtocol(ctx context.Context, protocol string) error
}

// CheckpointStore provides access to import_checkpoints storage.
// Exactly one in-flight run mutates a protocol's checkpoint at a time;
// callers serialize runs per protocol.
type CheckpointStore interface {
	// Get retrieves the checkpoint for a protocol. Returns ErrNotFound
	// if no import has committed yet.
	Get(ctx context.Context, protocol string) (*domain.ImportCheckpoint, error)

	// Put saves the checkpoint, inserting or overwriting.
	Put(ctx context.Context, cp *domain.ImportCheckpoint) error

	// Clear removes the checkpoint for a protocol.
	Clear(ctx context.Context, protocol string) error
}
