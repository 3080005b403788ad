package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"solana-trader-stats/internal/domain"
	"solana-trader-stats/internal/storage"
)

func TestCheckpointStore_Roundtrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCheckpointStore(pool)
	ctx := context.Background()

	_, err := store.Get(ctx, "bullx")
	require.ErrorIs(t, err, storage.ErrNotFound)

	cp := &domain.ImportCheckpoint{
		Protocol:     "bullx",
		RowsImported: 4000,
		LastPage:     4,
		StartedAt:    1700000000000,
		UpdatedAt:    1700000060000,
	}
	require.NoError(t, store.Put(ctx, cp))

	got, err := store.Get(ctx, "bullx")
	require.NoError(t, err)
	require.Equal(t, int64(4000), got.RowsImported)
	require.Equal(t, int64(4), got.LastPage)

	// Advance
	cp.RowsImported = 5000
	cp.LastPage = 5
	require.NoError(t, store.Put(ctx, cp))

	got, err = store.Get(ctx, "bullx")
	require.NoError(t, err)
	require.Equal(t, int64(5000), got.RowsImported)
}

func TestCheckpointStore_Clear(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCheckpointStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &domain.ImportCheckpoint{Protocol: "bullx", RowsImported: 100}))
	require.NoError(t, store.Clear(ctx, "bullx"))

	_, err := store.Get(ctx, "bullx")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
