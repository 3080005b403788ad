package clickhouse

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"solana-trader-stats/internal/domain"
	"solana-trader-stats/internal/storage"
)

func TestTraderStatStore_InsertAndPage(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraderStatStore(conn)
	ctx := context.Background()

	stats := []*domain.TraderStat{
		{Protocol: "bullx", Trader: "addrB", Volume: decimal.NewFromFloat(50)},
		{Protocol: "bullx", Trader: "addrA", Volume: decimal.NewFromFloat(50)},
		{Protocol: "bullx", Trader: "addrC", Volume: decimal.NewFromFloat(100.25)},
	}

	inserted, err := store.InsertBulkSkipDuplicates(ctx, stats)
	require.NoError(t, err)
	require.Equal(t, int64(3), inserted)

	page, err := store.GetPageByVolumeDesc(ctx, "bullx", 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 3)

	// volume DESC, trader ASC on ties
	require.Equal(t, "addrC", page[0].Trader)
	require.Equal(t, "addrA", page[1].Trader)
	require.Equal(t, "addrB", page[2].Trader)
}

func TestTraderStatStore_DuplicatesSkipped(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraderStatStore(conn)
	ctx := context.Background()

	inserted, err := store.InsertBulkSkipDuplicates(ctx, []*domain.TraderStat{
		{Protocol: "bullx", Trader: "addr1", Volume: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), inserted)

	inserted, err = store.InsertBulkSkipDuplicates(ctx, []*domain.TraderStat{
		{Protocol: "bullx", Trader: "addr1", Volume: decimal.NewFromInt(10)},
		{Protocol: "bullx", Trader: "addr1", Volume: decimal.NewFromInt(10)}, // intra-batch dup
		{Protocol: "bullx", Trader: "addr2", Volume: decimal.NewFromInt(20)},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), inserted)

	count, err := store.CountByProtocol(ctx, "bullx")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestCheckpointStore_Roundtrip(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCheckpointStore(conn)
	ctx := context.Background()

	_, err := store.Get(ctx, "bullx")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Put(ctx, &domain.ImportCheckpoint{
		Protocol:     "bullx",
		RowsImported: 1000,
		LastPage:     1,
		UpdatedAt:    1700000000000,
	}))
	require.NoError(t, store.Put(ctx, &domain.ImportCheckpoint{
		Protocol:     "bullx",
		RowsImported: 2000,
		LastPage:     2,
		UpdatedAt:    1700000060000,
	}))

	got, err := store.Get(ctx, "bullx")
	require.NoError(t, err)
	require.Equal(t, int64(2000), got.RowsImported)
}
