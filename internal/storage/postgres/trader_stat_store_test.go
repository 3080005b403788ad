package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"solana-trader-stats/internal/domain"
)

func TestTraderStatStore_InsertAndPage(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraderStatStore(pool)
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
	require.True(t, page[0].Volume.Equal(decimal.NewFromFloat(100.25)))
}

func TestTraderStatStore_DuplicatesSkipped(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraderStatStore(pool)
	ctx := context.Background()

	first := []*domain.TraderStat{
		{Protocol: "bullx", Trader: "addr1", Volume: decimal.NewFromInt(10)},
	}
	inserted, err := store.InsertBulkSkipDuplicates(ctx, first)
	require.NoError(t, err)
	require.Equal(t, int64(1), inserted)

	// Re-delivery of the same trader plus one new row
	second := []*domain.TraderStat{
		{Protocol: "bullx", Trader: "addr1", Volume: decimal.NewFromInt(10)},
		{Protocol: "bullx", Trader: "addr2", Volume: decimal.NewFromInt(20)},
	}
	inserted, err = store.InsertBulkSkipDuplicates(ctx, second)
	require.NoError(t, err)
	require.Equal(t, int64(1), inserted)

	count, err := store.CountByProtocol(ctx, "bullx")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestTraderStatStore_PagePastEnd(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraderStatStore(pool)
	ctx := context.Background()

	_, err := store.InsertBulkSkipDuplicates(ctx, []*domain.TraderStat{
		{Protocol: "bullx", Trader: "addr1", Volume: decimal.NewFromInt(1)},
	})
	require.NoError(t, err)

	page, err := store.GetPageByVolumeDesc(ctx, "bullx", 100, 10)
	require.NoError(t, err)
	require.Empty(t, page)
}

func TestTraderStatStore_DeleteByProtocol(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTraderStatStore(pool)
	ctx := context.Background()

	_, err := store.InsertBulkSkipDuplicates(ctx, []*domain.TraderStat{
		{Protocol: "bullx", Trader: "addr1", Volume: decimal.NewFromInt(1)},
		{Protocol: "photon", Trader: "addr1", Volume: decimal.NewFromInt(2)},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteByProtocol(ctx, "bullx"))

	count, err := store.CountByProtocol(ctx, "bullx")
	require.NoError(t, err)
	require.Zero(t, count)

	count, err = store.CountByProtocol(ctx, "photon")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
