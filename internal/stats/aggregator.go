package stats

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-trader-stats/internal/domain"
	"solana-trader-stats/internal/storage"
)

// DefaultPageSize is the number of rows streamed from the store per page.
const DefaultPageSize = 10000

// Aggregator computes volume reports by streaming ranked pages from the
// store instead of materializing whole protocols in memory.
type Aggregator struct {
	store    storage.TraderStatStore
	pageSize int64
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store storage.TraderStatStore, pageSize int64) *Aggregator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Aggregator{store: store, pageSize: pageSize}
}

// ComputeTotals sums a protocol's volume in one streaming pass.
func (a *Aggregator) ComputeTotals(ctx context.Context, protocol string) (*domain.VolumeTotals, error) {
	totals := &domain.VolumeTotals{Protocol: protocol}

	err := a.stream(ctx, protocol, func(st *domain.TraderStat) {
		totals.TotalVolume = totals.TotalVolume.Add(st.Volume)
		totals.TotalTraders++
		if st.Volume.IsPositive() {
			totals.ActiveTraders++
		}
	})
	if err != nil {
		return nil, err
	}

	return totals, nil
}

// ComputePercentiles builds the volume-distribution report for the given
// thresholds in a single streaming pass over the protocol's traders,
// ranked by volume descending. Each bucket covers the top
// floor(threshold/100 * totalTraders) traders; prefix sums are captured
// as the stream crosses each cutoff rank.
func (a *Aggregator) ComputePercentiles(ctx context.Context, protocol string, thresholds []int) ([]*domain.PercentileBucket, error) {
	thresholds, err := sortedThresholds(thresholds)
	if err != nil {
		return nil, err
	}

	total, err := a.store.CountByProtocol(ctx, protocol)
	if err != nil {
		return nil, fmt.Errorf("count %s traders: %w", protocol, err)
	}

	cutoffs := cutoffRanks(thresholds, total)
	bracketSums := make([]decimal.Decimal, len(thresholds))

	var rank int64
	var prefix decimal.Decimal
	next := 0
	for next < len(cutoffs) && cutoffs[next] == 0 {
		next++
	}

	err = a.stream(ctx, protocol, func(st *domain.TraderStat) {
		rank++
		prefix = prefix.Add(st.Volume)
		for next < len(cutoffs) && cutoffs[next] == rank {
			bracketSums[next] = prefix
			next++
		}
	})
	if err != nil {
		return nil, err
	}

	totalVolume := prefix

	buckets := make([]*domain.PercentileBucket, len(thresholds))
	for i, th := range thresholds {
		buckets[i] = &domain.PercentileBucket{
			Threshold:      th,
			TraderCount:    cutoffs[i],
			RankRange:      rankRange(cutoffs[i]),
			BracketVolume:  bracketSums[i],
			VolumeSharePct: shareOf(bracketSums[i], totalVolume),
			TotalVolume:    totalVolume,
			TotalTraders:   total,
		}
	}
	return buckets, nil
}

// stream walks the protocol's traders in ranked order page by page.
func (a *Aggregator) stream(ctx context.Context, protocol string, fn func(*domain.TraderStat)) error {
	var offset int64
	for {
		page, err := a.store.GetPageByVolumeDesc(ctx, protocol, offset, a.pageSize)
		if err != nil {
			return fmt.Errorf("page %s at offset %d: %w", protocol, offset, err)
		}

		for _, st := range page {
			fn(st)
		}

		if int64(len(page)) < a.pageSize {
			return nil
		}
		offset += int64(len(page))
	}
}
