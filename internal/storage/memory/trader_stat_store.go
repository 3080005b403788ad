package memory

import (
	"context"
	"sort"
	"sync"

	"solana-trader-stats/internal/domain"
	"solana-trader-stats/internal/storage"
)

// TraderStatStore is an in-memory implementation of storage.TraderStatStore.
type TraderStatStore struct {
	mu   sync.RWMutex
	data map[statKey]*domain.TraderStat
}

type statKey struct {
	protocol string
	trader   string
}

// NewTraderStatStore creates a new in-memory trader stat store.
func NewTraderStatStore() *TraderStatStore {
	return &TraderStatStore{
		data: make(map[statKey]*domain.TraderStat),
	}
}

// Compile-time interface check.
var _ storage.TraderStatStore = (*TraderStatStore)(nil)

// InsertBulkSkipDuplicates adds stats, skipping existing (protocol, trader)
// keys. Returns the number of rows actually inserted.
func (s *TraderStatStore) InsertBulkSkipDuplicates(_ context.Context, stats []*domain.TraderStat) (int64, error) {
	if len(stats) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted int64
	for _, st := range stats {
		if st == nil || st.Protocol == "" || st.Trader == "" {
			return inserted, storage.ErrInvalidInput
		}

		k := statKey{st.Protocol, st.Trader}
		if _, exists := s.data[k]; exists {
			continue
		}

		copy := *st
		s.data[k] = &copy
		inserted++
	}

	return inserted, nil
}

// GetPageByVolumeDesc retrieves one page of stats for a protocol, ordered
// by volume DESC, trader ASC.
func (s *TraderStatStore) GetPageByVolumeDesc(_ context.Context, protocol string, offset, limit int64) ([]*domain.TraderStat, error) {
	if offset < 0 || limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*domain.TraderStat
	for _, st := range s.data {
		if st.Protocol == protocol {
			copy := *st
			all = append(all, &copy)
		}
	}

	sort.Slice(all, func(i, j int) bool {
		cmp := all[i].Volume.Cmp(all[j].Volume)
		if cmp != 0 {
			return cmp > 0
		}
		return all[i].Trader < all[j].Trader
	})

	if offset >= int64(len(all)) {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}

	return all[offset:end], nil
}

// CountByProtocol returns the number of stats stored for a protocol.
func (s *TraderStatStore) CountByProtocol(_ context.Context, protocol string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for k := range s.data {
		if k.protocol == protocol {
			count++
		}
	}
	return count, nil
}

// DeleteByProtocol removes all stats for a protocol.
func (s *TraderStatStore) DeleteByProtocol(_ context.Context, protocol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.data {
		if k.protocol == protocol {
			delete(s.data, k)
		}
	}
	return nil
}
