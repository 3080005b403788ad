package memory

import (
	"context"
	"sync"

	"solana-trader-stats/internal/domain"
	"solana-trader-stats/internal/storage"
)

// CheckpointStore is an in-memory implementation of storage.CheckpointStore.
type CheckpointStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ImportCheckpoint // keyed by protocol
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		data: make(map[string]*domain.ImportCheckpoint),
	}
}

// Compile-time interface check.
var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// Get retrieves the checkpoint for a protocol. Returns ErrNotFound if absent.
func (s *CheckpointStore) Get(_ context.Context, protocol string) (*domain.ImportCheckpoint, error) {
	if protocol == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, exists := s.data[protocol]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *cp
	return &copy, nil
}

// Put saves the checkpoint, inserting or overwriting.
func (s *CheckpointStore) Put(_ context.Context, cp *domain.ImportCheckpoint) error {
	if cp == nil || cp.Protocol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *cp
	s.data[cp.Protocol] = &copy
	return nil
}

// Clear removes the checkpoint for a protocol.
func (s *CheckpointStore) Clear(_ context.Context, protocol string) error {
	if protocol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, protocol)
	return nil
}
