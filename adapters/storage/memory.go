package storage

import (
	"context"
	"sync"
	"sync/atomic"

	"lease-analyzer/core/types"
)

// MemoryStore keeps analyses in a map for the life of the process.
type MemoryStore struct {
	nextID   atomic.Int64
	mu       sync.RWMutex
	analyses map[int64]types.LeaseAnalysis
}

// NewMemoryStore creates a memory store whose first id is 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{analyses: make(map[int64]types.LeaseAnalysis)}
}

func (s *MemoryStore) Save(ctx context.Context, analysis *types.LeaseAnalysis) (*types.LeaseAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := *analysis
	stored.ID = s.nextID.Add(1)

	s.mu.Lock()
	s.analyses[stored.ID] = stored
	s.mu.Unlock()

	return &stored, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*types.LeaseAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.analyses[id]
	if !ok {
		return nil, notFound(id)
	}
	return &a, nil
}

// Len returns the number of stored analyses.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.analyses)
}

func (s *MemoryStore) Close() error {
	return nil
}
