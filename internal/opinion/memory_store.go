package opinion

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	metrics map[string]*PublicMetrics
}

// NewMemoryStore creates an in-memory opinion metrics store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{metrics: make(map[string]*PublicMetrics)}
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, operatorID string) (*PublicMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.metrics[operatorID]
	if !ok {
		m = &PublicMetrics{OperatorID: operatorID}
		s.metrics[operatorID] = m
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) Put(ctx context.Context, m *PublicMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	s.metrics[m.OperatorID] = &cp
	return nil
}
