package reluctance

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	metrics map[string]*Metrics
}

// NewMemoryStore creates an in-memory reluctance metrics store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{metrics: make(map[string]*Metrics)}
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, operatorID string) (*Metrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.metrics[operatorID]
	if !ok {
		m = &Metrics{OperatorID: operatorID}
		s.metrics[operatorID] = m
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) Put(ctx context.Context, m *Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	s.metrics[m.OperatorID] = &cp
	return nil
}
