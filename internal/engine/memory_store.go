package engine

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu       sync.RWMutex
	actions  map[string][]*SystemAction // operator id -> append order
	profiles map[string]*OperatorProfile
}

// NewMemoryStore creates an in-memory action log and profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		actions:  make(map[string][]*SystemAction),
		profiles: make(map[string]*OperatorProfile),
	}
}

func (s *MemoryStore) RecordAction(ctx context.Context, a *SystemAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.actions[a.OperatorID] = append(s.actions[a.OperatorID], &cp)
	return nil
}

func (s *MemoryStore) ListActions(ctx context.Context, operatorID string, limit int) ([]*SystemAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.actions[operatorID]
	n := len(log)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*SystemAction, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		cp := *log[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) GetOrCreateProfile(ctx context.Context, operatorID string) (*OperatorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[operatorID]
	if !ok {
		p = &OperatorProfile{OperatorID: operatorID}
		s.profiles[operatorID] = p
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) PutProfile(ctx context.Context, p *OperatorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.profiles[p.OperatorID] = &cp
	return nil
}
