package protest

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu       sync.RWMutex
	protests map[string]*Protest
	order    []string
}

// NewMemoryStore creates an in-memory protest store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{protests: make(map[string]*Protest)}
}

func (s *MemoryStore) Create(ctx context.Context, p *Protest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.protests[p.ID] = &cp
	s.order = append(s.order, p.ID)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Protest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.protests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) Update(ctx context.Context, p *Protest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.protests[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	s.protests[p.ID] = &cp
	return nil
}

func (s *MemoryStore) ListOpen(ctx context.Context) ([]*Protest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Protest
	for _, id := range s.order {
		p := s.protests[id]
		if p.Status.Terminal() {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}
