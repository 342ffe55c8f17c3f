package press

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
// It seeds the default outlet roster on creation.
type MemoryStore struct {
	mu       sync.RWMutex
	channels map[string]*NewsChannel
	order    []string
	articles []*Article
}

// NewMemoryStore creates an in-memory press store seeded with DefaultChannels.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{channels: make(map[string]*NewsChannel)}
	for _, ch := range DefaultChannels() {
		cp := *ch
		s.channels[ch.ID] = &cp
		s.order = append(s.order, ch.ID)
	}
	return s
}

func (s *MemoryStore) ListChannels(ctx context.Context) ([]*NewsChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*NewsChannel, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.channels[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) GetChannel(ctx context.Context, id string) (*NewsChannel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ch
	return &cp, nil
}

func (s *MemoryStore) PutChannel(ctx context.Context, ch *NewsChannel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[ch.ID]; !ok {
		s.order = append(s.order, ch.ID)
	}
	cp := *ch
	s.channels[ch.ID] = &cp
	return nil
}

func (s *MemoryStore) RecordArticle(ctx context.Context, a *Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.articles = append(s.articles, &cp)
	return nil
}

func (s *MemoryStore) ListArticles(ctx context.Context, limit int) ([]*Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.articles)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*Article, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		cp := *s.articles[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) ListArticlesBefore(ctx context.Context, before time.Time, limit int) ([]*Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = len(s.articles)
	}
	out := make([]*Article, 0, limit)
	for i := len(s.articles) - 1; i >= 0 && len(out) < limit; i-- {
		if !s.articles[i].PublishedAt.Before(before) {
			continue
		}
		cp := *s.articles[i]
		out = append(out, &cp)
	}
	return out, nil
}
