package scoring

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu          sync.RWMutex
	assessments map[string][]*RiskAssessment // citizenID → assessments
}

// NewMemoryStore creates an in-memory assessment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{assessments: make(map[string][]*RiskAssessment)}
}

func (s *MemoryStore) Record(ctx context.Context, assessment *RiskAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := copyAssessment(assessment)
	s.assessments[assessment.CitizenID] = append(s.assessments[assessment.CitizenID], a)
	return nil
}

func (s *MemoryStore) ListByCitizen(ctx context.Context, citizenID string, limit int) ([]*RiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.assessments[citizenID]
	if len(all) == 0 {
		return nil, nil
	}

	start := len(all) - limit
	if start < 0 {
		start = 0
	}

	// Most recent first
	result := make([]*RiskAssessment, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		result = append(result, copyAssessment(all[i]))
	}
	return result, nil
}

func copyAssessment(a *RiskAssessment) *RiskAssessment {
	out := *a
	out.Factors = append([]ContributingFactor(nil), a.Factors...)
	out.Alerts = append([]CorrelationAlert(nil), a.Alerts...)
	out.RecommendedActions = append([]RecommendedAction(nil), a.RecommendedActions...)
	return &out
}
