package records

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu       sync.RWMutex
	dossiers map[string]*Dossier
}

// NewMemoryStore creates an in-memory citizen record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{dossiers: make(map[string]*Dossier)}
}

func (s *MemoryStore) GetDossier(ctx context.Context, citizenID string) (*Dossier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dossiers[citizenID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDossier(d), nil
}

func (s *MemoryStore) GetCitizen(ctx context.Context, citizenID string) (*Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dossiers[citizenID]
	if !ok {
		return nil, ErrNotFound
	}
	c := d.Citizen
	return &c, nil
}

func (s *MemoryStore) PutDossier(ctx context.Context, d *Dossier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dossiers[d.Citizen.ID] = copyDossier(d)
	return nil
}

func (s *MemoryStore) SetRiskScore(ctx context.Context, citizenID string, score int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dossiers[citizenID]
	if !ok {
		return ErrNotFound
	}
	d.Citizen.RiskScore = score
	t := at
	d.Citizen.RiskScoredAt = &t
	return nil
}

func (s *MemoryStore) SetHospitalized(ctx context.Context, citizenID string, hospitalized bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dossiers[citizenID]
	if !ok {
		return ErrNotFound
	}
	d.Citizen.Hospitalized = hospitalized
	return nil
}

func (s *MemoryStore) SetDetained(ctx context.Context, citizenID string, detained bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dossiers[citizenID]
	if !ok {
		return ErrNotFound
	}
	d.Citizen.Detained = detained
	return nil
}

// copyDossier deep-copies a dossier so callers can't mutate stored state.
func copyDossier(d *Dossier) *Dossier {
	out := &Dossier{Citizen: d.Citizen}
	if d.Citizen.RiskScoredAt != nil {
		t := *d.Citizen.RiskScoredAt
		out.Citizen.RiskScoredAt = &t
	}
	if d.Health != nil {
		h := *d.Health
		h.Conditions = append([]Condition(nil), d.Health.Conditions...)
		out.Health = &h
	}
	if d.Finance != nil {
		f := *d.Finance
		f.Debts = append([]Debt(nil), d.Finance.Debts...)
		out.Finance = &f
	}
	if d.Judicial != nil {
		j := *d.Judicial
		j.Convictions = append([]Conviction(nil), d.Judicial.Convictions...)
		out.Judicial = &j
	}
	if d.Location != nil {
		l := *d.Location
		l.Visits = append([]Visit(nil), d.Location.Visits...)
		out.Location = &l
	}
	if d.Social != nil {
		so := *d.Social
		so.Affiliations = append([]string(nil), d.Social.Affiliations...)
		out.Social = &so
	}
	return out
}
