package protest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/danverh/panopticon/internal/catalog"
	"github.com/danverh/panopticon/internal/chance"
	"github.com/danverh/panopticon/internal/idgen"
	"github.com/danverh/panopticon/internal/logging"
	"github.com/danverh/panopticon/internal/metrics"
)

const (
	agitatorPlantProbability = 0.30
	naturalDisperseChance    = 0.15 // per advance pass, once active
	minSize                  = 50
	maxSize                  = 5000
)

// Manager ignites protests in response to actions and advances open
// protests through their natural lifecycle.
type Manager struct {
	store Store
	src   chance.Source
}

// NewManager creates a protest manager over the given store.
func NewManager(store Store, src chance.Source) *Manager {
	return &Manager{store: store, src: src}
}

// ignitionProbability is a four-band function of current anger. Calm
// publics ignore all but the worst actions; an angry public needs far
// less provocation.
func ignitionProbability(severity, anger int) float64 {
	switch {
	case anger < 20:
		if severity >= 8 {
			return 0.15
		}
		return 0
	case anger < 40:
		if severity >= 6 {
			return float64(severity) / 10 * 0.5
		}
		return 0
	case anger < 60:
		return float64(severity) / 10 * (1 + float64(anger)/100)
	default:
		return float64(severity) / 10 * (1 + float64(anger)/50)
	}
}

// protestSize is the participant estimate for a new protest.
func protestSize(src chance.Source, severity, anger int) int {
	base := float64(50 + 2*anger + 30*severity)
	size := int(math.Round(base * chance.Between(src, 0.7, 1.3)))
	if size < minSize {
		size = minSize
	}
	if size > maxSize {
		size = maxSize
	}
	return size
}

// MaybeIgnite makes a single ignition draw for one action. Returns nil
// when no protest forms. The agitator plant is an independent 30% draw
// made at creation, uninfluenced by severity or anger.
func (m *Manager) MaybeIgnite(ctx context.Context, severity, anger int) (*Protest, error) {
	p := ignitionProbability(severity, anger)
	if !chance.Bernoulli(m.src, p) {
		return nil, nil
	}

	now := time.Now().UTC()
	neighborhood := catalog.PickNeighborhood(m.src)
	pr := &Protest{
		ID:              idgen.WithPrefix("prot"),
		Neighborhood:    neighborhood,
		Description:     catalog.PickProtestDescription(m.src, neighborhood),
		Status:          StatusForming,
		Size:            protestSize(m.src, severity, anger),
		AgitatorPlanted: chance.Bernoulli(m.src, agitatorPlantProbability),
		StartedAt:       now,
		UpdatedAt:       now,
	}
	if err := m.store.Create(ctx, pr); err != nil {
		return nil, fmt.Errorf("create protest: %w", err)
	}
	metrics.ProtestsTotal.WithLabelValues(string(StatusForming)).Inc()
	logging.L(ctx).Info("protest ignited",
		"protest_id", pr.ID,
		"neighborhood", pr.Neighborhood,
		"size", pr.Size)
	return pr, nil
}

// Advance runs one lifecycle pass over all open protests: forming
// protests turn active, and active protests may disperse on their own.
// Returns the protests whose state changed.
func (m *Manager) Advance(ctx context.Context) ([]*Protest, error) {
	open, err := m.store.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open protests: %w", err)
	}

	var changed []*Protest
	for _, pr := range open {
		switch pr.Status {
		case StatusForming:
			pr.Status = StatusActive
		case StatusActive:
			if !chance.Bernoulli(m.src, naturalDisperseChance) {
				continue
			}
			pr.Status = StatusDispersed
			metrics.ProtestsTotal.WithLabelValues(string(StatusDispersed)).Inc()
		default:
			continue
		}
		pr.UpdatedAt = time.Now().UTC()
		if err := m.store.Update(ctx, pr); err != nil {
			return changed, fmt.Errorf("update protest %s: %w", pr.ID, err)
		}
		changed = append(changed, pr)
	}
	return changed, nil
}
