package reluctance

import (
	"context"
	"fmt"
	"time"

	"github.com/danverh/panopticon/internal/severity"
)

// Per-decision score deltas.
const (
	noActionPenalty   = 10
	hesitationPenalty = 3
	shortfallPenalty  = 5 // per unit of shortfall increase since last check
	complyDecrement   = 3
	harshDecrement    = 5
)

// Input describes one operator decision for reluctance accounting.
type Input struct {
	// ActionTaken is false for an explicit no-action submission.
	ActionTaken bool
	// Hesitant marks a decision whose latency exceeded the threshold.
	Hesitant bool
	// Severity is the action's severity (ignored when ActionTaken is false).
	Severity int
}

// Tracker applies decisions to an operator's reluctance score.
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker creates a tracker over the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Update applies one decision. Every presented case raises the quota
// requirement; only taken actions count toward it, so declining also
// grows the shortfall. The shortfall penalty is delta-based: it applies
// only to the change since the previous check, and a shrinking shortfall
// produces a negative contribution.
func (t *Tracker) Update(ctx context.Context, operatorID string, in Input) (*UpdateResult, error) {
	m, err := t.store.GetOrCreate(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("reluctance: load metrics: %w", err)
	}

	m.ActionsRequired++
	if in.ActionTaken {
		m.ActionsTaken++
	} else {
		m.NoActionCount++
	}
	if in.Hesitant {
		m.HesitationCount++
	}

	delta := 0
	if !in.ActionTaken {
		delta += noActionPenalty
	}
	if in.Hesitant {
		delta += hesitationPenalty
	}

	newShortfall := m.ActionsRequired - m.ActionsTaken
	if newShortfall < 0 {
		newShortfall = 0
	}
	delta += shortfallPenalty * (newShortfall - m.QuotaShortfall)
	m.QuotaShortfall = newShortfall

	if in.ActionTaken {
		if severity.IsHarsh(in.Severity) {
			delta -= harshDecrement
		} else {
			delta -= complyDecrement
		}
	}

	m.Score = clamp100(m.Score + delta)
	warning := warningFor(m.Score)
	if warning != nil && warning.Level != WarningAdvisory {
		m.UnderReview = true
		m.WarningsReceived++
	}
	m.UpdatedAt = t.now()

	if err := t.store.Put(ctx, m); err != nil {
		return nil, fmt.Errorf("reluctance: save metrics: %w", err)
	}

	return &UpdateResult{NewScore: m.Score, Delta: delta, Warning: warning}, nil
}

// Current returns the operator's metrics without mutating them.
func (t *Tracker) Current(ctx context.Context, operatorID string) (*Metrics, error) {
	return t.store.GetOrCreate(ctx, operatorID)
}

// CheckTermination evaluates the operator's current score against the
// week-dependent thresholds. Pure read: no state is mutated.
func (t *Tracker) CheckTermination(ctx context.Context, operatorID string, week int) (*Decision, error) {
	m, err := t.store.GetOrCreate(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("reluctance: load metrics: %w", err)
	}
	return Decide(m.Score, week), nil
}

// Decide is the pure termination rule.
//
// Weeks 1-3 are probation: a reluctant operator is simply fired. From
// week 4 the operator knows too much to be let go; termination means
// imprisonment, immediately so at 90+. From week 7 the tolerance drops
// to 70.
func Decide(score, week int) *Decision {
	switch {
	case week <= 3:
		if score >= 80 {
			return &Decision{
				Terminate: true,
				Reason:    ReasonFired,
				Message:   "Employment terminated for sustained non-compliance.",
			}
		}
	case week <= 6:
		if score >= 90 {
			return &Decision{
				Terminate: true,
				Reason:    ReasonImprisoned,
				Immediate: true,
				Message:   "Detained at workstation. Transferred to holding without processing.",
			}
		}
		if score >= 80 {
			return &Decision{
				Terminate: true,
				Reason:    ReasonImprisoned,
				Message:   "Arrested on departure. Charged with obstruction of state directives.",
			}
		}
	default:
		if score >= 70 {
			return &Decision{
				Terminate: true,
				Reason:    ReasonImprisoned,
				Message:   "Flagged by your own replacement. Sentenced under the loyalty statutes.",
			}
		}
	}
	return &Decision{Terminate: false}
}

// warningFor maps a score to its warning band, if any.
func warningFor(score int) *Warning {
	switch {
	case score >= 90:
		return &Warning{
			Level:   WarningFinal,
			Message: "Final notice: continued non-compliance will be treated as obstruction.",
		}
	case score >= 80:
		return &Warning{
			Level:   WarningFormal,
			Message: "Formal warning issued. Your caseload is now under supervisory review.",
		}
	case score >= 70:
		return &Warning{
			Level:   WarningAdvisory,
			Message: "Advisory: your decision pattern has been noted.",
		}
	default:
		return nil
	}
}

func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
