package opinion

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/danverh/panopticon/internal/severity"
)

// tierThresholds are the five escalation thresholds shared by both counters.
var tierThresholds = [5]int{20, 40, 60, 80, 95}

// awarenessDescriptions narrate awareness tier crossings.
var awarenessDescriptions = [5]string{
	"Foreign correspondents begin referencing the program in regional coverage.",
	"An international wire service runs its first dedicated story.",
	"Multiple governments issue formal statements of concern.",
	"Sanctions are openly discussed in allied parliaments.",
	"The program is the subject of an emergency international session.",
}

// angerDescriptions narrate anger tier crossings.
var angerDescriptions = [5]string{
	"Quiet resentment surfaces in private conversations.",
	"Neighborhood meetings turn openly critical.",
	"Sporadic street gatherings form without permits.",
	"Organized resistance networks coordinate across districts.",
	"The streets are effectively ungovernable after dark.",
}

// inflammatoryActions are action types that add a flat anger surcharge:
// the kinds of operations people witness happening to their neighbors.
var inflammatoryActions = map[severity.ActionType]bool{
	severity.NeighborhoodRaid:   true,
	severity.ArbitraryDetention: true,
}

// Awareness acceleration: once the situation is already internationally
// visible, the same action produces an outsized awareness gain.
const (
	accelerationFloor   = 60
	accelerationDivisor = 40
)

// Tracker applies action consequences to an operator's opinion counters.
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker creates a tracker over the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Update applies one action's opinion consequences and returns the deltas
// plus any tier events crossed. Counters are clamped at 100 and never
// decrease here.
func (t *Tracker) Update(ctx context.Context, operatorID string, actionType severity.ActionType, severityScore int, triggeredBacklash bool) (*UpdateResult, error) {
	m, err := t.store.GetOrCreate(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("opinion: load metrics: %w", err)
	}

	awarenessDelta := float64(severityScore)
	if m.InternationalAwareness > accelerationFloor {
		awarenessDelta *= 1 + float64(m.InternationalAwareness-accelerationFloor)/accelerationDivisor
	}
	if triggeredBacklash {
		awarenessDelta *= 2
	}

	angerDelta := severityScore
	if inflammatoryActions[actionType] {
		angerDelta += 5
	}
	if triggeredBacklash {
		angerDelta += 10
	}

	return t.apply(ctx, m, int(math.Round(awarenessDelta)), angerDelta)
}

// Apply adds raw awareness/anger costs (suppression fallout) to the
// operator's counters, emitting tier events the same way Update does.
func (t *Tracker) Apply(ctx context.Context, operatorID string, awarenessDelta, angerDelta int) (*UpdateResult, error) {
	m, err := t.store.GetOrCreate(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("opinion: load metrics: %w", err)
	}
	return t.apply(ctx, m, awarenessDelta, angerDelta)
}

// Current returns the operator's metrics without mutating them.
func (t *Tracker) Current(ctx context.Context, operatorID string) (*PublicMetrics, error) {
	return t.store.GetOrCreate(ctx, operatorID)
}

func (t *Tracker) apply(ctx context.Context, m *PublicMetrics, awarenessDelta, angerDelta int) (*UpdateResult, error) {
	newAwareness := clamp100(m.InternationalAwareness + awarenessDelta)
	newAnger := clamp100(m.PublicAnger + angerDelta)

	var events []TierEvent
	newAwarenessTier := tierOf(newAwareness)
	for tier := m.AwarenessTier + 1; tier <= newAwarenessTier; tier++ {
		events = append(events, TierEvent{
			Counter:     "awareness",
			Tier:        tier,
			Threshold:   tierThresholds[tier-1],
			Description: awarenessDescriptions[tier-1],
		})
	}
	newAngerTier := tierOf(newAnger)
	for tier := m.AngerTier + 1; tier <= newAngerTier; tier++ {
		events = append(events, TierEvent{
			Counter:     "anger",
			Tier:        tier,
			Threshold:   tierThresholds[tier-1],
			Description: angerDescriptions[tier-1],
		})
	}

	m.InternationalAwareness = newAwareness
	m.PublicAnger = newAnger
	if newAwarenessTier > m.AwarenessTier {
		m.AwarenessTier = newAwarenessTier
	}
	if newAngerTier > m.AngerTier {
		m.AngerTier = newAngerTier
	}
	m.UpdatedAt = t.now()

	if err := t.store.Put(ctx, m); err != nil {
		return nil, fmt.Errorf("opinion: save metrics: %w", err)
	}

	return &UpdateResult{
		AwarenessDelta: awarenessDelta,
		AngerDelta:     angerDelta,
		NewAwareness:   newAwareness,
		NewAnger:       newAnger,
		TierEvents:     events,
	}, nil
}

// tierOf returns the highest tier whose threshold the value has reached.
func tierOf(value int) int {
	tier := 0
	for i, threshold := range tierThresholds {
		if value >= threshold {
			tier = i + 1
		}
	}
	return tier
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
