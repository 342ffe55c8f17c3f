// Package opinion tracks the two public-opinion counters that every
// operator action feeds: international awareness and public anger.
//
// Both counters are bounded to [0, 100] and only ever rise through this
// package (suppression fallout is applied as additive cost, never relief).
// Five fixed thresholds per counter mark escalation tiers; crossing one
// for the first time emits a TierEvent and permanently raises the
// operator's recorded tier.
package opinion

import (
	"context"
	"time"
)

// PublicMetrics is the per-operator opinion state.
type PublicMetrics struct {
	OperatorID             string    `json:"operatorId"`
	InternationalAwareness int       `json:"internationalAwareness"` // 0-100
	PublicAnger            int       `json:"publicAnger"`            // 0-100
	AwarenessTier          int       `json:"awarenessTier"`          // 0-5, never decreases
	AngerTier              int       `json:"angerTier"`              // 0-5, never decreases
	UpdatedAt              time.Time `json:"updatedAt"`
}

// TierEvent is emitted when a counter crosses a threshold for the first time.
type TierEvent struct {
	Counter     string `json:"counter"` // "awareness" or "anger"
	Tier        int    `json:"tier"`    // 1-5
	Threshold   int    `json:"threshold"`
	Description string `json:"description"`
}

// UpdateResult reports the effect of one tracker update.
type UpdateResult struct {
	AwarenessDelta int         `json:"awarenessDelta"`
	AngerDelta     int         `json:"angerDelta"`
	NewAwareness   int         `json:"newAwareness"`
	NewAnger       int         `json:"newAnger"`
	TierEvents     []TierEvent `json:"tierEvents,omitempty"`
}

// Store persists per-operator opinion metrics.
type Store interface {
	// GetOrCreate returns the operator's metrics, creating a zeroed row
	// on first access.
	GetOrCreate(ctx context.Context, operatorID string) (*PublicMetrics, error)
	// Put overwrites the operator's metrics row.
	Put(ctx context.Context, m *PublicMetrics) error
}
