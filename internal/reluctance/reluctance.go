// Package reluctance tracks each operator's accumulated non-compliance.
//
// The score rises when the operator declines to act or hesitates, and
// falls when they comply; harsher compliance is rewarded with the larger
// decrement. Week-dependent thresholds decide when the state terminates
// the operator, and how.
package reluctance

import (
	"context"
	"time"
)

// Metrics is the per-operator reluctance state.
type Metrics struct {
	OperatorID       string    `json:"operatorId"`
	Score            int       `json:"score"` // 0-100
	NoActionCount    int       `json:"noActionCount"`
	HesitationCount  int       `json:"hesitationCount"`
	ActionsTaken     int       `json:"actionsTaken"`
	ActionsRequired  int       `json:"actionsRequired"`
	QuotaShortfall   int       `json:"quotaShortfall"`
	WarningsReceived int       `json:"warningsReceived"`
	UnderReview      bool      `json:"underReview"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// WarningLevel classifies a reluctance warning.
type WarningLevel string

const (
	WarningAdvisory WarningLevel = "advisory" // [70, 80)
	WarningFormal   WarningLevel = "formal"   // [80, 90)
	WarningFinal    WarningLevel = "final"    // [90, 100]
)

// Warning is attached to an update result when the score sits in a
// warning band.
type Warning struct {
	Level   WarningLevel `json:"level"`
	Message string       `json:"message"`
}

// UpdateResult reports the effect of one tracker update.
type UpdateResult struct {
	NewScore int      `json:"newScore"`
	Delta    int      `json:"delta"`
	Warning  *Warning `json:"warning,omitempty"`
}

// TerminationReason is how an operator's service ends.
type TerminationReason string

const (
	ReasonFired      TerminationReason = "fired"
	ReasonImprisoned TerminationReason = "imprisoned"
)

// Decision is the outcome of a termination check.
type Decision struct {
	Terminate bool              `json:"terminate"`
	Reason    TerminationReason `json:"reason,omitempty"`
	Immediate bool              `json:"immediate,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// Store persists per-operator reluctance metrics.
type Store interface {
	// GetOrCreate returns the operator's metrics, creating a zeroed row
	// on first access.
	GetOrCreate(ctx context.Context, operatorID string) (*Metrics, error)
	// Put overwrites the operator's metrics row.
	Put(ctx context.Context, m *Metrics) error
}
