// Package protest models street protests ignited by operator actions.
//
// A protest forms, turns active, and ends in exactly one terminal state:
// dispersed on its own, turned violent, or suppressed by the state. The
// planted-agitator flag is decided once at creation and is what makes
// violent suppression possible later.
package protest

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a protest does not exist.
var ErrNotFound = errors.New("protest: not found")

// Status is the protest lifecycle state.
type Status string

const (
	StatusForming    Status = "FORMING"
	StatusActive     Status = "ACTIVE"
	StatusDispersed  Status = "DISPERSED"  // terminal
	StatusViolent    Status = "VIOLENT"    // terminal
	StatusSuppressed Status = "SUPPRESSED" // terminal
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusDispersed, StatusViolent, StatusSuppressed:
		return true
	}
	return false
}

// Protest is one street protest.
type Protest struct {
	ID                 string    `json:"id"`
	Neighborhood       string    `json:"neighborhood"`
	Description        string    `json:"description"`
	Status             Status    `json:"status"`
	Size               int       `json:"size"` // participant count, 50-5000
	AgitatorPlanted    bool      `json:"agitatorPlanted"`
	AgitatorDiscovered bool      `json:"agitatorDiscovered"`
	Casualties         int       `json:"casualties"`
	Arrests            int       `json:"arrests"`
	StartedAt          time.Time `json:"startedAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Store persists protests.
type Store interface {
	Create(ctx context.Context, p *Protest) error
	Get(ctx context.Context, id string) (*Protest, error)
	Update(ctx context.Context, p *Protest) error
	// ListOpen returns protests in a non-terminal state, oldest first.
	ListOpen(ctx context.Context) ([]*Protest, error)
}
