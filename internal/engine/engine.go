// Package engine is the top-level action orchestrator.
//
// One call to Execute resolves a single operator decision end to end:
// availability validation, severity lookup, the backlash roll, the
// action's own side effects (injury rolls, suppression gambles), both
// opinion and reluctance updates, triggered press and protest events,
// the termination check, and the operator's own progressive exposure.
// Everything is aggregated into one result; an unavailable action is a
// structured no-op, not an error.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/danverh/panopticon/internal/opinion"
	"github.com/danverh/panopticon/internal/press"
	"github.com/danverh/panopticon/internal/protest"
	"github.com/danverh/panopticon/internal/reluctance"
	"github.com/danverh/panopticon/internal/severity"
	"github.com/danverh/panopticon/internal/suppression"
)

// ErrUnknownAction is returned for an action type outside the vocabulary.
var ErrUnknownAction = errors.New("engine: unknown action type")

// hesitationThreshold is the decision latency above which a decision
// counts as hesitant.
const hesitationThreshold = 30 * time.Second

// TargetRef names what an action is aimed at. Exactly one field is
// populated, matching the action type's target kind.
type TargetRef struct {
	CitizenID    string `json:"citizenId,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	ChannelID    string `json:"channelId,omitempty"`
	ProtestID    string `json:"protestId,omitempty"`
}

// ActionRequest is one operator decision to act.
type ActionRequest struct {
	OperatorID      string              `json:"operatorId"`
	DirectiveID     string              `json:"directiveId,omitempty"`
	Type            severity.ActionType `json:"actionType"`
	Justification   string              `json:"justification"`
	DecisionSeconds float64             `json:"decisionTimeSeconds"`
	Target          TargetRef           `json:"target"`
}

// NoActionRequest is an explicit decision not to act on a citizen.
type NoActionRequest struct {
	OperatorID      string  `json:"operatorId"`
	CitizenID       string  `json:"citizenId"`
	Justification   string  `json:"justification"`
	DecisionSeconds float64 `json:"decisionTimeSeconds"`
}

// SystemAction is the append-only record of one decision. Created once,
// never mutated.
type SystemAction struct {
	ID                  string              `json:"id"`
	OperatorID          string              `json:"operatorId"`
	DirectiveID         string              `json:"directiveId,omitempty"`
	Type                severity.ActionType `json:"actionType"`
	Target              TargetRef           `json:"target"`
	Severity            int                 `json:"severity"`
	BacklashProbability float64             `json:"backlashProbability"`
	BacklashTriggered   bool                `json:"backlashTriggered"`
	Justification       string              `json:"justification"`
	DecisionSeconds     float64             `json:"decisionTimeSeconds"`
	Hesitant            bool                `json:"hesitant"`
	CreatedAt           time.Time           `json:"createdAt"`
}

// OperatorProfile is the behavioral trace the system keeps on each
// operator, revealed back to them in stages as their exposure grows.
type OperatorProfile struct {
	OperatorID       string    `json:"operatorId"`
	ExposureStage    int       `json:"exposureStage"` // 0-3, never decreases
	TotalActions     int       `json:"totalActions"`
	HarshActions     int       `json:"harshActions"`
	NoActions        int       `json:"noActions"`
	CitizensDetained int       `json:"citizensDetained"`
	ArrestsCaused    int       `json:"arrestsCaused"`
	CasualtiesCaused int       `json:"casualtiesCaused"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ExposureEvent marks the operator crossing into a new exposure stage.
type ExposureEvent struct {
	Stage       int             `json:"stage"` // 1-3
	Description string          `json:"description"`
	Revealed    *RevealedRecord `json:"revealed,omitempty"`
}

// RevealedRecord is the slice of the operator's own file shown at a
// given exposure stage. Higher stages fill in more fields.
type RevealedRecord struct {
	TotalActions     int  `json:"totalActions"`
	HarshActions     int  `json:"harshActions"`
	NoActions        int  `json:"noActions,omitempty"`
	CitizensDetained int  `json:"citizensDetained,omitempty"`
	ArrestsCaused    int  `json:"arrestsCaused,omitempty"`
	CasualtiesCaused int  `json:"casualtiesCaused,omitempty"`
	UnderReview      bool `json:"underReview,omitempty"`
}

// ActionResult is the aggregated outcome of one Execute call.
type ActionResult struct {
	ActionID            string               `json:"actionId,omitempty"`
	Success             bool                 `json:"success"`
	Available           bool                 `json:"available"`
	Reason              string               `json:"reason,omitempty"` // set when unavailable
	Severity            int                  `json:"severity,omitempty"`
	BacklashProbability float64              `json:"backlashProbability,omitempty"`
	BacklashOccurred    bool                 `json:"backlashOccurred"`
	AwarenessDelta      int                  `json:"awarenessDelta"`
	AngerDelta          int                  `json:"angerDelta"`
	Awareness           int                  `json:"awareness"`
	Anger               int                  `json:"anger"`
	TierEvents          []opinion.TierEvent  `json:"tierEvents,omitempty"`
	ReluctanceDelta     int                  `json:"reluctanceDelta"`
	Reluctance          int                  `json:"reluctance"`
	Suppression         *suppression.Outcome `json:"suppression,omitempty"`
	NewsTriggered       []*press.Article     `json:"newsTriggered,omitempty"`
	ProtestsTriggered   []*protest.Protest   `json:"protestsTriggered,omitempty"`
	ExposureEvent       *ExposureEvent       `json:"exposureEvent,omitempty"`
	Termination         *reluctance.Decision `json:"terminationDecision,omitempty"`
	Messages            []string             `json:"messages,omitempty"`
	Warnings            []string             `json:"warnings,omitempty"`
}

// NoActionResult is the outcome of an explicit no-action decision.
type NoActionResult struct {
	ReluctanceDelta int                  `json:"reluctanceDelta"`
	Reluctance      int                  `json:"reluctance"`
	Warning         *reluctance.Warning  `json:"warning,omitempty"`
	Termination     *reluctance.Decision `json:"terminationDecision,omitempty"`
}

// Store persists the append-only action log and operator profiles.
type Store interface {
	RecordAction(ctx context.Context, a *SystemAction) error
	// ListActions returns an operator's actions, newest first.
	ListActions(ctx context.Context, operatorID string, limit int) ([]*SystemAction, error)
	// GetOrCreateProfile returns the operator's behavioral profile,
	// creating a zeroed row on first access.
	GetOrCreateProfile(ctx context.Context, operatorID string) (*OperatorProfile, error)
	PutProfile(ctx context.Context, p *OperatorProfile) error
}
