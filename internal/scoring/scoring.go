// Package scoring implements citizen risk assessment.
//
// Each domain record is run through a fixed set of pattern checks. Every
// check that fires contributes one weighted factor; the risk score is the
// clamped sum of factor weights, so recomputing from the same records is
// idempotent. Cross-domain correlation patterns produce alerts on top of
// the factor set, and a step function of the score yields recommended
// actions for the operator.
package scoring

import (
	"context"
	"time"
)

// Level is one of the five ordered risk bands.
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelElevated Level = "elevated"
	LevelHigh     Level = "high"
	LevelSevere   Level = "severe"
)

// ContributingFactor is one triggered pattern check with its evidence.
// Weight is per factor key, not per occurrence: multiple triggering items
// inside one factor grow the evidence text, never the weight.
type ContributingFactor struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Weight   int    `json:"weight"`
	Evidence string `json:"evidence"`
	Domain   string `json:"domain"`
}

// CorrelationAlert is a fired multi-domain pattern.
type CorrelationAlert struct {
	Name        string   `json:"name"`
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description"`
	Domains     []string `json:"domains"`
}

// RecommendedAction is one entry of the score-derived action list.
type RecommendedAction struct {
	Type     string `json:"type"`
	Priority string `json:"priority"` // "routine", "priority", "immediate"
	Reason   string `json:"reason"`
}

// RiskAssessment is the scorer's full output for one citizen.
type RiskAssessment struct {
	ID                 string               `json:"id"`
	CitizenID          string               `json:"citizenId"`
	Score              int                  `json:"score"` // 0-100
	Level              Level                `json:"level"`
	Factors            []ContributingFactor `json:"factors"`
	Alerts             []CorrelationAlert   `json:"alerts"`
	RecommendedActions []RecommendedAction  `json:"recommendedActions"`
	FromCache          bool                 `json:"fromCache"`
	EvaluatedAt        time.Time            `json:"evaluatedAt"`
}

// Store persists risk assessments for audit trail.
type Store interface {
	Record(ctx context.Context, assessment *RiskAssessment) error
	ListByCitizen(ctx context.Context, citizenID string, limit int) ([]*RiskAssessment, error)
}
