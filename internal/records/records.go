// Package records holds citizen dossiers: the per-domain records the risk
// scorer reads and the citizen-level fields it writes back.
//
// A citizen may have any subset of domain records. Absence of a record
// simply means that domain contributes nothing to the risk score.
package records

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a citizen does not exist.
var ErrNotFound = errors.New("records: citizen not found")

// Citizen is the dossier root. RiskScore/RiskScoredAt are the cached
// scoring fields owned by the scorer; everything else is seed data.
type Citizen struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Neighborhood string     `json:"neighborhood"`
	Detained     bool       `json:"detained"`
	Hospitalized bool       `json:"hospitalized"` // set by a detention injury
	RiskScore    int        `json:"riskScore"`
	RiskScoredAt *time.Time `json:"riskScoredAt,omitempty"`
}

// HealthRecord covers medical history relevant to scoring.
type HealthRecord struct {
	CitizenID  string      `json:"citizenId"`
	Conditions []Condition `json:"conditions"`
	// MentalHealthTreatments counts treatment episodes on file.
	MentalHealthTreatments int `json:"mentalHealthTreatments"`
}

// Condition is a single diagnosed condition.
type Condition struct {
	Name     string `json:"name"`
	Severity string `json:"severity"` // "mild", "moderate", "severe"
	Chronic  bool   `json:"chronic"`
}

// FinanceRecord covers income and debt.
type FinanceRecord struct {
	CitizenID    string  `json:"citizenId"`
	AnnualIncome float64 `json:"annualIncome"`
	Debts        []Debt  `json:"debts"`
	// CashWithdrawals90d totals cash withdrawals over the last 90 days.
	CashWithdrawals90d float64 `json:"cashWithdrawals90d"`
}

// Debt is a single obligation.
type Debt struct {
	Kind       string  `json:"kind"` // "credit_card", "mortgage", "personal"
	Amount     float64 `json:"amount"`
	Delinquent bool    `json:"delinquent"`
}

// JudicialRecord covers criminal history.
type JudicialRecord struct {
	CitizenID      string       `json:"citizenId"`
	Convictions    []Conviction `json:"convictions"`
	PendingCharges int          `json:"pendingCharges"`
}

// Conviction is a single prior conviction.
type Conviction struct {
	Offense string    `json:"offense"`
	Violent bool      `json:"violent"`
	Date    time.Time `json:"date"`
}

// LocationRecord covers movement history.
type LocationRecord struct {
	CitizenID string  `json:"citizenId"`
	Visits    []Visit `json:"visits"`
}

// Visit is a tracked presence in a zone.
type Visit struct {
	Zone       string    `json:"zone"`
	NearBorder bool      `json:"nearBorder"`
	At         time.Time `json:"at"`
}

// SocialRecord covers the citizen's network profile.
type SocialRecord struct {
	CitizenID       string   `json:"citizenId"`
	FollowerCount   int      `json:"followerCount"`
	ForeignContacts int      `json:"foreignContacts"`
	Affiliations    []string `json:"affiliations"`
}

// Dossier bundles whatever domain records exist for one citizen.
// Nil pointers mean the domain has no record on file.
type Dossier struct {
	Citizen  Citizen
	Health   *HealthRecord
	Finance  *FinanceRecord
	Judicial *JudicialRecord
	Location *LocationRecord
	Social   *SocialRecord
}

// Store is the citizen record store.
type Store interface {
	// GetDossier loads a citizen and all their domain records.
	// Returns ErrNotFound for unknown citizens.
	GetDossier(ctx context.Context, citizenID string) (*Dossier, error)

	// GetCitizen loads the citizen row only.
	GetCitizen(ctx context.Context, citizenID string) (*Citizen, error)

	// PutDossier inserts or replaces a citizen and their records (seeding).
	PutDossier(ctx context.Context, d *Dossier) error

	// SetRiskScore overwrites the citizen-level score cache fields.
	SetRiskScore(ctx context.Context, citizenID string, score int, at time.Time) error

	// SetHospitalized marks a citizen hospitalized (detention injury).
	SetHospitalized(ctx context.Context, citizenID string, hospitalized bool) error

	// SetDetained marks a citizen detained.
	SetDetained(ctx context.Context, citizenID string, detained bool) error
}
