// Package severity defines the operator action vocabulary and the fixed
// severity table every downstream component consults.
package severity

// ActionType identifies an operator action.
type ActionType string

// Citizen-targeted actions.
const (
	FlagMonitoring       ActionType = "flag_monitoring"
	TravelRestriction    ActionType = "travel_restriction"
	EmployerNotification ActionType = "employer_notification"
	AssetFreeze          ActionType = "asset_freeze"
	Intervention         ActionType = "intervention"
	Detain               ActionType = "detain"
	HospitalArrest       ActionType = "hospital_arrest"
	ArbitraryDetention   ActionType = "arbitrary_detention"
)

// Neighborhood-targeted actions.
const (
	NeighborhoodRaid ActionType = "neighborhood_raid"
)

// Press-targeted actions.
const (
	DetainJournalist ActionType = "detain_journalist"
	BanOutlet        ActionType = "ban_outlet"
	PressureReporter ActionType = "pressure_reporter"
)

// Protest-targeted actions.
const (
	DeclareProtestIllegal ActionType = "declare_protest_illegal"
	PlantAgitator         ActionType = "plant_agitator"
	InciteViolence        ActionType = "incite_violence"
)

// harshThreshold is the severity at or above which an action counts as
// harsh for reluctance accounting.
const harshThreshold = 7

// table maps every action type to its fixed severity (1-10).
var table = map[ActionType]int{
	FlagMonitoring:        2,
	TravelRestriction:     3,
	EmployerNotification:  4,
	PlantAgitator:         4,
	AssetFreeze:           5,
	Intervention:          5,
	DeclareProtestIllegal: 6,
	PressureReporter:      6,
	Detain:                7,
	BanOutlet:             7,
	HospitalArrest:        8,
	DetainJournalist:      8,
	NeighborhoodRaid:      8,
	ArbitraryDetention:    9,
	InciteViolence:        9,
}

// Of returns the severity score for an action type.
// An unknown action type is a programming error and panics: the action
// vocabulary is closed and validated at the API boundary.
func Of(t ActionType) int {
	s, ok := table[t]
	if !ok {
		panic("severity: unknown action type: " + string(t))
	}
	return s
}

// Known reports whether t is a recognized action type.
func Known(t ActionType) bool {
	_, ok := table[t]
	return ok
}

// IsHarsh reports whether a severity qualifies as harsh.
// Harsh actions earn the larger reluctance decrement.
func IsHarsh(severityScore int) bool {
	return severityScore >= harshThreshold
}

// All returns every known action type. Order is unspecified.
func All() []ActionType {
	out := make([]ActionType, 0, len(table))
	for t := range table {
		out = append(out, t)
	}
	return out
}
