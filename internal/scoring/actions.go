package scoring

// Recommended action types surfaced to the operator.
const (
	ActionRoutineMonitoring    = "routine_monitoring"
	ActionIncreaseMonitoring   = "increase_monitoring"
	ActionTravelRestriction    = "travel_restriction"
	ActionEmployerNotification = "employer_notification"
	ActionImmediateDetention   = "immediate_detention"
	ActionIntervention         = "intervention"
)

// recommendActions derives the action list from the score. It is a step
// function of the score; the travel restriction in the middle band is
// additionally gated on which domains contributed.
func recommendActions(score int, factors []ContributingFactor) []RecommendedAction {
	mobilityFlagged := false
	for _, f := range factors {
		// Judicial history restricts movement the same way location
		// anomalies do: both mark the citizen as a travel concern.
		if f.Domain == DomainLocation || f.Domain == DomainJudicial {
			mobilityFlagged = true
			break
		}
	}

	switch {
	case score <= 40:
		return []RecommendedAction{{
			Type: ActionRoutineMonitoring, Priority: "routine",
			Reason: "score within routine band",
		}}
	case score <= 60:
		out := []RecommendedAction{{
			Type: ActionIncreaseMonitoring, Priority: "priority",
			Reason: "elevated risk score",
		}}
		if mobilityFlagged {
			out = append(out, RecommendedAction{
				Type: ActionTravelRestriction, Priority: "priority",
				Reason: "movement or judicial factors present",
			})
		}
		return out
	case score <= 80:
		return []RecommendedAction{
			{Type: ActionIncreaseMonitoring, Priority: "immediate", Reason: "high risk score"},
			{Type: ActionTravelRestriction, Priority: "immediate", Reason: "high risk score"},
			{Type: ActionEmployerNotification, Priority: "immediate", Reason: "high risk score"},
		}
	default:
		return []RecommendedAction{
			{Type: ActionImmediateDetention, Priority: "immediate", Reason: "severe risk score"},
			{Type: ActionIntervention, Priority: "immediate", Reason: "severe risk score"},
		}
	}
}
