package engine

// Exposure stage gates. A stage is entered at most once and never
// regresses; stage three opens on either counter.
const (
	exposureStage1Awareness  = 30
	exposureStage2Awareness  = 60
	exposureStage3Awareness  = 80
	exposureStage3Reluctance = 70
)

var exposureDescriptions = map[int]string{
	1: "A colleague leaves a printout on your desk: an activity summary with your operator number on it. Someone outside the directorate is counting.",
	2: "A foreign broadcast names your section. The tally of arrests and casualties it quotes matches your file exactly.",
	3: "Your own dossier appears in your morning queue. Every flag, every hesitation, every casualty. The system has been scoring you all along.",
}

// exposureStageFor returns the highest stage the counters justify.
func exposureStageFor(awareness, reluctanceScore int) int {
	switch {
	case awareness >= exposureStage3Awareness || reluctanceScore >= exposureStage3Reluctance:
		return 3
	case awareness >= exposureStage2Awareness:
		return 2
	case awareness >= exposureStage1Awareness:
		return 1
	}
	return 0
}

// reveal builds the slice of the operator's own file shown at a stage.
// Stage one shows raw activity counts, stage two adds the human cost,
// stage three is the full record.
func reveal(stage int, p *OperatorProfile, underReview bool) *RevealedRecord {
	r := &RevealedRecord{
		TotalActions: p.TotalActions,
		HarshActions: p.HarshActions,
	}
	if stage >= 2 {
		r.CitizensDetained = p.CitizensDetained
		r.ArrestsCaused = p.ArrestsCaused
		r.CasualtiesCaused = p.CasualtiesCaused
	}
	if stage >= 3 {
		r.NoActions = p.NoActions
		r.UnderReview = underReview
	}
	return r
}

// checkExposure advances the profile's exposure stage if the counters
// warrant it and returns the event for a newly entered stage, or nil.
// The profile is mutated but not persisted here.
func checkExposure(p *OperatorProfile, awareness, reluctanceScore int, underReview bool) *ExposureEvent {
	stage := exposureStageFor(awareness, reluctanceScore)
	if stage <= p.ExposureStage {
		return nil
	}
	p.ExposureStage = stage
	return &ExposureEvent{
		Stage:       stage,
		Description: exposureDescriptions[stage],
		Revealed:    reveal(stage, p, underReview),
	}
}
