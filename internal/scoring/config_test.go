package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelBandsPartitionZeroToHundred(t *testing.T) {
	require.Equal(t, 0, levelBands[0].Min)
	require.Equal(t, 100, levelBands[len(levelBands)-1].Max)
	for i := 1; i < len(levelBands); i++ {
		require.Equal(t, levelBands[i-1].Max+1, levelBands[i].Min,
			"bands %q and %q must be contiguous", levelBands[i-1].Level, levelBands[i].Level)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  Level
	}{
		{0, LevelLow},
		{20, LevelLow},
		{21, LevelModerate},
		{40, LevelModerate},
		{41, LevelElevated},
		{60, LevelElevated},
		{61, LevelHigh},
		{80, LevelHigh},
		{81, LevelSevere},
		{100, LevelSevere},
		{-5, LevelLow},     // clamped
		{150, LevelSevere}, // clamped
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(tt.score), "Classify(%d)", tt.score)
	}
}

func TestClassifyMonotonic(t *testing.T) {
	rank := map[Level]int{
		LevelLow: 0, LevelModerate: 1, LevelElevated: 2, LevelHigh: 3, LevelSevere: 4,
	}
	prev := 0
	for s := 0; s <= 100; s++ {
		cur := rank[Classify(s)]
		require.GreaterOrEqual(t, cur, prev, "classify must be non-decreasing at score %d", s)
		prev = cur
	}
}

func TestPatternFactorReferencesResolve(t *testing.T) {
	// init would have panicked otherwise; assert the invariant explicitly.
	keys := map[string]bool{}
	for _, f := range factorTable {
		keys[f.Key] = true
	}
	for _, p := range patternTable {
		for _, cl := range p.Clauses {
			for _, key := range cl.Factors {
				require.True(t, keys[key], "pattern %q references unknown factor %q", p.Name, key)
			}
		}
	}
}

func TestEvalClause(t *testing.T) {
	fired := map[string]bool{"a": true, "b": true}

	require.True(t, evalClause(clause{Mode: clauseAll, Factors: []string{"a", "b"}}, fired))
	require.False(t, evalClause(clause{Mode: clauseAll, Factors: []string{"a", "c"}}, fired))
	require.True(t, evalClause(clause{Mode: clauseAny, Factors: []string{"c", "b"}}, fired))
	require.False(t, evalClause(clause{Mode: clauseAny, Factors: []string{"c", "d"}}, fired))
}

func TestRecidivismRiskExactCondition(t *testing.T) {
	present := map[string]bool{DomainFinance: true, DomainJudicial: true}

	both := map[string]bool{"financial_stress": true, "prior_criminal_record": true}
	onlyFinance := map[string]bool{"financial_stress": true}
	onlyRecord := map[string]bool{"prior_criminal_record": true}

	has := func(alerts []CorrelationAlert, name string) bool {
		for _, a := range alerts {
			if a.Name == name {
				return true
			}
		}
		return false
	}

	require.True(t, has(evalPatterns(present, both), "recidivism_risk"))
	require.False(t, has(evalPatterns(present, onlyFinance), "recidivism_risk"))
	require.False(t, has(evalPatterns(present, onlyRecord), "recidivism_risk"))

	// Domain presence is required even when the factors fired.
	require.False(t, has(evalPatterns(map[string]bool{DomainFinance: true}, both), "recidivism_risk"))
}

func TestRecommendActionsStepFunction(t *testing.T) {
	locFactor := []ContributingFactor{{Key: "border_proximity", Domain: DomainLocation}}

	low := recommendActions(10, nil)
	require.Len(t, low, 1)
	require.Equal(t, ActionRoutineMonitoring, low[0].Type)

	mid := recommendActions(55, nil)
	require.Len(t, mid, 1)
	require.Equal(t, ActionIncreaseMonitoring, mid[0].Type)

	midLoc := recommendActions(55, locFactor)
	require.Len(t, midLoc, 2)
	require.Equal(t, ActionTravelRestriction, midLoc[1].Type)

	high := recommendActions(75, nil)
	require.Len(t, high, 3)

	severe := recommendActions(85, nil)
	require.Len(t, severe, 2)
	require.Equal(t, ActionImmediateDetention, severe[0].Type)
}
