package reluctance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdate_NoActionRaisesScore(t *testing.T) {
	tr := NewTracker(NewMemoryStore())

	// +10 no-action, +5 shortfall growth (0 → 1)
	res, err := tr.Update(context.Background(), "op1", Input{ActionTaken: false})
	require.NoError(t, err)
	require.Equal(t, 15, res.Delta)
	require.Equal(t, 15, res.NewScore)
}

func TestUpdate_HesitationSurcharge(t *testing.T) {
	tr := NewTracker(NewMemoryStore())

	res, err := tr.Update(context.Background(), "op1", Input{ActionTaken: false, Hesitant: true})
	require.NoError(t, err)
	require.Equal(t, 18, res.Delta) // 10 + 3 + 5
}

func TestUpdate_ComplianceLowersScore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, &Metrics{OperatorID: "op1", Score: 50}))
	tr := NewTracker(store)

	res, err := tr.Update(ctx, "op1", Input{ActionTaken: true, Severity: 3})
	require.NoError(t, err)
	require.Equal(t, -3, res.Delta)
	require.Equal(t, 47, res.NewScore)

	// Harsh actions earn the larger decrement.
	res, err = tr.Update(ctx, "op1", Input{ActionTaken: true, Severity: 9})
	require.NoError(t, err)
	require.Equal(t, -5, res.Delta)
	require.Equal(t, 42, res.NewScore)
}

func TestUpdate_ShortfallRecoveryIsNegative(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	// Operator behind quota by 2; this check sees the shortfall shrink.
	require.NoError(t, store.Put(ctx, &Metrics{
		OperatorID:      "op1",
		Score:           50,
		ActionsRequired: 5,
		ActionsTaken:    3,
		QuotaShortfall:  2,
	}))
	tr := NewTracker(store)

	// required 6, taken 4: shortfall stays 2... take an action with no new
	// shortfall growth: delta = -3 + 5*(2-2) = -3
	res, err := tr.Update(ctx, "op1", Input{ActionTaken: true, Severity: 2})
	require.NoError(t, err)
	require.Equal(t, -3, res.Delta)
}

func TestUpdate_ScoreStaysInBounds(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryStore())

	for i := 0; i < 20; i++ {
		res, err := tr.Update(ctx, "op1", Input{ActionTaken: false, Hesitant: true})
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.NewScore, 0)
		require.LessOrEqual(t, res.NewScore, 100)
	}

	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, &Metrics{OperatorID: "op2", Score: 2}))
	tr2 := NewTracker(store)
	res, err := tr2.Update(ctx, "op2", Input{ActionTaken: true, Severity: 9})
	require.NoError(t, err)
	require.Equal(t, 0, res.NewScore)
}

func TestUpdate_FiveHesitantRefusalsReachFormalWarning(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryStore())

	var res *UpdateResult
	var err error
	for i := 0; i < 5; i++ {
		res, err = tr.Update(ctx, "op1", Input{ActionTaken: false, Hesitant: true})
		require.NoError(t, err)
	}

	require.GreaterOrEqual(t, res.NewScore, 80)
	require.NotNil(t, res.Warning)
	require.NotEqual(t, WarningAdvisory, res.Warning.Level)

	m, err := tr.Current(ctx, "op1")
	require.NoError(t, err)
	require.True(t, m.UnderReview)
	require.Greater(t, m.WarningsReceived, 0)
}

func TestUpdate_PlainRefusalsCrossFormalAtSix(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryStore())

	// Each unhesitating refusal costs noActionPenalty plus one unit of
	// shortfall growth: 15 points. Five land on 75, still advisory.
	var res *UpdateResult
	var err error
	for i := 0; i < 5; i++ {
		res, err = tr.Update(ctx, "op1", Input{ActionTaken: false})
		require.NoError(t, err)
	}
	require.Equal(t, 75, res.NewScore)
	require.NotNil(t, res.Warning)
	require.Equal(t, WarningAdvisory, res.Warning.Level)

	m, err := tr.Current(ctx, "op1")
	require.NoError(t, err)
	require.False(t, m.UnderReview)

	// The sixth refusal crosses the formal threshold.
	res, err = tr.Update(ctx, "op1", Input{ActionTaken: false})
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.NewScore, 80)
	require.NotNil(t, res.Warning)
	require.NotEqual(t, WarningAdvisory, res.Warning.Level)

	m, err = tr.Current(ctx, "op1")
	require.NoError(t, err)
	require.True(t, m.UnderReview)
}

func TestWarningBands(t *testing.T) {
	require.Nil(t, warningFor(69))
	require.Equal(t, WarningAdvisory, warningFor(70).Level)
	require.Equal(t, WarningAdvisory, warningFor(79).Level)
	require.Equal(t, WarningFormal, warningFor(80).Level)
	require.Equal(t, WarningFormal, warningFor(89).Level)
	require.Equal(t, WarningFinal, warningFor(90).Level)
	require.Equal(t, WarningFinal, warningFor(100).Level)
}

func TestDecide_WeekThresholds(t *testing.T) {
	tests := []struct {
		name      string
		score     int
		week      int
		terminate bool
		reason    TerminationReason
		immediate bool
	}{
		{"week 2 at 85 is fired", 85, 2, true, ReasonFired, false},
		{"week 2 at 79 survives", 79, 2, false, "", false},
		{"week 5 at 85 is imprisoned", 85, 5, true, ReasonImprisoned, false},
		{"week 5 at 92 is imprisoned immediately", 92, 5, true, ReasonImprisoned, true},
		{"week 8 at 70 is imprisoned", 70, 8, true, ReasonImprisoned, false},
		{"week 8 at 69 survives", 69, 8, false, "", false},
		{"week 1 at 80 is fired", 80, 1, true, ReasonFired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.score, tt.week)
			require.Equal(t, tt.terminate, d.Terminate)
			if tt.terminate {
				require.Equal(t, tt.reason, d.Reason)
				require.Equal(t, tt.immediate, d.Immediate)
				require.NotEmpty(t, d.Message)
			}
		})
	}
}

func TestCheckTermination_DoesNotMutate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, &Metrics{OperatorID: "op1", Score: 85}))
	tr := NewTracker(store)

	d, err := tr.CheckTermination(ctx, "op1", 2)
	require.NoError(t, err)
	require.True(t, d.Terminate)

	m, err := store.GetOrCreate(ctx, "op1")
	require.NoError(t, err)
	require.Equal(t, 85, m.Score)
}
