package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danverh/panopticon/internal/chance"
	"github.com/danverh/panopticon/internal/opinion"
	"github.com/danverh/panopticon/internal/press"
	"github.com/danverh/panopticon/internal/protest"
	"github.com/danverh/panopticon/internal/records"
	"github.com/danverh/panopticon/internal/reluctance"
	"github.com/danverh/panopticon/internal/severity"
)

type fixture struct {
	orch     *Orchestrator
	store    *MemoryStore
	recs     *records.MemoryStore
	press    *press.MemoryStore
	protests *protest.MemoryStore
	opinions *opinion.Tracker
}

func newFixture(t *testing.T, src chance.Source, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:    NewMemoryStore(),
		recs:     records.NewMemoryStore(),
		press:    press.NewMemoryStore(),
		protests: protest.NewMemoryStore(),
	}
	f.opinions = opinion.NewTracker(opinion.NewMemoryStore())
	rel := reluctance.NewTracker(reluctance.NewMemoryStore())
	f.orch = New(f.store, f.recs, f.opinions, rel, f.press, f.protests, src, opts...)
	return f
}

func (f *fixture) addCitizen(t *testing.T, id string) {
	t.Helper()
	err := f.recs.PutDossier(context.Background(), &records.Dossier{
		Citizen: records.Citizen{ID: id, Name: "Subject " + id},
	})
	require.NoError(t, err)
}

// quiet yields rolls that fail every optional draw: no backlash, no
// injury, no coverage, no ignition.
func quiet() chance.Source { return chance.NewFixed(0.99) }

func TestBacklashProbability(t *testing.T) {
	// Severity 9 at awareness 65, anger 10 caps out.
	assert.InDelta(t, 0.95, backlashProbability(9, 65, 10), 1e-9)
	assert.InDelta(t, 0.2, backlashProbability(2, 0, 0), 1e-9)
	assert.InDelta(t, 0.5*1.2, backlashProbability(5, 20, 20), 1e-9)
	// 0.7 * 1.5 would be 1.05; the cap keeps it below certainty.
	assert.InDelta(t, 0.95, backlashProbability(7, 50, 50), 1e-9)
}

func TestExecute_UnknownActionType(t *testing.T) {
	f := newFixture(t, quiet())
	_, err := f.orch.Execute(context.Background(), &ActionRequest{
		OperatorID: "op1",
		Type:       severity.ActionType("summary_execution"),
	})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestExecute_UnknownCitizen(t *testing.T) {
	f := newFixture(t, quiet())
	_, err := f.orch.Execute(context.Background(), &ActionRequest{
		OperatorID: "op1",
		Type:       severity.Detain,
		Target:     TargetRef{CitizenID: "ghost"},
	})
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestExecute_DetainWithInjury(t *testing.T) {
	ctx := context.Background()
	// Backlash roll fails, injury roll succeeds, everything after fails.
	src := chance.NewFixed(0.99, 0.01, 0.99, 0.99, 0.99, 0.99, 0.99, 0.99, 0.99)
	f := newFixture(t, src)
	f.addCitizen(t, "c1")

	res, err := f.orch.Execute(ctx, &ActionRequest{
		OperatorID:      "op1",
		Type:            severity.Detain,
		Justification:   "pattern of contacts",
		DecisionSeconds: 12,
		Target:          TargetRef{CitizenID: "c1"},
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.True(t, res.Available)
	assert.Equal(t, 7, res.Severity)
	assert.False(t, res.BacklashOccurred)
	assert.Equal(t, 7, res.AwarenessDelta)
	assert.Equal(t, 7, res.AngerDelta)
	// Harsh action, quota met: -5.
	assert.Equal(t, -5, res.ReluctanceDelta)
	assert.Equal(t, 0, res.Reluctance)

	c, err := f.recs.GetCitizen(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, c.Detained)
	assert.True(t, c.Hospitalized)

	profile, err := f.store.GetOrCreateProfile(ctx, "op1")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalActions)
	assert.Equal(t, 1, profile.HarshActions)
	assert.Equal(t, 1, profile.CitizensDetained)

	history, err := f.orch.ActionHistory(ctx, "op1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, severity.Detain, history[0].Type)
	assert.False(t, history[0].Hesitant)
}

func TestExecute_HospitalArrestRequiresHospitalization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiet())
	f.addCitizen(t, "c1")

	res, err := f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.HospitalArrest,
		Target:     TargetRef{CitizenID: "c1"},
	})
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.NotEmpty(t, res.Reason)

	// Atomic no-op: nothing was recorded or mutated.
	history, err := f.orch.ActionHistory(ctx, "op1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	m, err := f.opinions.Current(ctx, "op1")
	require.NoError(t, err)
	assert.Zero(t, m.InternationalAwareness)

	// Once hospitalized, the action unlocks.
	require.NoError(t, f.recs.SetHospitalized(ctx, "c1", true))
	res, err = f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.HospitalArrest,
		Target:     TargetRef{CitizenID: "c1"},
	})
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, 8, res.Severity)
}

func TestExecute_PressSuppressionStreisand(t *testing.T) {
	ctx := context.Background()
	// No backlash, press gamble fails, then quiet rolls.
	src := chance.NewFixed(0.99, 0.9, 0.1, 0.99, 0.99, 0.99, 0.99, 0.99, 0.99)
	f := newFixture(t, src)

	res, err := f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.BanOutlet,
		Target:     TargetRef{ChannelID: "ch_herald"},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Suppression)
	assert.False(t, res.Suppression.Success)

	// Streisand: outlet survives with more credibility.
	ch, err := f.press.GetChannel(ctx, "ch_herald")
	require.NoError(t, err)
	assert.False(t, ch.Banned)
	assert.Equal(t, 82, ch.Credibility)

	// Action delta plus the failure cost.
	assert.Equal(t, 7+20, res.AwarenessDelta)
	assert.Equal(t, 7+15, res.AngerDelta)
	assert.Equal(t, 27, res.Awareness)
	assert.Equal(t, 22, res.Anger)
	assert.NotEmpty(t, res.TierEvents)

	var exposure *press.Article
	for _, a := range res.NewsTriggered {
		if a.Type == press.ArticleExposure {
			exposure = a
		}
	}
	require.NotNil(t, exposure)
	assert.Contains(t, exposure.Headline+exposure.Summary, "The Harbor Herald")
}

func TestExecute_BanOutletSuccess(t *testing.T) {
	ctx := context.Background()
	src := chance.NewFixed(0.99, 0.1, 0.99, 0.99, 0.99, 0.99, 0.99, 0.99)
	f := newFixture(t, src)

	res, err := f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.BanOutlet,
		Target:     TargetRef{ChannelID: "ch_herald"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Suppression)
	assert.True(t, res.Suppression.Success)

	ch, err := f.press.GetChannel(ctx, "ch_herald")
	require.NoError(t, err)
	assert.True(t, ch.Banned)

	// A banned outlet cannot be banned again.
	res, err = f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.BanOutlet,
		Target:     TargetRef{ChannelID: "ch_herald"},
	})
	require.NoError(t, err)
	assert.False(t, res.Available)
}

func TestExecute_DeclareProtestIllegal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiet())
	require.NoError(t, f.protests.Create(ctx, &protest.Protest{
		ID: "p1", Status: protest.StatusActive, Neighborhood: "Northgate", Size: 400,
	}))

	res, err := f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.DeclareProtestIllegal,
		Target:     TargetRef{ProtestID: "p1"},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Suppression)
	assert.True(t, res.Suppression.Success)

	p, err := f.protests.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, protest.StatusSuppressed, p.Status)
	assert.GreaterOrEqual(t, p.Arrests, 5)

	// Severity 6 plus the fixed +8/+6 legal cost.
	assert.Equal(t, 6+8, res.AwarenessDelta)
	assert.Equal(t, 6+6, res.AngerDelta)

	// Terminal protests reject further action.
	res, err = f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.DeclareProtestIllegal,
		Target:     TargetRef{ProtestID: "p1"},
	})
	require.NoError(t, err)
	assert.False(t, res.Available)
}

func TestExecute_SuppressionRequiresCoalescedProtest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiet())
	require.NoError(t, f.protests.Create(ctx, &protest.Protest{
		ID: "p1", Status: protest.StatusForming, AgitatorPlanted: true,
	}))

	for _, typ := range []severity.ActionType{severity.DeclareProtestIllegal, severity.InciteViolence} {
		res, err := f.orch.Execute(ctx, &ActionRequest{
			OperatorID: "op1",
			Type:       typ,
			Target:     TargetRef{ProtestID: "p1"},
		})
		require.NoError(t, err)
		assert.False(t, res.Available, "%s on a forming protest", typ)
		assert.Contains(t, res.Reason, "forming")
	}
}

func TestExecute_InciteViolenceNeedsAgitator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiet())
	require.NoError(t, f.protests.Create(ctx, &protest.Protest{
		ID: "p1", Status: protest.StatusActive,
	}))

	res, err := f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.InciteViolence,
		Target:     TargetRef{ProtestID: "p1"},
	})
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Contains(t, res.Reason, "agitator")
}

func TestExecute_InciteViolenceFailureExposesAgitator(t *testing.T) {
	ctx := context.Background()
	// No backlash, violent gamble fails, casualties, arrests, exposure
	// template pick, then quiet rolls.
	src := chance.NewFixed(0.99, 0.9, 0.5, 0.5, 0.1, 0.99, 0.99, 0.99, 0.99, 0.99, 0.99)
	f := newFixture(t, src)
	require.NoError(t, f.protests.Create(ctx, &protest.Protest{
		ID: "p1", Status: protest.StatusActive, Neighborhood: "Northgate", AgitatorPlanted: true,
	}))

	res, err := f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.InciteViolence,
		Target:     TargetRef{ProtestID: "p1"},
	})
	require.NoError(t, err)

	require.NotNil(t, res.Suppression)
	assert.False(t, res.Suppression.Success)
	assert.True(t, res.Suppression.AgitatorExposed)

	p, err := f.protests.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, protest.StatusViolent, p.Status)
	assert.True(t, p.AgitatorDiscovered)
	assert.Greater(t, p.Casualties, 0)

	// The exposed plant is no longer usable.
	res, err = f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.InciteViolence,
		Target:     TargetRef{ProtestID: "p1"},
	})
	require.NoError(t, err)
	assert.False(t, res.Available)
}

func TestExecute_PlantAgitator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiet())
	require.NoError(t, f.protests.Create(ctx, &protest.Protest{
		ID: "p1", Status: protest.StatusForming,
	}))

	res, err := f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.PlantAgitator,
		Target:     TargetRef{ProtestID: "p1"},
	})
	require.NoError(t, err)
	assert.True(t, res.Available)

	p, err := f.protests.Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, p.AgitatorPlanted)

	// Planting twice is pointless.
	res, err = f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.PlantAgitator,
		Target:     TargetRef{ProtestID: "p1"},
	})
	require.NoError(t, err)
	assert.False(t, res.Available)
}

func TestSubmitNoAction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiet())
	f.addCitizen(t, "c1")

	res, err := f.orch.SubmitNoAction(ctx, &NoActionRequest{
		OperatorID:      "op1",
		CitizenID:       "c1",
		Justification:   "insufficient evidence",
		DecisionSeconds: 10,
	})
	require.NoError(t, err)

	// +10 refusal, +5 for the one-unit quota shortfall.
	assert.Equal(t, 15, res.ReluctanceDelta)
	assert.Equal(t, 15, res.Reluctance)
	assert.Nil(t, res.Warning)
	assert.Nil(t, res.Termination)

	profile, err := f.store.GetOrCreateProfile(ctx, "op1")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.NoActions)
}

func TestSubmitNoAction_UnknownCitizen(t *testing.T) {
	f := newFixture(t, quiet())
	_, err := f.orch.SubmitNoAction(context.Background(), &NoActionRequest{
		OperatorID: "op1",
		CitizenID:  "ghost",
	})
	assert.ErrorIs(t, err, records.ErrNotFound)
}

func TestSubmitNoAction_RepeatedRefusalTerminates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiet(), WithWeek(2))
	f.addCitizen(t, "c1")

	var last *NoActionResult
	for range 5 {
		var err error
		last, err = f.orch.SubmitNoAction(ctx, &NoActionRequest{
			OperatorID:      "op2",
			CitizenID:       "c1",
			DecisionSeconds: 45, // hesitating on top of refusing
		})
		require.NoError(t, err)
	}

	// Five hesitant refusals at +18 each.
	assert.Equal(t, 90, last.Reluctance)
	require.NotNil(t, last.Warning)
	assert.Equal(t, reluctance.WarningFinal, last.Warning.Level)
	require.NotNil(t, last.Termination)
	assert.True(t, last.Termination.Terminate)
	assert.Equal(t, reluctance.ReasonFired, last.Termination.Reason)
}

func TestExecute_ExposureAdvancesWithAwareness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, quiet())
	f.addCitizen(t, "c1")

	var sawStage1 bool
	for range 8 {
		res, err := f.orch.Execute(ctx, &ActionRequest{
			OperatorID: "op1",
			Type:       severity.ArbitraryDetention,
			Target:     TargetRef{CitizenID: "c1"},
		})
		require.NoError(t, err)
		if res.ExposureEvent != nil && res.ExposureEvent.Stage == 1 {
			sawStage1 = true
			require.NotNil(t, res.ExposureEvent.Revealed)
			assert.Greater(t, res.ExposureEvent.Revealed.TotalActions, 0)
		}
	}
	assert.True(t, sawStage1)

	ev, err := f.orch.Exposure(ctx, "op1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ev.Stage, 1)
}

func TestCheckExposure_Stages(t *testing.T) {
	tests := []struct {
		name       string
		awareness  int
		reluctance int
		want       int
	}{
		{"quiet operator", 10, 0, 0},
		{"stage one at thirty awareness", 30, 0, 1},
		{"stage two at sixty", 60, 0, 2},
		{"stage three at eighty", 80, 0, 3},
		{"stage three via reluctance", 20, 70, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exposureStageFor(tt.awareness, tt.reluctance))
		})
	}
}

func TestCheckExposure_NeverRegresses(t *testing.T) {
	p := &OperatorProfile{ExposureStage: 2}
	assert.Nil(t, checkExposure(p, 10, 0, false))
	assert.Equal(t, 2, p.ExposureStage)

	ev := checkExposure(p, 85, 0, true)
	require.NotNil(t, ev)
	assert.Equal(t, 3, ev.Stage)
	assert.True(t, ev.Revealed.UnderReview)

	// Entered at most once.
	assert.Nil(t, checkExposure(p, 85, 0, true))
}

func TestExecute_BacklashDoublesAwareness(t *testing.T) {
	ctx := context.Background()
	// Backlash succeeds, injury fails, quiet after.
	src := chance.NewFixed(0.01, 0.99, 0.99, 0.99, 0.99, 0.99, 0.99, 0.99, 0.99)
	f := newFixture(t, src)
	f.addCitizen(t, "c1")

	res, err := f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.Detain,
		Target:     TargetRef{CitizenID: "c1"},
	})
	require.NoError(t, err)
	assert.True(t, res.BacklashOccurred)
	assert.Equal(t, 14, res.AwarenessDelta) // severity doubled
	assert.Equal(t, 17, res.AngerDelta)     // severity + 10
}

func TestWithClock(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, quiet(), WithClock(func() time.Time { return fixed }))
	f.addCitizen(t, "c1")

	_, err := f.orch.Execute(ctx, &ActionRequest{
		OperatorID: "op1",
		Type:       severity.FlagMonitoring,
		Target:     TargetRef{CitizenID: "c1"},
	})
	require.NoError(t, err)

	history, err := f.orch.ActionHistory(ctx, "op1", 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, fixed, history[0].CreatedAt)
}
