package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danverh/panopticon/internal/records"
)

func seedStore(t *testing.T, d *records.Dossier) records.Store {
	t.Helper()
	s := records.NewMemoryStore()
	require.NoError(t, s.PutDossier(context.Background(), d))
	return s
}

func TestScore_UnknownCitizen(t *testing.T) {
	scorer := NewScorer(records.NewMemoryStore())
	_, err := scorer.Score(context.Background(), "ghost")
	require.ErrorIs(t, err, records.ErrNotFound)
}

func TestScore_NoRecordsIsZeroAndLow(t *testing.T) {
	store := seedStore(t, &records.Dossier{Citizen: records.Citizen{ID: "c1", Name: "Blank"}})
	scorer := NewScorer(store)

	a, err := scorer.Score(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, 0, a.Score)
	require.Equal(t, LevelLow, a.Level)
	require.Empty(t, a.Factors)
	require.Empty(t, a.Alerts)
}

// The worked example: income 20k, one delinquent 18k credit card debt, one
// violent conviction, one chronic severe condition.
// 25 (prior_record) + 12 (financial_stress) + 5 (chronic_condition) = 42.
func TestScore_WorkedExample(t *testing.T) {
	store := seedStore(t, &records.Dossier{
		Citizen: records.Citizen{ID: "c1", Name: "Mara Voss"},
		Health: &records.HealthRecord{
			CitizenID: "c1",
			Conditions: []records.Condition{
				{Name: "emphysema", Severity: "severe", Chronic: true},
			},
		},
		Finance: &records.FinanceRecord{
			CitizenID:    "c1",
			AnnualIncome: 20000,
			Debts:        []records.Debt{{Kind: "credit_card", Amount: 18000, Delinquent: true}},
		},
		Judicial: &records.JudicialRecord{
			CitizenID:   "c1",
			Convictions: []records.Conviction{{Offense: "assault", Violent: true}},
		},
	})
	scorer := NewScorer(store)

	a, err := scorer.Score(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, 42, a.Score)
	require.Equal(t, LevelElevated, a.Level)

	types := map[string]bool{}
	for _, ra := range a.RecommendedActions {
		types[ra.Type] = true
	}
	require.True(t, types[ActionIncreaseMonitoring], "expected increase_monitoring")
	require.True(t, types[ActionTravelRestriction], "expected travel_restriction")

	// recidivism_risk must fire: financial_stress + prior_criminal_record.
	var names []string
	for _, alert := range a.Alerts {
		names = append(names, alert.Name)
	}
	require.Contains(t, names, "recidivism_risk")
}

func TestScore_FactorWeightIsPerKeyNotPerOccurrence(t *testing.T) {
	store := seedStore(t, &records.Dossier{
		Citizen: records.Citizen{ID: "c1"},
		Judicial: &records.JudicialRecord{
			CitizenID: "c1",
			Convictions: []records.Conviction{
				{Offense: "fraud"}, {Offense: "theft"}, {Offense: "assault", Violent: true},
			},
		},
	})
	scorer := NewScorer(store)

	a, err := scorer.Score(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, FactorWeight("prior_criminal_record"), a.Score)
	require.Len(t, a.Factors, 1)
	require.Contains(t, a.Factors[0].Evidence, "fraud")
	require.Contains(t, a.Factors[0].Evidence, "assault (violent)")
}

func TestScore_ClampsAt100(t *testing.T) {
	store := seedStore(t, &records.Dossier{
		Citizen: records.Citizen{ID: "c1"},
		Health: &records.HealthRecord{
			CitizenID:              "c1",
			MentalHealthTreatments: 2,
			Conditions:             []records.Condition{{Name: "x", Severity: "severe", Chronic: true}},
		},
		Finance: &records.FinanceRecord{
			CitizenID:          "c1",
			AnnualIncome:       10000,
			Debts:              []records.Debt{{Kind: "personal", Amount: 90000, Delinquent: true}},
			CashWithdrawals90d: 50000,
		},
		Judicial: &records.JudicialRecord{
			CitizenID:      "c1",
			Convictions:    []records.Conviction{{Offense: "sedition", Violent: false}},
			PendingCharges: 2,
		},
		Location: &records.LocationRecord{
			CitizenID: "c1",
			Visits: []records.Visit{
				{Zone: "z1", NearBorder: true}, {Zone: "z2"}, {Zone: "z3"}, {Zone: "z4"},
				{Zone: "z5"}, {Zone: "z6"}, {Zone: "z7"}, {Zone: "z8"},
			},
		},
		Social: &records.SocialRecord{
			CitizenID:       "c1",
			FollowerCount:   20000,
			ForeignContacts: 5,
			Affiliations:    []string{"free_assembly_league"},
		},
	})
	scorer := NewScorer(store)

	a, err := scorer.Score(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, 100, a.Score)
	require.Equal(t, LevelSevere, a.Level)
}

func TestScore_IdempotentAcrossTTL(t *testing.T) {
	store := seedStore(t, &records.Dossier{
		Citizen: records.Citizen{ID: "c1"},
		Judicial: &records.JudicialRecord{
			CitizenID:   "c1",
			Convictions: []records.Conviction{{Offense: "theft"}},
		},
	})

	now := time.Now()
	clock := func() time.Time { return now }
	scorer := NewScorer(store, WithClock(func() time.Time { return clock() }))

	a1, err := scorer.Score(context.Background(), "c1")
	require.NoError(t, err)
	require.False(t, a1.FromCache)

	// Age past the TTL: full recompute from unchanged data.
	now = now.Add(DefaultCacheTTL + time.Minute)
	a2, err := scorer.Score(context.Background(), "c1")
	require.NoError(t, err)
	require.False(t, a2.FromCache)
	require.Equal(t, a1.Score, a2.Score)
}

func TestScore_CacheHitWithinTTL(t *testing.T) {
	store := seedStore(t, &records.Dossier{
		Citizen: records.Citizen{ID: "c1"},
		Judicial: &records.JudicialRecord{
			CitizenID:   "c1",
			Convictions: []records.Conviction{{Offense: "theft"}},
		},
	})
	scorer := NewScorer(store)
	ctx := context.Background()

	a1, err := scorer.Score(ctx, "c1")
	require.NoError(t, err)
	require.False(t, a1.FromCache)

	a2, err := scorer.Score(ctx, "c1")
	require.NoError(t, err)
	require.True(t, a2.FromCache)
	require.Equal(t, a1.Score, a2.Score)
	// Factors are recomputed even on a cache hit.
	require.Len(t, a2.Factors, len(a1.Factors))
}

func TestScore_InvalidateForcesRecompute(t *testing.T) {
	store := seedStore(t, &records.Dossier{
		Citizen:  records.Citizen{ID: "c1"},
		Judicial: &records.JudicialRecord{CitizenID: "c1", PendingCharges: 1},
	})
	scorer := NewScorer(store)
	ctx := context.Background()

	_, err := scorer.Score(ctx, "c1")
	require.NoError(t, err)

	scorer.Invalidate("c1")
	a, err := scorer.Score(ctx, "c1")
	require.NoError(t, err)
	require.False(t, a.FromCache)
}

func TestScore_WritesCitizenCacheFields(t *testing.T) {
	store := seedStore(t, &records.Dossier{
		Citizen:  records.Citizen{ID: "c1"},
		Judicial: &records.JudicialRecord{CitizenID: "c1", PendingCharges: 1},
	})
	scorer := NewScorer(store)
	ctx := context.Background()

	a, err := scorer.Score(ctx, "c1")
	require.NoError(t, err)

	c, err := store.GetCitizen(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, a.Score, c.RiskScore)
	require.NotNil(t, c.RiskScoredAt)
}
