package opinion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danverh/panopticon/internal/severity"
)

func TestUpdate_BaseDeltas(t *testing.T) {
	tr := NewTracker(NewMemoryStore())

	res, err := tr.Update(context.Background(), "op1", severity.Detain, 7, false)
	require.NoError(t, err)
	require.Equal(t, 7, res.AwarenessDelta)
	require.Equal(t, 7, res.AngerDelta)
	require.Equal(t, 7, res.NewAwareness)
	require.Equal(t, 7, res.NewAnger)
}

func TestUpdate_InflammatorySurcharge(t *testing.T) {
	tr := NewTracker(NewMemoryStore())

	res, err := tr.Update(context.Background(), "op1", severity.NeighborhoodRaid, 8, false)
	require.NoError(t, err)
	require.Equal(t, 8, res.AwarenessDelta)
	require.Equal(t, 13, res.AngerDelta) // 8 + 5 inflammatory
}

func TestUpdate_BacklashEffects(t *testing.T) {
	tr := NewTracker(NewMemoryStore())

	res, err := tr.Update(context.Background(), "op1", severity.Detain, 7, true)
	require.NoError(t, err)
	require.Equal(t, 14, res.AwarenessDelta) // doubled
	require.Equal(t, 17, res.AngerDelta)     // 7 + 10
}

func TestUpdate_AwarenessAcceleration(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, &PublicMetrics{
		OperatorID:             "op1",
		InternationalAwareness: 80,
		AwarenessTier:          4,
	}))
	tr := NewTracker(store)

	// multiplier = 1 + (80-60)/40 = 1.5 → delta = round(6 * 1.5) = 9
	res, err := tr.Update(ctx, "op1", severity.DeclareProtestIllegal, 6, false)
	require.NoError(t, err)
	require.Equal(t, 9, res.AwarenessDelta)
	require.Equal(t, 89, res.NewAwareness)
}

func TestUpdate_ClampsAtHundred(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, &PublicMetrics{
		OperatorID:             "op1",
		InternationalAwareness: 98,
		PublicAnger:            99,
		AwarenessTier:          5,
		AngerTier:              5,
	}))
	tr := NewTracker(store)

	res, err := tr.Update(ctx, "op1", severity.ArbitraryDetention, 9, true)
	require.NoError(t, err)
	require.Equal(t, 100, res.NewAwareness)
	require.Equal(t, 100, res.NewAnger)
}

func TestUpdate_TierEventsEmittedOnce(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryStore())

	// 9 + 5 + 10 = 24 anger: crosses threshold 20 → anger tier 1.
	res, err := tr.Update(ctx, "op1", severity.ArbitraryDetention, 9, true)
	require.NoError(t, err)

	var angerTiers []int
	for _, e := range res.TierEvents {
		if e.Counter == "anger" {
			angerTiers = append(angerTiers, e.Tier)
		}
	}
	require.Equal(t, []int{1}, angerTiers)

	// A small follow-up inside the same tier emits nothing new.
	res, err = tr.Update(ctx, "op1", severity.FlagMonitoring, 2, false)
	require.NoError(t, err)
	require.Empty(t, res.TierEvents)
}

func TestUpdate_CanCrossMultipleTiersAtOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, &PublicMetrics{
		OperatorID:  "op1",
		PublicAnger: 18, // one backlash raid from crossing 20 and 40
	}))
	tr := NewTracker(store)

	// anger delta = 9 + 5 + 10 = 24 → 42: tiers 1 and 2 in a single update.
	res, err := tr.Update(ctx, "op1", severity.ArbitraryDetention, 9, true)
	require.NoError(t, err)

	var angerTiers []int
	for _, e := range res.TierEvents {
		if e.Counter == "anger" {
			angerTiers = append(angerTiers, e.Tier)
		}
	}
	require.Equal(t, []int{1, 2}, angerTiers)
}

func TestTiersNeverDecrease(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tr := NewTracker(store)

	for i := 0; i < 30; i++ {
		_, err := tr.Update(ctx, "op1", severity.Detain, 7, i%3 == 0)
		require.NoError(t, err)
	}

	m, err := store.GetOrCreate(ctx, "op1")
	require.NoError(t, err)
	require.Equal(t, 5, m.AwarenessTier)
	require.Equal(t, 5, m.AngerTier)
	require.LessOrEqual(t, m.InternationalAwareness, 100)
	require.LessOrEqual(t, m.PublicAnger, 100)
}

func TestApply_SuppressionCostsRaiseCounters(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(NewMemoryStore())

	res, err := tr.Apply(ctx, "op1", 25, 30)
	require.NoError(t, err)
	require.Equal(t, 25, res.NewAwareness)
	require.Equal(t, 30, res.NewAnger)
	require.Len(t, res.TierEvents, 2) // awareness tier 1, anger tier 1
}

func TestTierOf(t *testing.T) {
	tests := []struct {
		value, want int
	}{
		{0, 0}, {19, 0}, {20, 1}, {39, 1}, {40, 2},
		{60, 3}, {80, 4}, {94, 4}, {95, 5}, {100, 5},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tierOf(tt.value), "tierOf(%d)", tt.value)
	}
}
