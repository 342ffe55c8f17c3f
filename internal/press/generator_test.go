package press

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danverh/panopticon/internal/chance"
)

func TestCoverageProbability(t *testing.T) {
	tests := []struct {
		name      string
		stance    Stance
		severity  int
		awareness int
		want      float64
	}{
		{"critical outlet, mid severity", StanceCritical, 6, 0, 0.9},
		{"state outlet barely covers", StanceStateAligned, 5, 0, 0.15},
		{"awareness raises the floor", StanceIndependent, 4, 40, 0.6},
		{"capped at 0.95", StanceCritical, 9, 80, 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, coverageProbability(tt.stance, tt.severity, tt.awareness), 1e-9)
		})
	}
}

func TestTriggeredCoverage_EveryOutletRollsIndependently(t *testing.T) {
	store := NewMemoryStore()
	// Five seeded outlets, one draw each; a tiny value forces a publish
	// and the following values feed template selection.
	g := NewGenerator(store, chance.NewFixed(0.0))

	articles, err := g.TriggeredCoverage(context.Background(), "neighborhood_raid", 8, "Northgate", 50)
	require.NoError(t, err)

	// Fixed(0.0) makes every Bernoulli draw succeed.
	assert.Len(t, articles, 5)
	for _, a := range articles {
		assert.Equal(t, ArticleTriggered, a.Type)
		assert.NotEmpty(t, a.Headline)
	}

	recent, err := store.ListArticles(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 5)
}

func TestTriggeredCoverage_SkipsBannedOutlets(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	channels, err := store.ListChannels(ctx)
	require.NoError(t, err)
	for _, ch := range channels {
		ch.Banned = true
		require.NoError(t, store.PutChannel(ctx, ch))
	}

	g := NewGenerator(store, chance.NewFixed(0.0))
	articles, err := g.TriggeredCoverage(ctx, "detain", 9, "Citizen #12", 90)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestTriggeredCoverage_NoPublishOnHighRoll(t *testing.T) {
	g := NewGenerator(NewMemoryStore(), chance.NewFixed(0.99))
	articles, err := g.TriggeredCoverage(context.Background(), "flag_monitoring", 2, "Citizen #3", 0)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestTriggeredCoverage_StanceDeltas(t *testing.T) {
	g := NewGenerator(NewMemoryStore(), chance.NewFixed(0.0))
	articles, err := g.TriggeredCoverage(context.Background(), "asset_freeze", 5, "Citizen #9", 70)
	require.NoError(t, err)
	require.Len(t, articles, 5)

	byChannel := map[string]*Article{}
	for _, a := range articles {
		byChannel[a.ChannelID] = a
	}
	assert.Equal(t, 3, byChannel["ch_herald"].AwarenessDelta)
	assert.Equal(t, 2, byChannel["ch_wire"].AwarenessDelta)
	assert.Equal(t, 0, byChannel["ch_tribune"].AwarenessDelta)
}

func TestRandomArticle(t *testing.T) {
	g := NewGenerator(NewMemoryStore(), chance.NewSeeded(11))
	a, err := g.RandomArticle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, ArticleRandom, a.Type)
	assert.GreaterOrEqual(t, a.AwarenessDelta, 1)
	assert.LessOrEqual(t, a.AwarenessDelta, 3)
}

func TestExposureArticle_PrefersCriticalOutlet(t *testing.T) {
	g := NewGenerator(NewMemoryStore(), chance.NewFixed(0.0))
	a, err := g.ExposureArticle(context.Background(), "EXPOSED", "summary", 25, 30)
	require.NoError(t, err)
	assert.Equal(t, ArticleExposure, a.Type)
	assert.Equal(t, "ch_herald", a.ChannelID)
	assert.Equal(t, 25, a.AwarenessDelta)
	assert.Equal(t, 30, a.AngerDelta)
}

func TestExposureArticle_AllBannedStillPublishes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	channels, err := store.ListChannels(ctx)
	require.NoError(t, err)
	for _, ch := range channels {
		ch.Banned = true
		require.NoError(t, store.PutChannel(ctx, ch))
	}

	g := NewGenerator(store, chance.NewFixed(0.0))
	a, err := g.ExposureArticle(ctx, "h", "s", 20, 15)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Empty(t, a.ChannelID)
	assert.Equal(t, "samizdat", a.ChannelName)
}
