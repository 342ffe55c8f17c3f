//go:build integration

package press

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danverh/panopticon/internal/testutil"
)

func TestPostgresSeedDefaults(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	require.NoError(t, store.SeedDefaults(ctx))
	// Idempotent: a second seed leaves existing rows alone.
	require.NoError(t, store.SeedDefaults(ctx))

	channels, err := store.ListChannels(ctx)
	require.NoError(t, err)
	assert.Len(t, channels, 5)
}

func TestPostgresChannelUpdate(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	require.NoError(t, store.SeedDefaults(ctx))

	ch, err := store.GetChannel(ctx, "ch_herald")
	require.NoError(t, err)

	ch.Banned = true
	ch.Credibility = 80
	require.NoError(t, store.PutChannel(ctx, ch))

	got, err := store.GetChannel(ctx, "ch_herald")
	require.NoError(t, err)
	assert.True(t, got.Banned)
	assert.Equal(t, 80, got.Credibility)

	_, err = store.GetChannel(ctx, "ch_nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresArticles(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	require.NoError(t, store.SeedDefaults(ctx))

	older := &Article{
		ID:             "art_1",
		ChannelID:      "ch_herald",
		ChannelName:    "The Harbor Herald",
		Type:           ArticleTriggered,
		Headline:       "Detention Without Charges",
		Summary:        "Rights groups demand answers.",
		AwarenessDelta: 3,
		AngerDelta:     2,
		PublishedAt:    time.Now().UTC().Add(-time.Hour),
	}
	newer := &Article{
		ID:          "art_2",
		ChannelName: "samizdat", // no channel row
		Type:        ArticleExposure,
		Headline:    "Informant Exposed",
		PublishedAt: time.Now().UTC(),
	}
	require.NoError(t, store.RecordArticle(ctx, older))
	require.NoError(t, store.RecordArticle(ctx, newer))

	articles, err := store.ListArticles(ctx, 10)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	// Newest first
	assert.Equal(t, "art_2", articles[0].ID)
	assert.Equal(t, "", articles[0].ChannelID)
	assert.Equal(t, "art_1", articles[1].ID)
	assert.Equal(t, 3, articles[1].AwarenessDelta)
}
