package press

import (
	"context"
	"fmt"
	"time"

	"github.com/danverh/panopticon/internal/catalog"
	"github.com/danverh/panopticon/internal/chance"
	"github.com/danverh/panopticon/internal/idgen"
	"github.com/danverh/panopticon/internal/logging"
	"github.com/danverh/panopticon/internal/metrics"
)

// Stance-dependent deltas a single triggered article applies to the
// acting operator's opinion counters.
var triggeredDeltas = map[Stance]struct{ awareness, anger int }{
	StanceCritical:     {3, 2},
	StanceIndependent:  {2, 1},
	StanceStateAligned: {0, 0},
}

// Generator decides which outlets cover an action and produces the
// resulting articles.
type Generator struct {
	store Store
	src   chance.Source
}

// NewGenerator creates a press generator over the given outlet store.
func NewGenerator(store Store, src chance.Source) *Generator {
	return &Generator{store: store, src: src}
}

// coverageProbability is the per-outlet publish chance for one action.
func coverageProbability(stance Stance, severity, awareness int) float64 {
	p := float64(severity)/10*stance.Multiplier() + float64(awareness)/200
	if p > 0.95 {
		p = 0.95
	}
	return p
}

// TriggeredCoverage rolls an independent publish decision for every
// non-banned outlet and records an article for each outlet that bites.
// Multiple outlets may cover the same action.
func (g *Generator) TriggeredCoverage(ctx context.Context, actionType string, severity int, target string, awareness int) ([]*Article, error) {
	channels, err := g.store.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	var published []*Article
	for _, ch := range channels {
		if ch.Banned {
			continue
		}
		p := coverageProbability(ch.Stance, severity, awareness)
		if !chance.Bernoulli(g.src, p) {
			continue
		}
		tmpl := catalog.PickTriggered(g.src, string(ch.Stance), actionType, target)
		d := triggeredDeltas[ch.Stance]
		a := &Article{
			ID:             idgen.WithPrefix("art"),
			ChannelID:      ch.ID,
			ChannelName:    ch.Name,
			Type:           ArticleTriggered,
			Headline:       tmpl.Headline,
			Summary:        tmpl.Summary,
			AwarenessDelta: d.awareness,
			AngerDelta:     d.anger,
			PublishedAt:    time.Now().UTC(),
		}
		if err := g.store.RecordArticle(ctx, a); err != nil {
			return nil, fmt.Errorf("record article: %w", err)
		}
		metrics.ArticlesPublishedTotal.WithLabelValues(string(ch.Stance), string(ArticleTriggered)).Inc()
		published = append(published, a)
	}
	if len(published) > 0 {
		logging.L(ctx).Info("press coverage triggered",
			"action_type", actionType,
			"outlets", len(published))
	}
	return published, nil
}

// RandomArticle publishes one ambient background piece from a random
// non-banned outlet. Returns nil when every outlet is banned.
func (g *Generator) RandomArticle(ctx context.Context) (*Article, error) {
	channels, err := g.store.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	var open []*NewsChannel
	for _, ch := range channels {
		if !ch.Banned {
			open = append(open, ch)
		}
	}
	if len(open) == 0 {
		return nil, nil
	}
	ch := open[g.src.IntN(len(open))]
	tmpl := catalog.PickRandom(g.src)
	a := &Article{
		ID:             idgen.WithPrefix("art"),
		ChannelID:      ch.ID,
		ChannelName:    ch.Name,
		Type:           ArticleRandom,
		Headline:       tmpl.Headline,
		Summary:        tmpl.Summary,
		AwarenessDelta: chance.IntBetween(g.src, 1, 3),
		AngerDelta:     chance.IntBetween(g.src, 0, 1),
		PublishedAt:    time.Now().UTC(),
	}
	if err := g.store.RecordArticle(ctx, a); err != nil {
		return nil, fmt.Errorf("record article: %w", err)
	}
	metrics.ArticlesPublishedTotal.WithLabelValues(string(ch.Stance), string(ArticleRandom)).Inc()
	return a, nil
}

// ExposureArticle records fallout coverage from a failed suppression.
// The awareness/anger values are the suppression costs already applied
// by the caller; the article carries them for the record.
func (g *Generator) ExposureArticle(ctx context.Context, headline, summary string, awareness, anger int) (*Article, error) {
	ch, err := g.loudestOpenChannel(ctx)
	if err != nil {
		return nil, err
	}
	a := &Article{
		ID:             idgen.WithPrefix("art"),
		Type:           ArticleExposure,
		Headline:       headline,
		Summary:        summary,
		AwarenessDelta: awareness,
		AngerDelta:     anger,
		PublishedAt:    time.Now().UTC(),
	}
	stance := StanceIndependent
	if ch != nil {
		a.ChannelID = ch.ID
		a.ChannelName = ch.Name
		stance = ch.Stance
	} else {
		a.ChannelName = "samizdat" // every outlet banned; the story spreads anyway
	}
	if err := g.store.RecordArticle(ctx, a); err != nil {
		return nil, fmt.Errorf("record article: %w", err)
	}
	metrics.ArticlesPublishedTotal.WithLabelValues(string(stance), string(ArticleExposure)).Inc()
	return a, nil
}

// loudestOpenChannel prefers a critical outlet for exposure stories,
// then any non-banned outlet.
func (g *Generator) loudestOpenChannel(ctx context.Context) (*NewsChannel, error) {
	channels, err := g.store.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	var fallback *NewsChannel
	for _, ch := range channels {
		if ch.Banned {
			continue
		}
		if ch.Stance == StanceCritical {
			return ch, nil
		}
		if fallback == nil {
			fallback = ch
		}
	}
	return fallback, nil
}
