// Package press models the news outlets that react to operator actions.
//
// Each outlet has an editorial stance that scales how likely it is to
// cover a given action. Articles are append-only events: once published
// they are never mutated, and the metric deltas they caused are recorded
// on the article itself.
package press

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a channel or article does not exist.
var ErrNotFound = errors.New("press: not found")

// Stance is an outlet's editorial alignment.
type Stance string

const (
	StanceCritical     Stance = "critical"
	StanceIndependent  Stance = "independent"
	StanceStateAligned Stance = "state_aligned"
)

// Multiplier is the coverage-probability scale for the stance.
func (s Stance) Multiplier() float64 {
	switch s {
	case StanceCritical:
		return 1.5
	case StanceStateAligned:
		return 0.3
	default:
		return 1.0
	}
}

// NewsChannel is one outlet. Banned outlets publish nothing; a fired
// reporter marks a successful pressure campaign without a full ban.
type NewsChannel struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Stance        Stance    `json:"stance"`
	Credibility   int       `json:"credibility"` // 0-100
	Banned        bool      `json:"banned"`
	ReporterFired bool      `json:"reporterFired"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ArticleType classifies why an article exists.
type ArticleType string

const (
	ArticleTriggered ArticleType = "TRIGGERED" // direct coverage of an action
	ArticleRandom    ArticleType = "RANDOM"    // ambient background news
	ArticleExposure  ArticleType = "EXPOSURE"  // fallout from a failed suppression
)

// Article is one published piece. Immutable once created.
type Article struct {
	ID             string      `json:"id"`
	ChannelID      string      `json:"channelId"`
	ChannelName    string      `json:"channelName"`
	Type           ArticleType `json:"type"`
	Headline       string      `json:"headline"`
	Summary        string      `json:"summary"`
	AwarenessDelta int         `json:"awarenessDelta"`
	AngerDelta     int         `json:"angerDelta"`
	PublishedAt    time.Time   `json:"publishedAt"`
}

// Store persists outlets and their published articles.
type Store interface {
	ListChannels(ctx context.Context) ([]*NewsChannel, error)
	GetChannel(ctx context.Context, id string) (*NewsChannel, error)
	// PutChannel upserts an outlet row (bans, firings, credibility moves).
	PutChannel(ctx context.Context, ch *NewsChannel) error
	RecordArticle(ctx context.Context, a *Article) error
	// ListArticles returns the most recent articles, newest first.
	ListArticles(ctx context.Context, limit int) ([]*Article, error)
	// ListArticlesBefore returns up to limit articles published strictly
	// before the given instant, newest first. Used for cursor pagination.
	ListArticlesBefore(ctx context.Context, before time.Time, limit int) ([]*Article, error)
}

// DefaultChannels is the outlet roster seeded into an empty store.
func DefaultChannels() []*NewsChannel {
	now := time.Now().UTC()
	return []*NewsChannel{
		{ID: "ch_herald", Name: "The Harbor Herald", Stance: StanceCritical, Credibility: 72, CreatedAt: now},
		{ID: "ch_ledger", Name: "The Morning Ledger", Stance: StanceCritical, Credibility: 64, CreatedAt: now},
		{ID: "ch_wire", Name: "Civic Wire", Stance: StanceIndependent, Credibility: 58, CreatedAt: now},
		{ID: "ch_observer", Name: "The District Observer", Stance: StanceIndependent, Credibility: 51, CreatedAt: now},
		{ID: "ch_tribune", Name: "National Tribune", Stance: StanceStateAligned, Credibility: 30, CreatedAt: now},
	}
}
