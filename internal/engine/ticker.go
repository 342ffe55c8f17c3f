package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/danverh/panopticon/internal/chance"
	"github.com/danverh/panopticon/internal/press"
	"github.com/danverh/panopticon/internal/protest"
)

// randomNewsChance is the per-tick probability of an ambient article.
const randomNewsChance = 0.25

// Ticker advances the world between decisions: forming protests turn
// active, active protests may disperse, and the press occasionally
// publishes background coverage nobody triggered.
type Ticker struct {
	protests *protest.Manager
	pressGen *press.Generator
	src      chance.Source
	interval time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	running  atomic.Bool

	// OnChange, if set, receives protests whose state advanced and
	// articles published by a tick. Used to feed the live event stream.
	OnChange func(protests []*protest.Protest, article *press.Article)
}

// NewTicker creates a world ticker.
func NewTicker(protests *protest.Manager, pressGen *press.Generator, src chance.Source, interval time.Duration, logger *slog.Logger) *Ticker {
	return &Ticker{
		protests: protests,
		pressGen: pressGen,
		src:      src,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Running reports whether the ticker loop is active.
func (t *Ticker) Running() bool {
	return t.running.Load()
}

// Start begins the tick loop. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.running.Store(true)
	defer t.running.Store(false)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-ticker.C:
			t.safeTick(ctx)
		}
	}
}

// Stop signals the ticker to stop.
func (t *Ticker) Stop() {
	select {
	case t.stop <- struct{}{}:
	default:
	}
}

func (t *Ticker) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("panic in world ticker", "panic", fmt.Sprint(r))
		}
	}()
	t.tick(ctx)
}

func (t *Ticker) tick(ctx context.Context) {
	changed, err := t.protests.Advance(ctx)
	if err != nil {
		t.logger.Warn("failed to advance protests", "error", err)
	}
	if len(changed) > 0 {
		t.logger.Info("protests advanced", "count", len(changed))
	}

	var article *press.Article
	if chance.Bernoulli(t.src, randomNewsChance) {
		article, err = t.pressGen.RandomArticle(ctx)
		if err != nil {
			t.logger.Warn("failed to publish random article", "error", err)
		}
	}

	if t.OnChange != nil && (len(changed) > 0 || article != nil) {
		t.OnChange(changed, article)
	}
}
