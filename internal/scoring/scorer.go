package scoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/danverh/panopticon/internal/idgen"
	"github.com/danverh/panopticon/internal/logging"
	"github.com/danverh/panopticon/internal/metrics"
	"github.com/danverh/panopticon/internal/records"
	"github.com/danverh/panopticon/internal/traces"
)

// DefaultCacheTTL is how long a computed score stays valid.
const DefaultCacheTTL = time.Hour

// cacheEntry memoizes one citizen's score.
type cacheEntry struct {
	score int
	at    time.Time
}

// Scorer computes risk assessments from citizen dossiers, memoizing the
// score per citizen for the cache TTL. Factors and alerts are recomputed
// on every call; only the score aggregation is cached.
type Scorer struct {
	recs  records.Store
	store Store // optional audit trail
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// Option configures the Scorer.
type Option func(*Scorer)

// WithCacheTTL overrides the default cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Scorer) { s.ttl = ttl }
}

// WithAuditStore sets an assessment audit store (best-effort, async).
func WithAuditStore(store Store) Option {
	return func(s *Scorer) { s.store = store }
}

// WithClock overrides the time source, used to age the cache in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// NewScorer creates a risk scorer reading from the given record store.
func NewScorer(recs records.Store, opts ...Option) *Scorer {
	s := &Scorer{
		recs:  recs,
		ttl:   DefaultCacheTTL,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score assesses one citizen. Unknown citizens return records.ErrNotFound
// with no partial result.
func (s *Scorer) Score(ctx context.Context, citizenID string) (*RiskAssessment, error) {
	ctx, span := traces.StartSpan(ctx, "scoring.Score", traces.CitizenID(citizenID))
	defer span.End()

	d, err := s.recs.GetDossier(ctx, citizenID)
	if err != nil {
		return nil, fmt.Errorf("scoring: load dossier: %w", err)
	}

	factors, present := evalFactors(d)
	fired := make(map[string]bool, len(factors))
	total := 0
	for _, f := range factors {
		fired[f.Key] = true
		total += f.Weight
	}
	if total > 100 {
		total = 100
	}

	now := s.now()
	score, fromCache := s.cachedScore(citizenID, now)
	if !fromCache {
		score = total
		s.storeCache(citizenID, score, now)
		metrics.RiskScoreComputed.Observe(float64(score))

		// Mirror the citizen-level cache fields for dossier views.
		if err := s.recs.SetRiskScore(ctx, citizenID, score, now); err != nil {
			logging.L(ctx).Warn("failed to persist risk score", "citizen_id", citizenID, "error", err)
		}
	}

	assessment := &RiskAssessment{
		ID:                 idgen.WithPrefix("risk_"),
		CitizenID:          citizenID,
		Score:              score,
		Level:              Classify(score),
		Factors:            factors,
		Alerts:             evalPatterns(present, fired),
		RecommendedActions: recommendActions(score, factors),
		FromCache:          fromCache,
		EvaluatedAt:        now,
	}

	span.SetAttributes(traces.RiskScore(score))

	// Persist asynchronously (best-effort audit trail)
	if s.store != nil {
		go func() {
			_ = s.store.Record(context.Background(), assessment)
		}()
	}

	return assessment, nil
}

// Invalidate drops the cached score for a citizen, forcing the next call
// to recompute. Used after record mutations worth reflecting immediately.
func (s *Scorer) Invalidate(citizenID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, citizenID)
}

// cachedScore returns the memoized score if it is still fresh.
func (s *Scorer) cachedScore(citizenID string, now time.Time) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.cache[citizenID]
	if !ok {
		metrics.RiskCacheHitsTotal.WithLabelValues("miss").Inc()
		return 0, false
	}
	if now.Sub(e.at) >= s.ttl {
		metrics.RiskCacheHitsTotal.WithLabelValues("stale").Inc()
		delete(s.cache, citizenID)
		return 0, false
	}
	metrics.RiskCacheHitsTotal.WithLabelValues("hit").Inc()
	return e.score, true
}

func (s *Scorer) storeCache(citizenID string, score int, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[citizenID] = cacheEntry{score: score, at: at}
}

// evalFactors runs every configured check against the dossier and returns
// the fired factors plus the set of domains with a record present.
func evalFactors(d *records.Dossier) ([]ContributingFactor, map[string]bool) {
	present := map[string]bool{
		DomainHealth:   d.Health != nil,
		DomainFinance:  d.Finance != nil,
		DomainJudicial: d.Judicial != nil,
		DomainLocation: d.Location != nil,
		DomainSocial:   d.Social != nil,
	}

	var factors []ContributingFactor
	for _, f := range factorTable {
		fires, evidence := f.Check(d)
		if !fires {
			continue
		}
		factors = append(factors, ContributingFactor{
			Key:      f.Key,
			Name:     f.Name,
			Weight:   f.Weight,
			Evidence: evidence,
			Domain:   f.Domain,
		})
	}
	return factors, present
}
