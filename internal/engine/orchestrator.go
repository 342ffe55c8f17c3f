package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/danverh/panopticon/internal/catalog"
	"github.com/danverh/panopticon/internal/chance"
	"github.com/danverh/panopticon/internal/idgen"
	"github.com/danverh/panopticon/internal/logging"
	"github.com/danverh/panopticon/internal/metrics"
	"github.com/danverh/panopticon/internal/opinion"
	"github.com/danverh/panopticon/internal/press"
	"github.com/danverh/panopticon/internal/protest"
	"github.com/danverh/panopticon/internal/records"
	"github.com/danverh/panopticon/internal/reluctance"
	"github.com/danverh/panopticon/internal/severity"
	"github.com/danverh/panopticon/internal/suppression"
	"github.com/danverh/panopticon/internal/syncutil"
)

const detentionInjuryChance = 0.30

// Orchestrator resolves operator decisions.
type Orchestrator struct {
	store        Store
	records      records.Store
	opinions     *opinion.Tracker
	reluctance   *reluctance.Tracker
	pressGen     *press.Generator
	pressStore   press.Store
	protests     *protest.Manager
	protestStore protest.Store
	src          chance.Source
	locks        syncutil.ShardedMutex
	week         int
	now          func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWeek sets the current simulation week used by termination checks.
func WithWeek(week int) Option {
	return func(o *Orchestrator) {
		if week > 0 {
			o.week = week
		}
	}
}

// WithClock overrides the time source, used in tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator over the given stores and trackers.
func New(
	store Store,
	recs records.Store,
	opinions *opinion.Tracker,
	rel *reluctance.Tracker,
	pressStore press.Store,
	protestStore protest.Store,
	src chance.Source,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		store:        store,
		records:      recs,
		opinions:     opinions,
		reluctance:   rel,
		pressGen:     press.NewGenerator(pressStore, src),
		pressStore:   pressStore,
		protests:     protest.NewManager(protestStore, src),
		protestStore: protestStore,
		src:          src,
		week:         1,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Week returns the current simulation week.
func (o *Orchestrator) Week() int { return o.week }

// backlashProbability scales with severity and with how much attention
// the operator has already drawn.
func backlashProbability(severityScore, awareness, anger int) float64 {
	p := float64(severityScore) / 10 * (1 + float64(awareness+anger)/200)
	if p > 0.95 {
		p = 0.95
	}
	return p
}

// Execute resolves one operator action. Unavailable actions return a
// structured result with Available=false and no state change; unknown
// targets return a not-found error from the owning store.
func (o *Orchestrator) Execute(ctx context.Context, req *ActionRequest) (*ActionResult, error) {
	if !severity.Known(req.Type) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, req.Type)
	}

	// Serialize the read-modify-write sequence on this operator's
	// metrics rows.
	unlock := o.locks.Lock(req.OperatorID)
	defer unlock()

	world, err := o.validateAvailability(ctx, req)
	if err != nil {
		return nil, err
	}
	if world.reason != "" {
		metrics.ActionsTotal.WithLabelValues(string(req.Type), "unavailable").Inc()
		return &ActionResult{Available: false, Reason: world.reason}, nil
	}

	sev := severity.Of(req.Type)
	hesitant := req.DecisionSeconds > hesitationThreshold.Seconds()

	before, err := o.opinions.Current(ctx, req.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("load opinion metrics: %w", err)
	}
	backlashProb := backlashProbability(sev, before.InternationalAwareness, before.PublicAnger)
	backlash := chance.Bernoulli(o.src, backlashProb)

	action := &SystemAction{
		ID:                  idgen.WithPrefix("act"),
		OperatorID:          req.OperatorID,
		DirectiveID:         req.DirectiveID,
		Type:                req.Type,
		Target:              req.Target,
		Severity:            sev,
		BacklashProbability: backlashProb,
		BacklashTriggered:   backlash,
		Justification:       req.Justification,
		DecisionSeconds:     req.DecisionSeconds,
		Hesitant:            hesitant,
		CreatedAt:           o.now().UTC(),
	}
	if err := o.store.RecordAction(ctx, action); err != nil {
		return nil, fmt.Errorf("record action: %w", err)
	}

	result := &ActionResult{
		ActionID:            action.ID,
		Success:             true,
		Available:           true,
		Severity:            sev,
		BacklashProbability: backlashProb,
		BacklashOccurred:    backlash,
	}

	side, err := o.runSideEffects(ctx, req, world, result)
	if err != nil {
		return nil, err
	}

	// Opinion update for the action itself, then the suppression costs
	// on top (suppression failures are expensive precisely because the
	// action already drew attention).
	upd, err := o.opinions.Update(ctx, req.OperatorID, req.Type, sev, backlash)
	if err != nil {
		return nil, fmt.Errorf("update opinion: %w", err)
	}
	result.AwarenessDelta = upd.AwarenessDelta
	result.AngerDelta = upd.AngerDelta
	result.Awareness = upd.NewAwareness
	result.Anger = upd.NewAnger
	result.TierEvents = upd.TierEvents

	if side.awarenessCost > 0 || side.angerCost > 0 {
		cost, err := o.opinions.Apply(ctx, req.OperatorID, side.awarenessCost, side.angerCost)
		if err != nil {
			return nil, fmt.Errorf("apply suppression cost: %w", err)
		}
		result.AwarenessDelta += cost.AwarenessDelta
		result.AngerDelta += cost.AngerDelta
		result.Awareness = cost.NewAwareness
		result.Anger = cost.NewAnger
		result.TierEvents = append(result.TierEvents, cost.TierEvents...)
	}

	if err := o.runTriggeredEvents(ctx, req, sev, result); err != nil {
		return nil, err
	}

	rel, err := o.reluctance.Update(ctx, req.OperatorID, reluctance.Input{
		ActionTaken: true,
		Hesitant:    hesitant,
		Severity:    sev,
	})
	if err != nil {
		return nil, fmt.Errorf("update reluctance: %w", err)
	}
	result.ReluctanceDelta = rel.Delta
	result.Reluctance = rel.NewScore
	if rel.Warning != nil {
		result.Warnings = append(result.Warnings, rel.Warning.Message)
	}
	for _, te := range result.TierEvents {
		result.Warnings = append(result.Warnings, te.Description)
	}

	if d := reluctance.Decide(rel.NewScore, o.week); d.Terminate {
		result.Termination = d
		metrics.TerminationsTotal.WithLabelValues(string(d.Reason)).Inc()
	}

	if err := o.recordTrace(ctx, req.OperatorID, sev, side, rel, result); err != nil {
		return nil, err
	}

	if backlash {
		metrics.BacklashTotal.Inc()
	}
	metrics.ActionsTotal.WithLabelValues(string(req.Type), "executed").Inc()
	logging.L(ctx).Info("action executed",
		"action_id", action.ID,
		"action_type", string(req.Type),
		"severity", sev,
		"backlash", backlash,
		"awareness", result.Awareness,
		"anger", result.Anger,
		"reluctance", result.Reluctance)
	return result, nil
}

// SubmitNoAction records an explicit decision not to act on a citizen.
func (o *Orchestrator) SubmitNoAction(ctx context.Context, req *NoActionRequest) (*NoActionResult, error) {
	if _, err := o.records.GetCitizen(ctx, req.CitizenID); err != nil {
		return nil, err
	}

	unlock := o.locks.Lock(req.OperatorID)
	defer unlock()

	hesitant := req.DecisionSeconds > hesitationThreshold.Seconds()
	rel, err := o.reluctance.Update(ctx, req.OperatorID, reluctance.Input{
		ActionTaken: false,
		Hesitant:    hesitant,
	})
	if err != nil {
		return nil, fmt.Errorf("update reluctance: %w", err)
	}

	profile, err := o.store.GetOrCreateProfile(ctx, req.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	profile.NoActions++
	profile.UpdatedAt = o.now().UTC()
	if err := o.store.PutProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	result := &NoActionResult{
		ReluctanceDelta: rel.Delta,
		Reluctance:      rel.NewScore,
		Warning:         rel.Warning,
	}
	if d := reluctance.Decide(rel.NewScore, o.week); d.Terminate {
		result.Termination = d
		metrics.TerminationsTotal.WithLabelValues(string(d.Reason)).Inc()
	}
	metrics.ActionsTotal.WithLabelValues("no_action", "executed").Inc()
	return result, nil
}

// worldState carries the availability-check lookups into the side
// effect phase so nothing is loaded twice.
type worldState struct {
	reason  string // non-empty means the action is unavailable
	citizen *records.Citizen
	channel *press.NewsChannel
	protest *protest.Protest
}

// validateAvailability checks action-specific preconditions without
// mutating anything. Missing targets surface as not-found errors;
// world-state mismatches surface as a structured reason.
func (o *Orchestrator) validateAvailability(ctx context.Context, req *ActionRequest) (*worldState, error) {
	w := &worldState{}
	switch req.Type {
	case severity.FlagMonitoring, severity.TravelRestriction, severity.EmployerNotification,
		severity.AssetFreeze, severity.Intervention, severity.Detain, severity.ArbitraryDetention:
		c, err := o.records.GetCitizen(ctx, req.Target.CitizenID)
		if err != nil {
			return nil, err
		}
		w.citizen = c

	case severity.HospitalArrest:
		c, err := o.records.GetCitizen(ctx, req.Target.CitizenID)
		if err != nil {
			return nil, err
		}
		if !c.Hospitalized {
			w.reason = "hospital arrest requires the target to already be hospitalized"
			return w, nil
		}
		w.citizen = c

	case severity.NeighborhoodRaid:
		if req.Target.Neighborhood == "" {
			w.reason = "neighborhood raid requires a target neighborhood"
		}

	case severity.BanOutlet, severity.PressureReporter, severity.DetainJournalist:
		ch, err := o.pressStore.GetChannel(ctx, req.Target.ChannelID)
		if err != nil {
			return nil, err
		}
		if ch.Banned {
			w.reason = "the target outlet is already banned"
			return w, nil
		}
		w.channel = ch

	case severity.DeclareProtestIllegal:
		p, err := o.activeProtest(ctx, req.Target.ProtestID, w)
		if err != nil || w.reason != "" {
			return w, err
		}
		w.protest = p

	case severity.PlantAgitator:
		p, err := o.openProtest(ctx, req.Target.ProtestID, w)
		if err != nil || w.reason != "" {
			return w, err
		}
		if p.AgitatorPlanted {
			w.reason = "an agitator is already in place at this protest"
			return w, nil
		}
		w.protest = p

	case severity.InciteViolence:
		p, err := o.activeProtest(ctx, req.Target.ProtestID, w)
		if err != nil || w.reason != "" {
			return w, err
		}
		if !p.AgitatorPlanted {
			w.reason = "inciting violence requires a planted agitator"
			return w, nil
		}
		if p.AgitatorDiscovered {
			w.reason = "the planted agitator has been exposed and is useless"
			return w, nil
		}
		w.protest = p
	}
	return w, nil
}

func (o *Orchestrator) openProtest(ctx context.Context, id string, w *worldState) (*protest.Protest, error) {
	p, err := o.protestStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		w.reason = "the protest has already ended"
		return nil, nil
	}
	return p, nil
}

// activeProtest is openProtest plus the requirement that the crowd has
// actually coalesced. Suppression aimed at a forming protest is a no-op;
// planting an agitator is not, infiltration works best before the crowd
// solidifies.
func (o *Orchestrator) activeProtest(ctx context.Context, id string, w *worldState) (*protest.Protest, error) {
	p, err := o.openProtest(ctx, id, w)
	if err != nil || w.reason != "" {
		return p, err
	}
	if p.Status == protest.StatusForming {
		w.reason = "the protest is still forming"
		return nil, nil
	}
	return p, nil
}

// sideEffects accumulates what the action-specific phase did, for the
// opinion cost application and the behavioral trace.
type sideEffects struct {
	awarenessCost int
	angerCost     int
	detained      bool
	arrests       int
	casualties    int
}

// runSideEffects performs the action-specific state changes: detention
// rolls and the suppression gambles.
func (o *Orchestrator) runSideEffects(ctx context.Context, req *ActionRequest, w *worldState, result *ActionResult) (*sideEffects, error) {
	side := &sideEffects{}
	switch req.Type {
	case severity.Detain, severity.ArbitraryDetention:
		if err := o.records.SetDetained(ctx, req.Target.CitizenID, true); err != nil {
			return nil, fmt.Errorf("mark detained: %w", err)
		}
		side.detained = true
		// Independent injury roll. An injured detainee is transferred to
		// a secure ward, which is what makes hospital arrest possible.
		if chance.Bernoulli(o.src, detentionInjuryChance) {
			if err := o.records.SetHospitalized(ctx, req.Target.CitizenID, true); err != nil {
				return nil, fmt.Errorf("mark hospitalized: %w", err)
			}
			result.Messages = append(result.Messages, "The detainee was injured during the arrest and transferred to a secure hospital ward.")
		}

	case severity.HospitalArrest:
		if err := o.records.SetDetained(ctx, req.Target.CitizenID, true); err != nil {
			return nil, fmt.Errorf("mark detained: %w", err)
		}
		side.detained = true

	case severity.DeclareProtestIllegal:
		out := suppression.ResolveLegal(o.src)
		if err := o.applyProtestOutcome(ctx, w.protest, &out, protest.StatusSuppressed); err != nil {
			return nil, err
		}
		o.noteSuppression(side, result, &out)

	case severity.InciteViolence:
		out := suppression.ResolveViolent(o.src)
		if out.AgitatorExposed {
			w.protest.AgitatorDiscovered = true
			tmpl := catalog.PickAgitatorExposure(o.src, w.protest.Neighborhood)
			a, err := o.pressGen.ExposureArticle(ctx, tmpl.Headline, tmpl.Summary, out.AwarenessCost, out.AngerCost)
			if err != nil {
				return nil, err
			}
			result.NewsTriggered = append(result.NewsTriggered, a)
		}
		if err := o.applyProtestOutcome(ctx, w.protest, &out, protest.StatusViolent); err != nil {
			return nil, err
		}
		o.noteSuppression(side, result, &out)

	case severity.PlantAgitator:
		w.protest.AgitatorPlanted = true
		w.protest.UpdatedAt = o.now().UTC()
		if err := o.protestStore.Update(ctx, w.protest); err != nil {
			return nil, fmt.Errorf("update protest: %w", err)
		}
		result.Messages = append(result.Messages, "An asset has joined the crowd. Nobody looked twice.")

	case severity.BanOutlet, severity.PressureReporter, severity.DetainJournalist:
		out := suppression.ResolvePress(o.src)
		if err := o.applyPressOutcome(ctx, req.Type, w.channel, &out, result); err != nil {
			return nil, err
		}
		o.noteSuppression(side, result, &out)
	}
	return side, nil
}

func (o *Orchestrator) noteSuppression(side *sideEffects, result *ActionResult, out *suppression.Outcome) {
	side.awarenessCost = out.AwarenessCost
	side.angerCost = out.AngerCost
	side.arrests = out.Arrests
	side.casualties = out.Casualties
	result.Suppression = out
	result.Messages = append(result.Messages, out.Narrative)
}

func (o *Orchestrator) applyProtestOutcome(ctx context.Context, p *protest.Protest, out *suppression.Outcome, status protest.Status) error {
	p.Status = status
	p.Arrests += out.Arrests
	p.Casualties += out.Casualties
	p.UpdatedAt = o.now().UTC()
	if err := o.protestStore.Update(ctx, p); err != nil {
		return fmt.Errorf("update protest: %w", err)
	}
	metrics.ProtestsTotal.WithLabelValues(string(status)).Inc()
	return nil
}

func (o *Orchestrator) applyPressOutcome(ctx context.Context, actionType severity.ActionType, ch *press.NewsChannel, out *suppression.Outcome, result *ActionResult) error {
	if out.Success {
		if actionType == severity.BanOutlet {
			ch.Banned = true
		} else {
			ch.ReporterFired = true
		}
	} else {
		ch.Credibility += out.CredibilityBoost
		if ch.Credibility > 100 {
			ch.Credibility = 100
		}
		tmpl := catalog.PickStreisand(o.src, ch.Name)
		a, err := o.pressGen.ExposureArticle(ctx, tmpl.Headline, tmpl.Summary, out.AwarenessCost, out.AngerCost)
		if err != nil {
			return err
		}
		result.NewsTriggered = append(result.NewsTriggered, a)
	}
	if err := o.pressStore.PutChannel(ctx, ch); err != nil {
		return fmt.Errorf("update channel: %w", err)
	}
	return nil
}

// runTriggeredEvents rolls press coverage and protest ignition against
// the post-update opinion state.
func (o *Orchestrator) runTriggeredEvents(ctx context.Context, req *ActionRequest, sev int, result *ActionResult) error {
	articles, err := o.pressGen.TriggeredCoverage(ctx, string(req.Type), sev, targetLabel(req.Target), result.Awareness)
	if err != nil {
		return fmt.Errorf("triggered coverage: %w", err)
	}
	for _, a := range articles {
		if a.AwarenessDelta == 0 && a.AngerDelta == 0 {
			continue
		}
		upd, err := o.opinions.Apply(ctx, req.OperatorID, a.AwarenessDelta, a.AngerDelta)
		if err != nil {
			return fmt.Errorf("apply article deltas: %w", err)
		}
		result.AwarenessDelta += upd.AwarenessDelta
		result.AngerDelta += upd.AngerDelta
		result.Awareness = upd.NewAwareness
		result.Anger = upd.NewAnger
		result.TierEvents = append(result.TierEvents, upd.TierEvents...)
	}
	result.NewsTriggered = append(result.NewsTriggered, articles...)

	pr, err := o.protests.MaybeIgnite(ctx, sev, result.Anger)
	if err != nil {
		return fmt.Errorf("protest ignition: %w", err)
	}
	if pr != nil {
		result.ProtestsTriggered = append(result.ProtestsTriggered, pr)
		result.Messages = append(result.Messages, pr.Description)
	}
	return nil
}

// recordTrace folds the decision into the operator's behavioral profile
// and checks progressive exposure.
func (o *Orchestrator) recordTrace(ctx context.Context, operatorID string, sev int, side *sideEffects, rel *reluctance.UpdateResult, result *ActionResult) error {
	profile, err := o.store.GetOrCreateProfile(ctx, operatorID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	profile.TotalActions++
	if severity.IsHarsh(sev) {
		profile.HarshActions++
	}
	if side.detained {
		profile.CitizensDetained++
	}
	profile.ArrestsCaused += side.arrests
	profile.CasualtiesCaused += side.casualties

	relMetrics, err := o.reluctance.Current(ctx, operatorID)
	if err != nil {
		return fmt.Errorf("load reluctance: %w", err)
	}
	if ev := checkExposure(profile, result.Awareness, rel.NewScore, relMetrics.UnderReview); ev != nil {
		result.ExposureEvent = ev
		result.Messages = append(result.Messages, ev.Description)
	}

	profile.UpdatedAt = o.now().UTC()
	if err := o.store.PutProfile(ctx, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Exposure returns what the operator is currently allowed to see of
// their own file, based on the exposure stage already reached.
func (o *Orchestrator) Exposure(ctx context.Context, operatorID string) (*ExposureEvent, error) {
	profile, err := o.store.GetOrCreateProfile(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile.ExposureStage == 0 {
		return &ExposureEvent{Stage: 0, Description: "Your file, if one exists, has not surfaced."}, nil
	}
	relMetrics, err := o.reluctance.Current(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("load reluctance: %w", err)
	}
	return &ExposureEvent{
		Stage:       profile.ExposureStage,
		Description: exposureDescriptions[profile.ExposureStage],
		Revealed:    reveal(profile.ExposureStage, profile, relMetrics.UnderReview),
	}, nil
}

// ActionHistory returns an operator's recent actions, newest first.
func (o *Orchestrator) ActionHistory(ctx context.Context, operatorID string, limit int) ([]*SystemAction, error) {
	return o.store.ListActions(ctx, operatorID, limit)
}

func targetLabel(t TargetRef) string {
	switch {
	case t.CitizenID != "":
		return "Citizen " + t.CitizenID
	case t.Neighborhood != "":
		return t.Neighborhood
	case t.ChannelID != "":
		return "the outlet " + t.ChannelID
	case t.ProtestID != "":
		return "the assembly"
	}
	return "an undisclosed target"
}
