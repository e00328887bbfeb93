package stats

import (
	"context"
	"time"

	"github.com/huangang/evalstats/internal/events"
	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/pkg/logger"
	"github.com/rs/zerolog"
)

// Handler names recorded in processed_events.
const (
	HandlerEntryLifecycle    = "stats.entry_lifecycle"
	HandlerEvaluationCreated = "stats.evaluation_created"
	HandlerDemographics      = "stats.demographics"
)

// Aggregators are the event handlers that keep the aggregate documents in
// step with the primary entities. They never return an error to the bus:
// a failed update is logged with the triggering document id.
type Aggregators struct {
	coord         *Coordinator
	defaultTarget int64
	log           zerolog.Logger
}

func NewAggregators(coord *Coordinator, defaultTarget int64) *Aggregators {
	if defaultTarget <= 0 {
		defaultTarget = models.DefaultMinTargetReviewsPerEntry
	}
	return &Aggregators{
		coord:         coord,
		defaultTarget: defaultTarget,
		log:           logger.With("stats.aggregators"),
	}
}

// Register binds the aggregators to their collections on r.
func (a *Aggregators) Register(r *events.Router) {
	for _, kind := range []string{models.ChangeCreate, models.ChangeUpdate, models.ChangeDelete} {
		r.Handle(models.CollectionEntries, kind, a.OnEntryChange)
	}
	r.Handle(models.CollectionEvaluations, models.ChangeCreate, a.OnEvaluationCreated)
	r.Handle(models.CollectionParticipantSessions, models.ChangeCreate, a.OnSessionCreated)
}

// OnEntryChange applies one entry create, update or delete.
func (a *Aggregators) OnEntryChange(ctx context.Context, ev *events.Event) error {
	const op = "stats.entry_lifecycle"
	// A snapshot that fails to decode would turn an update into a create
	// or delete, so the event is dropped instead.
	var ch EntryChange
	before, after := new(models.Entry), new(models.Entry)
	hasBefore, ok := a.decode(op, ev, before, ev.DecodeBefore)
	if !ok {
		return nil
	}
	hasAfter, ok := a.decode(op, ev, after, ev.DecodeAfter)
	if !ok {
		return nil
	}
	if hasBefore {
		ch.Before = before
	}
	if hasAfter {
		ch.After = after
	}

	reads := ReadSet{
		Overview:  true,
		Responses: true,
		Settings:  true,
		EventID:   ev.ID,
		Handler:   HandlerEntryLifecycle,
	}
	if ch.Before != nil && ch.After != nil {
		reads.EntryID = ev.DocID
	}

	a.run(ctx, op, ev, reads, func(snap *Snapshot) Decision {
		return ComputeEntryLifecycle(ch, snap, a.coord.Now(), a.defaultTarget)
	})
	return nil
}

// OnEvaluationCreated folds a new evaluation into the aggregates.
func (a *Aggregators) OnEvaluationCreated(ctx context.Context, ev *events.Event) error {
	const op = "stats.evaluation_created"
	var eval models.Evaluation
	if found, ok := a.decode(op, ev, &eval, ev.DecodeAfter); !found || !ok {
		return nil
	}

	reads := ReadSet{
		Overview:  true,
		Responses: true,
		Settings:  true,
		EntryID:   eval.EntryID,
		EventID:   ev.ID,
		Handler:   HandlerEvaluationCreated,
	}
	a.run(ctx, op, ev, reads, func(snap *Snapshot) Decision {
		return ComputeEvaluationCreated(&eval, snap, a.coord.Now(), a.defaultTarget)
	})
	return nil
}

// OnSessionCreated counts a new respondent's demographics.
func (a *Aggregators) OnSessionCreated(ctx context.Context, ev *events.Event) error {
	const op = "stats.demographics"
	var session models.ParticipantSession
	if found, ok := a.decode(op, ev, &session, ev.DecodeAfter); !found || !ok {
		return nil
	}
	if session.Demographics.IsEmpty() {
		return nil
	}

	reads := ReadSet{
		Demographics: true,
		EventID:      ev.ID,
		Handler:      HandlerDemographics,
	}
	a.run(ctx, op, ev, reads, func(snap *Snapshot) Decision {
		return ComputeDemographics(&session, snap, a.coord.Now())
	})
	return nil
}

// decode reports whether the snapshot was present and whether it decoded.
// Decode failures are logged.
func (a *Aggregators) decode(op string, ev *events.Event, v any, fn func(any) (bool, error)) (found, ok bool) {
	found, err := fn(v)
	if err != nil {
		a.log.Error().Err(err).Str("op", op).Str("doc_id", ev.DocID).Str("event_id", ev.ID).
			Msg("failed to decode event snapshot")
		return false, false
	}
	return found, true
}

func (a *Aggregators) run(ctx context.Context, op string, ev *events.Event, reads ReadSet, compute ComputeFunc) {
	start := time.Now()
	d, err := a.coord.Run(ctx, op, reads, compute)
	if err != nil {
		a.log.Error().Err(err).Str("op", op).Str("doc_id", ev.DocID).Str("event_id", ev.ID).
			Str("code", string(CodeOf(err))).Msg("aggregate update failed")
		return
	}

	l := a.log.Debug()
	if d.IsUpdate() && d.Reason != "" {
		l = a.log.Warn()
	}
	l.Str("op", op).Str("doc_id", ev.DocID).Str("decision", string(d.Kind)).
		Str("reason", d.Reason).Dur("took", time.Since(start)).Msg("aggregate event handled")
}
