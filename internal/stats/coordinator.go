package stats

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/huangang/evalstats/internal/store"
	"github.com/huangang/evalstats/pkg/logger"
	"github.com/rs/zerolog"
)

// Options tunes the coordinator retry policy.
type Options struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Hooks           Hooks
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 20 * time.Millisecond
	}
	if o.MaxInterval < o.InitialInterval {
		o.MaxInterval = o.InitialInterval
	}
	if o.Hooks == nil {
		o.Hooks = NoopHooks()
	}
	return o
}

// Coordinator runs read-compute-commit units against the aggregate store,
// retrying the whole unit when a commit loses an optimistic race.
type Coordinator struct {
	store Store
	opts  Options
	log   zerolog.Logger
	now   func() time.Time
}

func NewCoordinator(s Store, opts Options) *Coordinator {
	return &Coordinator{
		store: s,
		opts:  opts.withDefaults(),
		log:   logger.With("stats.coordinator"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Now returns the coordinator clock.
func (c *Coordinator) Now() time.Time { return c.now() }

// ComputeFunc derives a decision from a snapshot. It must not perform I/O;
// it is called once per attempt with a fresh snapshot.
type ComputeFunc func(snap *Snapshot) Decision

// Run reads reads, calls compute and commits its writes in one transaction.
// Conflicts are retried up to MaxAttempts; exhaustion returns CodeAborted.
func (c *Coordinator) Run(ctx context.Context, op string, reads ReadSet, compute ComputeFunc) (Decision, error) {
	var decision Decision
	err := c.Retry(ctx, op, func(ctx context.Context) error {
		return c.store.RunTransaction(ctx, func(tx Tx) error {
			snap, err := tx.Read(reads)
			if err != nil {
				return err
			}
			if snap.AlreadyApplied {
				decision = Noop("event already applied")
				return nil
			}
			decision = compute(snap)
			if !decision.IsUpdate() {
				return nil
			}
			return tx.Commit(reads, snap, decision.Writes)
		})
	})
	if err != nil {
		return Decision{}, err
	}

	for _, counter := range decision.Clamped {
		c.log.Warn().Str("op", op).Str("counter", counter).
			Msg("counter decrement clamped at zero; an earlier decrement was missed or applied twice")
	}
	return decision, nil
}

// Retry runs fn until it succeeds, fails with a non-conflict error, or the
// attempt budget is spent. Each attempt must be a complete transaction.
func (c *Coordinator) Retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	op = strings.TrimSpace(op)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialInterval
	b.MaxInterval = c.opts.MaxInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if attempt > 1 {
			c.opts.Hooks.IncRetry(op)
		}
		err := fn(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if CodeOf(err) != "" {
			return struct{}{}, backoff.Permanent(err)
		}
		err = store.Classify(err)
		if errors.Is(err, store.ErrConflict) {
			c.opts.Hooks.IncConflict(op)
			c.log.Debug().Str("op", op).Int("attempt", attempt).Err(err).Msg("write conflict, retrying")
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.opts.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	mapped := c.mapError(op, err, attempt)
	c.opts.Hooks.ObserveOperation(op, operationStatus(mapped), time.Since(start))
	return mapped
}

func (c *Coordinator) mapError(op string, err error, attempts int) error {
	if err == nil {
		return nil
	}
	if CodeOf(err) != "" {
		return err
	}
	if errors.Is(err, store.ErrConflict) {
		c.log.Warn().Str("op", op).Int("attempts", attempts).Msg("optimistic retries exhausted")
		return NewError(CodeAborted, op, "too much contention, retries exhausted", err)
	}
	return Wrap(CodeInternal, op, err)
}

func operationStatus(err error) string {
	if err == nil {
		return "success"
	}
	if code := CodeOf(err); code != "" {
		return string(code)
	}
	return "failure"
}
