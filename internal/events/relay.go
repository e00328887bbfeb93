package events

import (
	"context"
	"sync"
	"time"

	"github.com/huangang/evalstats/internal/config"
	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/internal/store"
	"github.com/huangang/evalstats/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	relayLockName = "outbox_relay"
	relayLockKey  = "change_events"
	claimTTL      = 30 * time.Second
)

// Relay moves committed outbox rows onto the bus. Write paths call Flush
// right after their transaction; a cron job calls it periodically so rows
// left behind by a crash or a bus outage are still delivered.
type Relay struct {
	db        *gorm.DB
	bus       Bus
	cfg       config.RelayConfig
	lease     *store.Lease
	log       zerolog.Logger
	scheduler *cron.Cron

	// flushMu keeps one Flush per process; replicas are kept apart by
	// the per-row claim.
	flushMu sync.Mutex
}

func NewRelay(db *gorm.DB, bus Bus, cfg config.RelayConfig, owner string) *Relay {
	ttl := time.Duration(cfg.LeaseSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Relay{
		db:    db,
		bus:   bus,
		cfg:   cfg,
		lease: store.NewLease(db, relayLockName, relayLockKey, owner, ttl),
		log:   logger.With("events.relay"),
	}
}

// Flush publishes pending rows in commit order and returns how many were
// published. It stops at the first publish failure so later rows are not
// delivered ahead of it; the failed row is released for the next flush.
// Flush must not be called while holding a transaction on the same store.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	batch := r.cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}

	published := 0
	for {
		var pending []models.ChangeEvent
		now := time.Now().UTC()
		err := r.db.WithContext(ctx).
			Where("published_at IS NULL").
			Where("claimed_until IS NULL OR claimed_until < ?", now).
			Order("seq").
			Limit(batch).
			Find(&pending).Error
		if err != nil {
			return published, err
		}
		if len(pending) == 0 {
			return published, nil
		}

		for i := range pending {
			ce := &pending[i]
			claimed, err := r.claim(ctx, ce)
			if err != nil {
				return published, err
			}
			if !claimed {
				continue
			}

			if err := r.bus.Publish(ctx, FromChangeEvent(ce)); err != nil {
				r.log.Warn().Err(err).Str("event_id", ce.EventID).Int("attempts", ce.Attempts+1).
					Msg("publish failed, releasing claim")
				if relErr := r.release(ctx, ce); relErr != nil {
					r.log.Error().Err(relErr).Str("event_id", ce.EventID).Msg("failed to release claim")
				}
				return published, err
			}

			if err := r.markPublished(ctx, ce); err != nil {
				return published, err
			}
			published++
		}

		if len(pending) < batch {
			return published, nil
		}
	}
}

func (r *Relay) claim(ctx context.Context, ce *models.ChangeEvent) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.ChangeEvent{}).
		Where("seq = ? AND published_at IS NULL", ce.Seq).
		Where("claimed_until IS NULL OR claimed_until < ?", now).
		Updates(map[string]any{
			"claimed_until": now.Add(claimTTL),
			"attempts":      gorm.Expr("attempts + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Relay) release(ctx context.Context, ce *models.ChangeEvent) error {
	return r.db.WithContext(ctx).Model(&models.ChangeEvent{}).
		Where("seq = ?", ce.Seq).
		Update("claimed_until", nil).Error
}

func (r *Relay) markPublished(ctx context.Context, ce *models.ChangeEvent) error {
	return r.db.WithContext(ctx).Model(&models.ChangeEvent{}).
		Where("seq = ?", ce.Seq).
		Updates(map[string]any{
			"published_at":  time.Now().UTC(),
			"claimed_until": nil,
		}).Error
}

// Purge deletes published events and processed-event marks older than the
// retention window. It returns the number of outbox rows removed.
func (r *Relay) Purge(ctx context.Context) (int64, error) {
	days := r.cfg.RetentionDays
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	res := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at < ?", cutoff).
		Delete(&models.ChangeEvent{})
	if res.Error != nil {
		return 0, res.Error
	}
	if err := r.db.WithContext(ctx).
		Where("processed_at < ?", cutoff).
		Delete(&models.ProcessedEvent{}).Error; err != nil {
		return res.RowsAffected, err
	}
	return res.RowsAffected, nil
}

// Pending returns the number of unpublished outbox rows.
func (r *Relay) Pending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ChangeEvent{}).
		Where("published_at IS NULL").Count(&n).Error
	return n, err
}

// StartScheduler runs Flush on the configured interval, and Purge daily,
// on whichever replica holds the relay lease.
func (r *Relay) StartScheduler() error {
	r.scheduler = cron.New()

	if _, err := r.scheduler.AddFunc(r.cfg.Interval, r.tick); err != nil {
		return err
	}
	if _, err := r.scheduler.AddFunc("@daily", r.purgeTick); err != nil {
		return err
	}

	r.scheduler.Start()
	r.log.Info().Str("interval", r.cfg.Interval).Str("owner", r.lease.Owner()).Msg("relay scheduler started")
	return nil
}

// StopScheduler stops the cron jobs, waits for a running one, and gives up
// the lease.
func (r *Relay) StopScheduler() {
	if r.scheduler == nil {
		return
	}
	<-r.scheduler.Stop().Done()
	if err := r.lease.Release(context.Background()); err != nil {
		r.log.Warn().Err(err).Msg("failed to release relay lease")
	}
}

func (r *Relay) tick() {
	ctx := context.Background()
	ok, err := r.lease.TryAcquire(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("relay lease check failed")
		return
	}
	if !ok {
		return
	}
	n, err := r.Flush(ctx)
	if err != nil {
		r.log.Error().Err(err).Int("published", n).Msg("scheduled flush failed")
		return
	}
	if n > 0 {
		r.log.Info().Int("published", n).Msg("scheduled flush published pending events")
	}
}

func (r *Relay) purgeTick() {
	ctx := context.Background()
	if ok, err := r.lease.TryAcquire(ctx); err != nil || !ok {
		return
	}
	n, err := r.Purge(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("outbox purge failed")
		return
	}
	r.log.Info().Int64("deleted", n).Msg("outbox purged")
}
