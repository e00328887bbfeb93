package services

import (
	"context"
	"errors"
	"time"

	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/internal/stats"
	"github.com/huangang/evalstats/pkg/logger"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps are shared by the primary-entity write services.
type Deps struct {
	DB    *gorm.DB
	Coord *stats.Coordinator
	Relay stats.Flusher
}

type writer struct {
	db    *gorm.DB
	coord *stats.Coordinator
	relay stats.Flusher
	log   zerolog.Logger
}

func newWriter(d Deps, component string) writer {
	return writer{db: d.DB, coord: d.Coord, relay: d.Relay, log: logger.With(component)}
}

// commit runs fn as one retried transaction and then flushes the outbox
// rows it recorded. A failed flush is left to the scheduled relay.
func (w writer) commit(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := w.coord.Retry(ctx, op, func(ctx context.Context) error {
		return w.db.WithContext(ctx).Transaction(fn)
	})
	if err != nil {
		return err
	}
	if w.relay != nil {
		if _, err := w.relay.Flush(ctx); err != nil {
			w.log.Warn().Err(err).Str("op", op).Msg("flush after write failed, relay will retry")
		}
	}
	return nil
}

// lockEntry touches the entry row so concurrent writers to it serialize,
// then returns its current state.
func lockEntry(tx *gorm.DB, op, id string) (*models.Entry, error) {
	res := tx.Model(&models.Entry{}).Where("id = ?", id).UpdateColumn("updated_at", time.Now().UTC())
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, stats.NewError(stats.CodeNotFound, op, "entry "+id+" not found", nil)
	}
	return loadEntry(tx, op, id)
}

func loadEntry(tx *gorm.DB, op, id string) (*models.Entry, error) {
	var entry models.Entry
	if err := tx.Where("id = ?", id).Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stats.NewError(stats.CodeNotFound, op, "entry "+id+" not found", nil)
		}
		return nil, err
	}
	return &entry, nil
}

func invalid(op, msg string) error {
	return stats.NewError(stats.CodeInvalidArgument, op, msg, nil)
}
