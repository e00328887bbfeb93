package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/internal/store"
	"github.com/huangang/evalstats/pkg/logger"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// RoleAdmin is the caller role allowed to delete entries.
const RoleAdmin = "admin"

// Caller is the authenticated identity behind a privileged call.
type Caller struct {
	UID  string
	Role string
}

// DeleteEntryResult is the RPC response body.
type DeleteEntryResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Flusher pushes committed change events to the bus.
type Flusher interface {
	Flush(ctx context.Context) (int, error)
}

// DeletionWorkflow removes an entry together with its evaluations and flags.
//
// The aggregate counters are not touched here: the entry delete event it
// records is the single source of the delete-time adjustments, applied by
// the entry lifecycle aggregator.
type DeletionWorkflow struct {
	db    *gorm.DB
	coord *Coordinator
	relay Flusher
	log   zerolog.Logger
}

func NewDeletionWorkflow(db *gorm.DB, coord *Coordinator, relay Flusher) *DeletionWorkflow {
	return &DeletionWorkflow{
		db:    db,
		coord: coord,
		relay: relay,
		log:   logger.With("stats.delete_entry"),
	}
}

type deletionCounts struct {
	evaluations int64
	flags       int64
}

// DeleteEntry authorizes caller, validates entryID and runs the cascade.
// entryID is untyped because it comes straight from the request body.
func (w *DeletionWorkflow) DeleteEntry(ctx context.Context, caller *Caller, entryID any) (*DeleteEntryResult, error) {
	const op = "stats.delete_entry"

	if caller == nil || strings.TrimSpace(caller.UID) == "" {
		return nil, NewError(CodeUnauthenticated, op, "the function must be called while authenticated", nil)
	}
	if caller.Role != RoleAdmin {
		return nil, NewError(CodePermissionDenied, op, "only admins can delete entries", nil)
	}
	id, ok := entryID.(string)
	if !ok || strings.TrimSpace(id) == "" {
		return nil, NewError(CodeInvalidArgument, op, "entryId must be a non-empty string", nil)
	}
	id = strings.TrimSpace(id)

	var counts deletionCounts
	err := w.coord.Retry(ctx, op, func(ctx context.Context) error {
		var err error
		counts, err = w.cascade(ctx, caller, id)
		return err
	})
	if err != nil {
		switch CodeOf(err) {
		case CodeNotFound, CodeAborted:
			w.log.Warn().Err(err).Str("entry_id", id).Msg("entry deletion failed")
			return nil, err
		}
		w.log.Error().Err(err).Str("entry_id", id).Str("actor_id", caller.UID).Msg("entry deletion failed")
		return nil, NewError(CodeInternal, op, "failed to delete entry", err)
	}

	if w.relay != nil {
		if _, err := w.relay.Flush(ctx); err != nil {
			w.log.Warn().Err(err).Str("entry_id", id).Msg("post-delete flush failed, relay will retry")
		}
	}

	w.log.Info().Str("entry_id", id).Str("actor_id", caller.UID).
		Int64("evaluations", counts.evaluations).Int64("flags", counts.flags).Msg("entry deleted")

	return &DeleteEntryResult{
		Success: true,
		Message: fmt.Sprintf("Entry %s and its %d evaluation(s) and %d flag(s) were deleted.", id, counts.evaluations, counts.flags),
	}, nil
}

func (w *DeletionWorkflow) cascade(ctx context.Context, caller *Caller, id string) (deletionCounts, error) {
	var counts deletionCounts
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.Entry
		if err := tx.Where("id = ?", id).Take(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(CodeNotFound, "stats.delete_entry", "entry "+id+" not found", nil)
			}
			return err
		}

		res := tx.Where("entry_id = ?", id).Delete(&models.Evaluation{})
		if res.Error != nil {
			return res.Error
		}
		counts.evaluations = res.RowsAffected

		res = tx.Where("entry_id = ?", id).Delete(&models.EntryFlag{})
		if res.Error != nil {
			return res.Error
		}
		counts.flags = res.RowsAffected

		res = tx.Where("id = ?", id).Delete(&models.Entry{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ConflictError("entry deleted concurrently")
		}

		text := fmt.Sprintf("Entry %s deleted by %s (%d evaluations, %d flags removed)",
			id, caller.UID, counts.evaluations, counts.flags)
		if err := tx.Create(models.NewAuditLog(models.AuditEventEntryDeleted, id, caller.UID, text)).Error; err != nil {
			return err
		}

		_, err := store.RecordChange(tx, models.CollectionEntries, id, models.ChangeDelete, &entry, nil)
		return err
	})
	return counts, err
}
