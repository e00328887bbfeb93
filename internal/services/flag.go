package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/internal/stats"
	"github.com/huangang/evalstats/internal/store"
	"gorm.io/gorm"
)

// FlagService raises and resolves flags on entries. Each flag moves the
// owning entry's isFlaggedCount by one.
type FlagService struct {
	writer
}

func NewFlagService(d Deps) *FlagService {
	return &FlagService{writer: newWriter(d, "services.flag")}
}

// Raise creates a flag under entryID.
func (s *FlagService) Raise(ctx context.Context, entryID, reason, actor string) (*models.EntryFlag, error) {
	const op = "flags.raise"
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return nil, invalid(op, "entryId is required")
	}

	var flag models.EntryFlag
	err := s.commit(ctx, op, func(tx *gorm.DB) error {
		before, err := lockEntry(tx, op, entryID)
		if err != nil {
			return err
		}
		flag = models.EntryFlag{
			ID:        uuid.NewString(),
			EntryID:   entryID,
			Reason:    strings.TrimSpace(reason),
			CreatedBy: actor,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&flag).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Entry{}).Where("id = ?", entryID).
			UpdateColumn("is_flagged_count", gorm.Expr("is_flagged_count + 1")).Error; err != nil {
			return err
		}
		return recordFlagChange(tx, op, entryID, before, flag.ID, models.ChangeCreate, nil, &flag)
	})
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

// Resolve deletes a flag and releases its hold on the entry.
func (s *FlagService) Resolve(ctx context.Context, flagID string) error {
	const op = "flags.resolve"
	flagID = strings.TrimSpace(flagID)
	if flagID == "" {
		return invalid(op, "flag id is required")
	}

	return s.commit(ctx, op, func(tx *gorm.DB) error {
		var flag models.EntryFlag
		if err := tx.Where("id = ?", flagID).Take(&flag).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return stats.NewError(stats.CodeNotFound, op, "flag "+flagID+" not found", nil)
			}
			return err
		}
		before, err := lockEntry(tx, op, flag.EntryID)
		if err != nil {
			return err
		}
		res := tx.Where("id = ?", flagID).Delete(&models.EntryFlag{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ConflictError("flag resolved concurrently")
		}
		if err := tx.Model(&models.Entry{}).Where("id = ?", flag.EntryID).
			UpdateColumn("is_flagged_count", gorm.Expr("CASE WHEN is_flagged_count > 0 THEN is_flagged_count - 1 ELSE 0 END")).Error; err != nil {
			return err
		}
		return recordFlagChange(tx, op, flag.EntryID, before, flag.ID, models.ChangeDelete, &flag, nil)
	})
}

func recordFlagChange(tx *gorm.DB, op, entryID string, before *models.Entry, flagID, kind string, flagBefore, flagAfter *models.EntryFlag) error {
	if _, err := store.RecordChange(tx, models.CollectionFlags, flagID, kind, flagBefore, flagAfter); err != nil {
		return err
	}
	after, err := loadEntry(tx, op, entryID)
	if err != nil {
		return err
	}
	_, err = store.RecordChange(tx, models.CollectionEntries, entryID, models.ChangeUpdate, before, after)
	return err
}
