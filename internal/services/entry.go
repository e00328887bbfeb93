package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/internal/store"
	"gorm.io/gorm"
)

// EntryService owns the entries collection write paths.
type EntryService struct {
	writer
}

func NewEntryService(d Deps) *EntryService {
	return &EntryService{writer: newWriter(d, "services.entry")}
}

// Create stores a new entry with zeroed counters. An empty id is generated.
func (s *EntryService) Create(ctx context.Context, id string) (*models.Entry, error) {
	const op = "entries.create"
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	if len(id) > 64 {
		return nil, invalid(op, "id must be at most 64 characters")
	}

	var created models.Entry
	err := s.commit(ctx, op, func(tx *gorm.DB) error {
		now := time.Now().UTC()
		created = models.Entry{ID: id, CreatedAt: now, UpdatedAt: now}
		if err := tx.Create(&created).Error; err != nil {
			if store.IsDuplicateKey(err) {
				return invalid(op, "entry "+id+" already exists")
			}
			return err
		}
		_, err := store.RecordChange(tx, models.CollectionEntries, id, models.ChangeCreate, nil, &created)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Get returns one entry.
func (s *EntryService) Get(ctx context.Context, id string) (*models.Entry, error) {
	return loadEntry(s.db.WithContext(ctx), "entries.get", id)
}

// SetArchived toggles the archived flag.
func (s *EntryService) SetArchived(ctx context.Context, id string, archived bool) (*models.Entry, error) {
	return s.update(ctx, "entries.set_archived", id, map[string]any{"is_archived": archived})
}

// AdjustReviewCount adds delta to the review count, flooring at zero.
func (s *EntryService) AdjustReviewCount(ctx context.Context, id string, delta int64) (*models.Entry, error) {
	const op = "entries.adjust_review_count"
	if delta == 0 {
		return nil, invalid(op, "delta must not be zero")
	}
	return s.update(ctx, op, id, map[string]any{
		"review_count": gorm.Expr("CASE WHEN review_count + ? < 0 THEN 0 ELSE review_count + ? END", delta, delta),
	})
}

func (s *EntryService) update(ctx context.Context, op, id string, updates map[string]any) (*models.Entry, error) {
	var after *models.Entry
	err := s.commit(ctx, op, func(tx *gorm.DB) error {
		before, err := lockEntry(tx, op, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Entry{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		after, err = loadEntry(tx, op, id)
		if err != nil {
			return err
		}
		_, err = store.RecordChange(tx, models.CollectionEntries, id, models.ChangeUpdate, before, after)
		return err
	})
	if err != nil {
		return nil, err
	}
	return after, nil
}
