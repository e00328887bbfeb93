package stats

import (
	"context"
	"errors"
	"time"

	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/internal/store"
	"gorm.io/gorm"
)

// Store opens aggregate transactions.
type Store interface {
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// Tx reads a snapshot and commits writes inside one store transaction.
type Tx interface {
	Read(reads ReadSet) (*Snapshot, error)
	// Commit writes w guarded by the versions in snap and marks
	// reads.EventID as applied by reads.Handler.
	Commit(reads ReadSet, snap *Snapshot, w Writes) error
}

const markerColumn = "previous_review_count_for_fully_reviewed_check"

// GormStore runs aggregate transactions on a gorm database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{tx: tx})
	})
}

type gormTx struct {
	tx *gorm.DB
}

func (t *gormTx) Read(reads ReadSet) (*Snapshot, error) {
	snap := &Snapshot{}

	if reads.EventID != "" && reads.Handler != "" {
		var n int64
		err := t.tx.Model(&models.ProcessedEvent{}).
			Where("event_id = ? AND handler = ?", reads.EventID, reads.Handler).
			Count(&n).Error
		if err != nil {
			return nil, err
		}
		if n > 0 {
			snap.AlreadyApplied = true
			return snap, nil
		}
	}

	if reads.Overview {
		var doc models.OverviewStats
		ok, err := first(t.tx, &doc, models.OverviewStatsDocID)
		if err != nil {
			return nil, err
		}
		if ok {
			snap.Overview = &doc
		}
	}
	if reads.Responses {
		var doc models.ResponseAggregates
		ok, err := first(t.tx, &doc, models.ResponseAggregatesDocID)
		if err != nil {
			return nil, err
		}
		if ok {
			snap.Responses = &doc
		}
	}
	if reads.Demographics {
		var doc models.DemographicsSummary
		ok, err := first(t.tx, &doc, models.DemographicsSummaryDocID)
		if err != nil {
			return nil, err
		}
		if ok {
			snap.Demographics = &doc
		}
	}
	if reads.Settings {
		var doc models.AdminSettings
		ok, err := first(t.tx, &doc, models.SettingsDocID)
		if err != nil {
			return nil, err
		}
		if ok {
			snap.Settings = &doc
		}
	}
	if reads.EntryID != "" {
		var doc models.Entry
		ok, err := first(t.tx, &doc, reads.EntryID)
		if err != nil {
			return nil, err
		}
		if ok {
			snap.Entry = &doc
		}
	}
	return snap, nil
}

func first(tx *gorm.DB, dest any, id string) (bool, error) {
	err := tx.Where("id = ?", id).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *gormTx) Commit(reads ReadSet, snap *Snapshot, w Writes) error {
	if w.Overview != nil {
		if err := store.SaveVersioned(t.tx, w.Overview, snap.Overview != nil); err != nil {
			return err
		}
	}
	if w.Responses != nil {
		if err := store.SaveVersioned(t.tx, w.Responses, snap.Responses != nil); err != nil {
			return err
		}
	}
	if w.Demographics != nil {
		if err := store.SaveVersioned(t.tx, w.Demographics, snap.Demographics != nil); err != nil {
			return err
		}
	}
	if m := w.EntryMarker; m != nil {
		ok, err := store.UpdateIfEqual(t.tx, "entries", m.EntryID, markerColumn, m.From,
			map[string]any{markerColumn: m.To})
		if err != nil {
			return err
		}
		if err := store.RequireCASSuccess(ok, "entry marker changed"); err != nil {
			return err
		}
	}
	if reads.EventID != "" && reads.Handler != "" {
		mark := models.ProcessedEvent{
			EventID:     reads.EventID,
			Handler:     reads.Handler,
			ProcessedAt: time.Now().UTC(),
		}
		if err := t.tx.Create(&mark).Error; err != nil {
			return store.Classify(err)
		}
	}
	return nil
}
