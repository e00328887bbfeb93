package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/internal/store/storetest"
)

func TestSaveVersioned(t *testing.T) {
	db := storetest.NewDB(t)

	doc := &models.OverviewStats{ID: models.OverviewStatsDocID, TotalEntriesInDataset: 1}
	if err := SaveVersioned(db, doc, false); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if doc.Version != 1 {
		t.Errorf("Version after insert = %d, expected 1", doc.Version)
	}

	stale := *doc
	doc.TotalEntriesInDataset = 2
	if err := SaveVersioned(db, doc, true); err != nil {
		t.Fatalf("update: %v", err)
	}

	stale.TotalEntriesInDataset = 5
	err := SaveVersioned(db, &stale, true)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("stale update error = %v, expected ErrConflict", err)
	}
	if stale.Version != 1 {
		t.Errorf("failed write should keep version 1, got %d", stale.Version)
	}

	var got models.OverviewStats
	db.First(&got, "id = ?", doc.ID)
	if got.Version != 2 || got.TotalEntriesInDataset != 2 {
		t.Errorf("row = version %d total %d, expected 2 and 2", got.Version, got.TotalEntriesInDataset)
	}
}

func TestSaveVersioned_ConcurrentInsertConflicts(t *testing.T) {
	db := storetest.NewDB(t)

	a := &models.DemographicsSummary{ID: models.DemographicsSummaryDocID}
	b := &models.DemographicsSummary{ID: models.DemographicsSummaryDocID}
	if err := SaveVersioned(db, a, false); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := SaveVersioned(db, b, false); !errors.Is(err, ErrConflict) {
		t.Errorf("second insert error = %v, expected ErrConflict", err)
	}
}

func TestUpdateIfEqual(t *testing.T) {
	db := storetest.NewDB(t)
	entry := models.Entry{ID: "e1", PreviousReviewCountForFullyReviewedCheck: 0}
	db.Create(&entry)

	column := "previous_review_count_for_fully_reviewed_check"
	ok, _ := UpdateIfEqual(db, "entries", "e1", column, 5, map[string]any{column: 10})
	if ok {
		t.Error("mismatched guard should not update")
	}
	ok, err := UpdateIfEqual(db, "entries", "e1", column, 0, map[string]any{column: 10})
	if err != nil || !ok {
		t.Fatalf("UpdateIfEqual() = %v, %v, expected true, nil", ok, err)
	}
}

func TestDuplicateInsertClassifiesAsConflict(t *testing.T) {
	db := storetest.NewDB(t)
	first := models.ProcessedEvent{EventID: "ev1", Handler: "stats.entry", ProcessedAt: time.Now()}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := first
	err := db.Create(&dup).Error
	if !IsConflict(err) {
		t.Errorf("duplicate insert error = %v, expected a conflict", err)
	}
}

func TestRecordChange(t *testing.T) {
	db := storetest.NewDB(t)
	entry := &models.Entry{ID: "e1", ReviewCount: 2}

	ev, err := RecordChange(db, models.CollectionEntries, entry.ID, models.ChangeCreate, (*models.Entry)(nil), entry)
	if err != nil {
		t.Fatalf("RecordChange() error = %v", err)
	}
	if ev.EventID == "" {
		t.Error("event id should be assigned")
	}

	var stored models.ChangeEvent
	if err := db.First(&stored, "event_id = ?", ev.EventID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(stored.Before) != 0 {
		t.Errorf("Before = %s, expected empty for a create", stored.Before)
	}
	var after models.Entry
	if err := json.Unmarshal(stored.After, &after); err != nil {
		t.Fatalf("decode after: %v", err)
	}
	if after.ReviewCount != 2 {
		t.Errorf("after.ReviewCount = %d, expected 2", after.ReviewCount)
	}
	if stored.PublishedAt != nil {
		t.Error("new event should be unpublished")
	}
}

func TestLease(t *testing.T) {
	db := storetest.NewDB(t)
	ctx := context.Background()

	a := NewLease(db, "relay", "outbox", "replica-a", time.Minute)
	b := NewLease(db, "relay", "outbox", "replica-b", time.Minute)

	ok, err := a.TryAcquire(ctx)
	if err != nil || !ok {
		t.Fatalf("a.TryAcquire() = %v, %v, expected true, nil", ok, err)
	}
	ok, err = b.TryAcquire(ctx)
	if err != nil {
		t.Fatalf("b.TryAcquire() error = %v", err)
	}
	if ok {
		t.Error("b should not acquire a held lease")
	}
	ok, _ = a.TryAcquire(ctx)
	if !ok {
		t.Error("owner should be able to renew")
	}

	var lock models.SchedulerLock
	if err := db.Where("lock_name = ? AND lock_key = ?", "relay", "outbox").Take(&lock).Error; err != nil {
		t.Fatalf("load lock: %v", err)
	}
	if lock.LockedBy != "replica-a" || !time.Now().Before(lock.ExpiresAt) {
		t.Errorf("lock = %s until %v, expected an unexpired lease for replica-a", lock.LockedBy, lock.ExpiresAt)
	}
	if lock.Renewals != 2 {
		t.Errorf("Renewals = %d, expected 2", lock.Renewals)
	}

	if err := a.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	ok, _ = b.TryAcquire(ctx)
	if !ok {
		t.Error("b should acquire a released lease")
	}
}

func TestLease_ExpiredIsTakenOver(t *testing.T) {
	db := storetest.NewDB(t)
	ctx := context.Background()

	a := NewLease(db, "relay", "outbox", "replica-a", time.Minute)
	a.now = func() time.Time { return time.Now().Add(-time.Hour) }
	if ok, _ := a.TryAcquire(ctx); !ok {
		t.Fatal("a should acquire")
	}

	b := NewLease(db, "relay", "outbox", "replica-b", time.Minute)
	if ok, _ := b.TryAcquire(ctx); !ok {
		t.Error("b should take over an expired lease")
	}
}
