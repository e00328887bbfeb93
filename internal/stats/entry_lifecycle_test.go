package stats

import (
	"testing"
	"time"

	"github.com/huangang/evalstats/internal/models"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func entry(id string, reviews, flags, marker int64) *models.Entry {
	return &models.Entry{
		ID:             id,
		ReviewCount:    reviews,
		IsFlaggedCount: flags,
		PreviousReviewCountForFullyReviewedCheck: marker,
	}
}

func settings(target int64) *models.AdminSettings {
	return &models.AdminSettings{ID: models.SettingsDocID, MinTargetReviewsPerEntry: target}
}

func TestEntryLifecycle_Create(t *testing.T) {
	snap := &Snapshot{}
	d := ComputeEntryLifecycle(EntryChange{After: entry("e1", 0, 0, 0)}, snap, testNow, 10)

	if !d.IsUpdate() {
		t.Fatalf("Kind = %v, expected update", d.Kind)
	}
	o := d.Writes.Overview
	if o.ID != models.OverviewStatsDocID {
		t.Errorf("Overview.ID = %q, expected %q", o.ID, models.OverviewStatsDocID)
	}
	if o.TotalEntriesInDataset != 1 {
		t.Errorf("TotalEntriesInDataset = %d, expected 1", o.TotalEntriesInDataset)
	}
	if !o.LastUpdatedAt.Equal(testNow) {
		t.Errorf("LastUpdatedAt = %v, expected %v", o.LastUpdatedAt, testNow)
	}
	if d.Writes.Responses == nil || d.Writes.Responses.OverallAnnotationPercent != 0 {
		t.Errorf("Responses = %+v, expected zero percentages", d.Writes.Responses)
	}
	if d.Writes.EntryMarker != nil {
		t.Error("create should not move the marker")
	}
}

func TestEntryLifecycle_DeleteCountedFlaggedEntry(t *testing.T) {
	snap := &Snapshot{
		Overview: &models.OverviewStats{
			ID:                              models.OverviewStatsDocID,
			Version:                         4,
			TotalEntriesInDataset:           2,
			TotalAnnotatedEntries:           2,
			FullyReviewedEntriesCount:       1,
			TotalEntriesWithUnresolvedFlags: 1,
		},
		Settings: settings(10),
	}
	d := ComputeEntryLifecycle(EntryChange{Before: entry("e1", 11, 2, 10)}, snap, testNow, 10)

	o := d.Writes.Overview
	if o.TotalEntriesInDataset != 1 || o.TotalAnnotatedEntries != 1 ||
		o.FullyReviewedEntriesCount != 0 || o.TotalEntriesWithUnresolvedFlags != 0 {
		t.Errorf("overview = %+v, expected total=1 annotated=1 fully=0 flags=0", o)
	}
	if o.Version != 4 {
		t.Errorf("Version = %d, expected the read version 4", o.Version)
	}
	if snap.Overview.TotalEntriesInDataset != 2 {
		t.Error("compute must not mutate the snapshot")
	}
	r := d.Writes.Responses
	if r.OverallAnnotationPercent != 100 || r.Min10ReviewsPercent != 0 || r.UnresolvedFlagsPercent != 0 {
		t.Errorf("percents = %d/%d/%d, expected 100/0/0",
			r.OverallAnnotationPercent, r.Min10ReviewsPercent, r.UnresolvedFlagsPercent)
	}
	if len(d.Clamped) != 0 {
		t.Errorf("Clamped = %v, expected none", d.Clamped)
	}
}

func TestEntryLifecycle_DeleteUncountedEntryKeepsFullyReviewed(t *testing.T) {
	snap := &Snapshot{Overview: &models.OverviewStats{TotalEntriesInDataset: 1, TotalAnnotatedEntries: 1, FullyReviewedEntriesCount: 1}}
	// 12 reviews but never counted: the evaluation aggregator has not run yet.
	d := ComputeEntryLifecycle(EntryChange{Before: entry("e1", 12, 0, 0)}, snap, testNow, 10)

	if got := d.Writes.Overview.FullyReviewedEntriesCount; got != 1 {
		t.Errorf("FullyReviewedEntriesCount = %d, expected 1", got)
	}
}

func TestEntryLifecycle_DeleteClampsAtZero(t *testing.T) {
	d := ComputeEntryLifecycle(EntryChange{Before: entry("e1", 3, 1, 10)}, &Snapshot{}, testNow, 10)

	o := d.Writes.Overview
	if o.TotalEntriesInDataset != 0 || o.TotalAnnotatedEntries != 0 ||
		o.FullyReviewedEntriesCount != 0 || o.TotalEntriesWithUnresolvedFlags != 0 {
		t.Errorf("overview = %+v, expected all zero", o)
	}
	if len(d.Clamped) != 4 {
		t.Errorf("Clamped = %v, expected 4 counters", d.Clamped)
	}
}

func TestEntryLifecycle_UpdateTransitions(t *testing.T) {
	base := func() *Snapshot {
		return &Snapshot{
			Overview: &models.OverviewStats{
				TotalEntriesInDataset:           4,
				TotalAnnotatedEntries:           2,
				FullyReviewedEntriesCount:       1,
				TotalEntriesWithUnresolvedFlags: 1,
			},
			Settings: settings(10),
		}
	}

	testCases := []struct {
		name          string
		before, after *models.Entry
		current       *models.Entry
		annotated     int64
		fully         int64
		flags         int64
		marker        *EntryMarker
		noop          bool
	}{
		{"first review", entry("e", 0, 0, 0), entry("e", 1, 0, 0), entry("e", 1, 0, 0), 3, 1, 1, nil, false},
		{"reviews removed", entry("e", 2, 0, 0), entry("e", 0, 0, 0), entry("e", 0, 0, 0), 1, 1, 1, nil, false},
		{"first flag", entry("e", 1, 0, 0), entry("e", 1, 1, 0), entry("e", 1, 1, 0), 2, 1, 2, nil, false},
		{"last flag resolved", entry("e", 1, 1, 0), entry("e", 1, 0, 0), entry("e", 1, 0, 0), 2, 1, 0, nil, false},
		{"second flag", entry("e", 1, 1, 0), entry("e", 1, 2, 0), entry("e", 1, 2, 0), 2, 1, 1, nil, true},
		{"crosses target up", entry("e", 9, 0, 0), entry("e", 10, 0, 0), entry("e", 10, 0, 0), 2, 2, 1,
			&EntryMarker{EntryID: "e", From: 0, To: 10}, false},
		{"crosses up already counted", entry("e", 9, 0, 0), entry("e", 10, 0, 10), entry("e", 10, 0, 10), 2, 1, 1, nil, true},
		{"crosses up counted at a lower target", entry("e", 9, 0, 3), entry("e", 10, 0, 3), entry("e", 10, 0, 3), 2, 1, 1, nil, true},
		{"crosses target down", entry("e", 10, 0, 10), entry("e", 9, 0, 10), entry("e", 9, 0, 10), 2, 0, 1,
			&EntryMarker{EntryID: "e", From: 10, To: 0}, false},
	}

	for _, tc := range testCases {
		snap := base()
		snap.Entry = tc.current
		d := ComputeEntryLifecycle(EntryChange{Before: tc.before, After: tc.after}, snap, testNow, 10)
		if tc.noop {
			if d.IsUpdate() {
				t.Errorf("%s: Kind = %v, expected noop", tc.name, d.Kind)
			}
			continue
		}
		if !d.IsUpdate() {
			t.Errorf("%s: Kind = %v, expected update", tc.name, d.Kind)
			continue
		}
		o := d.Writes.Overview
		if o.TotalAnnotatedEntries != tc.annotated {
			t.Errorf("%s: TotalAnnotatedEntries = %d, expected %d", tc.name, o.TotalAnnotatedEntries, tc.annotated)
		}
		if o.FullyReviewedEntriesCount != tc.fully {
			t.Errorf("%s: FullyReviewedEntriesCount = %d, expected %d", tc.name, o.FullyReviewedEntriesCount, tc.fully)
		}
		if o.TotalEntriesWithUnresolvedFlags != tc.flags {
			t.Errorf("%s: TotalEntriesWithUnresolvedFlags = %d, expected %d", tc.name, o.TotalEntriesWithUnresolvedFlags, tc.flags)
		}
		if o.TotalEntriesInDataset != 4 {
			t.Errorf("%s: TotalEntriesInDataset = %d, expected 4", tc.name, o.TotalEntriesInDataset)
		}
		switch {
		case tc.marker == nil && d.Writes.EntryMarker != nil:
			t.Errorf("%s: EntryMarker = %+v, expected none", tc.name, d.Writes.EntryMarker)
		case tc.marker != nil && (d.Writes.EntryMarker == nil || *d.Writes.EntryMarker != *tc.marker):
			t.Errorf("%s: EntryMarker = %+v, expected %+v", tc.name, d.Writes.EntryMarker, tc.marker)
		}
	}
}

func TestEntryLifecycle_UpdateWithoutTransitionIsNoop(t *testing.T) {
	snap := &Snapshot{}
	d := ComputeEntryLifecycle(EntryChange{Before: entry("e", 3, 1, 0), After: entry("e", 4, 1, 0)}, snap, testNow, 10)
	if d.IsUpdate() {
		t.Errorf("Kind = %v, expected noop", d.Kind)
	}

	archived := entry("e", 3, 1, 0)
	archived.IsArchived = true
	d = ComputeEntryLifecycle(EntryChange{Before: entry("e", 3, 1, 0), After: archived}, snap, testNow, 10)
	if d.IsUpdate() {
		t.Errorf("archive toggle Kind = %v, expected noop", d.Kind)
	}
}

func TestEntryLifecycle_RecomputesPercentages(t *testing.T) {
	snap := &Snapshot{
		Overview: &models.OverviewStats{
			TotalEntriesInDataset:           2,
			TotalAnnotatedEntries:           1,
			FullyReviewedEntriesCount:       1,
			TotalEntriesWithUnresolvedFlags: 0,
		},
		Responses: &models.ResponseAggregates{
			ID:                           models.ResponseAggregatesDocID,
			CommentSubmissions:           3,
			CommentSubmissionRatePercent: 30,
		},
	}
	d := ComputeEntryLifecycle(EntryChange{After: entry("e3", 0, 0, 0)}, snap, testNow, 10)

	r := d.Writes.Responses
	if r.OverallAnnotationPercent != 33 || r.Min10ReviewsPercent != 33 || r.UnresolvedFlagsPercent != 0 {
		t.Errorf("percents = %d/%d/%d, expected 33/33/0",
			r.OverallAnnotationPercent, r.Min10ReviewsPercent, r.UnresolvedFlagsPercent)
	}
	if r.CommentSubmissions != 3 || r.CommentSubmissionRatePercent != 30 {
		t.Error("comment fields should be carried over unchanged")
	}
}

func TestEntryLifecycle_UsesSettingsTarget(t *testing.T) {
	snap := &Snapshot{Settings: settings(3), Entry: entry("e", 3, 0, 0)}
	d := ComputeEntryLifecycle(EntryChange{Before: entry("e", 2, 0, 0), After: entry("e", 3, 0, 0)}, snap, testNow, 10)

	if d.Writes.Overview == nil || d.Writes.Overview.FullyReviewedEntriesCount != 1 {
		t.Fatalf("decision = %+v, expected fully reviewed at target 3", d)
	}
	if d.Writes.EntryMarker.To != 3 {
		t.Errorf("marker To = %d, expected 3", d.Writes.EntryMarker.To)
	}
}
