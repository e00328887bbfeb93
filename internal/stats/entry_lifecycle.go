package stats

import (
	"time"

	"github.com/huangang/evalstats/internal/models"
)

// EntryChange is the before/after pair of one entry write. Before is nil on
// create and After is nil on delete.
type EntryChange struct {
	Before *models.Entry
	After  *models.Entry
}

// counted reports whether e currently contributes to fullyReviewedEntriesCount.
func counted(e *models.Entry) bool {
	return e != nil && e.PreviousReviewCountForFullyReviewedCheck > 0
}

// ComputeEntryLifecycle derives the dataset totals after one entry write.
//
// snap.Entry is the entry as it stands now, which may be ahead of ch.After.
// Fully-reviewed transitions are decided against its marker so this path
// and the evaluation path never count the same entry twice.
func ComputeEntryLifecycle(ch EntryChange, snap *Snapshot, now time.Time, defaultTarget int64) Decision {
	if ch.Before == nil && ch.After == nil {
		return Noop("empty entry change")
	}

	target := targetOf(snap, defaultTarget)
	o := cloneOverview(snap.Overview)
	var clamps clampLog
	var marker *EntryMarker
	changed := false

	switch {
	case ch.Before == nil:
		o.TotalEntriesInDataset = increment(o.TotalEntriesInDataset)
		changed = true

	case ch.After == nil:
		b := ch.Before
		o.TotalEntriesInDataset = clamps.decrement("totalEntriesInDataset", o.TotalEntriesInDataset)
		if b.ReviewCount > 0 {
			o.TotalAnnotatedEntries = clamps.decrement("totalAnnotatedEntries", o.TotalAnnotatedEntries)
		}
		if counted(b) {
			o.FullyReviewedEntriesCount = clamps.decrement("fullyReviewedEntriesCount", o.FullyReviewedEntriesCount)
		}
		if b.IsFlaggedCount > 0 {
			o.TotalEntriesWithUnresolvedFlags = clamps.decrement("totalEntriesWithUnresolvedFlags", o.TotalEntriesWithUnresolvedFlags)
		}
		changed = true

	default:
		b, a := ch.Before, ch.After
		switch {
		case b.ReviewCount == 0 && a.ReviewCount > 0:
			o.TotalAnnotatedEntries = increment(o.TotalAnnotatedEntries)
			changed = true
		case b.ReviewCount > 0 && a.ReviewCount == 0:
			o.TotalAnnotatedEntries = clamps.decrement("totalAnnotatedEntries", o.TotalAnnotatedEntries)
			changed = true
		}

		switch {
		case b.IsFlaggedCount == 0 && a.IsFlaggedCount > 0:
			o.TotalEntriesWithUnresolvedFlags = increment(o.TotalEntriesWithUnresolvedFlags)
			changed = true
		case b.IsFlaggedCount > 0 && a.IsFlaggedCount == 0:
			o.TotalEntriesWithUnresolvedFlags = clamps.decrement("totalEntriesWithUnresolvedFlags", o.TotalEntriesWithUnresolvedFlags)
			changed = true
		}

		if cur := snap.Entry; cur != nil {
			m := cur.PreviousReviewCountForFullyReviewedCheck
			switch {
			case b.ReviewCount < target && a.ReviewCount >= target && !counted(cur):
				o.FullyReviewedEntriesCount = increment(o.FullyReviewedEntriesCount)
				marker = &EntryMarker{EntryID: cur.ID, From: m, To: target}
				changed = true
			case b.ReviewCount >= target && a.ReviewCount < target && counted(cur):
				o.FullyReviewedEntriesCount = clamps.decrement("fullyReviewedEntriesCount", o.FullyReviewedEntriesCount)
				marker = &EntryMarker{EntryID: cur.ID, From: m, To: 0}
				changed = true
			}
		}
	}

	if !changed {
		return Noop("no counter transition")
	}

	o.LastUpdatedAt = now
	r := cloneResponses(snap.Responses)
	applyDatasetPercents(r, o, now)

	d := Update(Writes{Overview: o, Responses: r, EntryMarker: marker})
	d.Clamped = clamps
	return d
}
