package stats

import (
	"strconv"
	"strings"
	"time"

	"github.com/huangang/evalstats/internal/models"
)

// ComputeEvaluationCreated folds one new evaluation into the overview and
// response aggregates.
//
// snap.Entry.ReviewCount already includes ev: the evaluation write path
// increments it in the transaction that creates the evaluation.
func ComputeEvaluationCreated(ev *models.Evaluation, snap *Snapshot, now time.Time, defaultTarget int64) Decision {
	if ev == nil {
		return Noop("missing evaluation")
	}

	o := cloneOverview(snap.Overview)
	o.TotalEvaluationsSubmitted = increment(o.TotalEvaluationsSubmitted)

	n := o.EvaluationsCountForAvg
	if n < 0 {
		n = 0
	}
	o.AverageTimePerEvaluationMs = (o.AverageTimePerEvaluationMs*float64(n) + float64(ev.TimeSpentMs)) / float64(n+1)
	o.EvaluationsCountForAvg = n + 1

	var marker *EntryMarker
	var reason string
	if e := snap.Entry; e != nil {
		target := targetOf(snap, defaultTarget)
		if e.ReviewCount >= target && !counted(e) {
			o.FullyReviewedEntriesCount = increment(o.FullyReviewedEntriesCount)
			marker = &EntryMarker{
				EntryID: e.ID,
				From:    e.PreviousReviewCountForFullyReviewedCheck,
				To:      target,
			}
		}
	} else {
		reason = "entry " + ev.EntryID + " not found, fully-reviewed check skipped"
	}

	if ev.WasChosenActuallyAccepted {
		o.TotalAgreementCount = increment(o.TotalAgreementCount)
	}
	o.AgreementRate = percent1(o.TotalAgreementCount, o.TotalEvaluationsSubmitted)
	o.LastUpdatedAt = now

	r := cloneResponses(snap.Responses)
	r.RatingDistribution = bump(r.RatingDistribution, strconv.Itoa(ev.Rating))
	if strings.TrimSpace(ev.Comment) != "" {
		r.CommentSubmissions = increment(r.CommentSubmissions)
	}
	r.CommentSubmissionRatePercent = percent1(r.CommentSubmissions, o.TotalEvaluationsSubmitted)
	applyDatasetPercents(r, o, now)

	d := Update(Writes{Overview: o, Responses: r, EntryMarker: marker})
	d.Reason = reason
	return d
}
