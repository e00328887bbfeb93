package stats

import (
	"math"
	"time"

	"github.com/huangang/evalstats/internal/models"
)

// clampLog collects the names of counters whose decrement hit the floor.
type clampLog []string

func (l *clampLog) decrement(counter string, v int64) int64 {
	if v <= 0 {
		*l = append(*l, counter)
		return 0
	}
	return v - 1
}

func increment(v int64) int64 {
	if v < 0 {
		return 1
	}
	return v + 1
}

// percentInt returns round(n / d * 100), or 0 when d is not positive.
func percentInt(n, d int64) int64 {
	if d <= 0 {
		return 0
	}
	return int64(math.Round(float64(n) / float64(d) * 100))
}

// percent1 returns n / d * 100 rounded to one decimal, or 0 when d is not positive.
func percent1(n, d int64) float64 {
	if d <= 0 {
		return 0
	}
	return round1(float64(n) / float64(d) * 100)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func targetOf(snap *Snapshot, def int64) int64 {
	return snap.Settings.TargetReviews(def)
}

func cloneOverview(o *models.OverviewStats) *models.OverviewStats {
	if o == nil {
		return &models.OverviewStats{ID: models.OverviewStatsDocID}
	}
	cp := *o
	return &cp
}

func cloneResponses(r *models.ResponseAggregates) *models.ResponseAggregates {
	if r == nil {
		return &models.ResponseAggregates{
			ID:                 models.ResponseAggregatesDocID,
			RatingDistribution: emptyDistribution(),
		}
	}
	cp := *r
	cp.RatingDistribution = cloneDistribution(r.RatingDistribution)
	return &cp
}

func cloneDemographics(d *models.DemographicsSummary) *models.DemographicsSummary {
	if d == nil {
		return &models.DemographicsSummary{
			ID:                           models.DemographicsSummaryDocID,
			AgeGroupDistribution:         emptyDistribution(),
			GenderDistribution:           emptyDistribution(),
			EducationLevelDistribution:   emptyDistribution(),
			FieldOfExpertiseDistribution: emptyDistribution(),
			AIFamiliarityDistribution:    emptyDistribution(),
		}
	}
	cp := *d
	cp.AgeGroupDistribution = cloneDistribution(d.AgeGroupDistribution)
	cp.GenderDistribution = cloneDistribution(d.GenderDistribution)
	cp.EducationLevelDistribution = cloneDistribution(d.EducationLevelDistribution)
	cp.FieldOfExpertiseDistribution = cloneDistribution(d.FieldOfExpertiseDistribution)
	cp.AIFamiliarityDistribution = cloneDistribution(d.AIFamiliarityDistribution)
	return &cp
}

// applyDatasetPercents derives the dataset percentages of r from o.
func applyDatasetPercents(r *models.ResponseAggregates, o *models.OverviewStats, now time.Time) {
	total := o.TotalEntriesInDataset
	r.OverallAnnotationPercent = percentInt(o.TotalAnnotatedEntries, total)
	r.Min10ReviewsPercent = percentInt(o.FullyReviewedEntriesCount, total)
	r.UnresolvedFlagsPercent = percentInt(o.TotalEntriesWithUnresolvedFlags, total)
	r.LastUpdatedAt = now
}
