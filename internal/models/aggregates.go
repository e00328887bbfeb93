package models

import (
	"time"

	"gorm.io/datatypes"
)

// Singleton aggregate document ids (aggregates/{id}).
const (
	OverviewStatsDocID       = "overview_stats"
	ResponseAggregatesDocID  = "response_aggregates"
	DemographicsSummaryDocID = "demographics_summary"
)

// Distribution maps a bucket label to its count.
type Distribution map[string]int64

// Clone returns an independent copy; a nil receiver yields an empty map.
func (d Distribution) Clone() Distribution {
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Sum returns the total over all buckets.
func (d Distribution) Sum() int64 {
	var total int64
	for _, v := range d {
		total += v
	}
	return total
}

// OverviewStats is the dataset-level counter document. Version guards the
// optimistic read-modify-write of every aggregate write.
type OverviewStats struct {
	ID                              string    `gorm:"primaryKey;size:64" json:"id"`
	Version                         int64     `gorm:"not null;default:0" json:"-"`
	TotalEntriesInDataset           int64     `gorm:"not null;default:0" json:"totalEntriesInDataset"`
	TotalAnnotatedEntries           int64     `gorm:"not null;default:0" json:"totalAnnotatedEntries"`
	FullyReviewedEntriesCount       int64     `gorm:"not null;default:0" json:"fullyReviewedEntriesCount"`
	TotalEntriesWithUnresolvedFlags int64     `gorm:"not null;default:0" json:"totalEntriesWithUnresolvedFlags"`
	TotalEvaluationsSubmitted       int64     `gorm:"not null;default:0" json:"totalEvaluationsSubmitted"`
	AverageTimePerEvaluationMs      float64   `gorm:"not null;default:0" json:"averageTimePerEvaluationMs"`
	EvaluationsCountForAvg          int64     `gorm:"not null;default:0" json:"evaluationsCountForAvg"`
	TotalAgreementCount             int64     `gorm:"not null;default:0" json:"totalAgreementCount"`
	AgreementRate                   float64   `gorm:"not null;default:0" json:"agreementRate"`
	LastUpdatedAt                   time.Time `json:"lastUpdatedAt"`
}

func (OverviewStats) TableName() string { return "overview_stats" }

// ResponseAggregates holds the rating histogram and the dataset percentages
// derived from OverviewStats.
type ResponseAggregates struct {
	ID                           string                           `gorm:"primaryKey;size:64" json:"id"`
	Version                      int64                            `gorm:"not null;default:0" json:"-"`
	RatingDistribution           datatypes.JSONType[Distribution] `json:"ratingDistribution"`
	CommentSubmissions           int64                            `gorm:"not null;default:0" json:"commentSubmissions"`
	CommentSubmissionRatePercent float64                          `gorm:"not null;default:0" json:"commentSubmissionRatePercent"`
	OverallAnnotationPercent     int64                            `gorm:"not null;default:0" json:"overallAnnotationPercent"`
	Min10ReviewsPercent          int64                            `gorm:"column:min10_reviews_percent;not null;default:0" json:"min10ReviewsPercent"`
	UnresolvedFlagsPercent       int64                            `gorm:"not null;default:0" json:"unresolvedFlagsPercent"`
	LastUpdatedAt                time.Time                        `json:"lastUpdatedAt"`
}

func (ResponseAggregates) TableName() string { return "response_aggregates" }

// DemographicsSummary holds per-field respondent histograms.
type DemographicsSummary struct {
	ID                                string                           `gorm:"primaryKey;size:64" json:"id"`
	Version                           int64                            `gorm:"not null;default:0" json:"-"`
	TotalParticipantsWithDemographics int64                            `gorm:"not null;default:0" json:"totalParticipantsWithDemographics"`
	AgeGroupDistribution              datatypes.JSONType[Distribution] `json:"ageGroupDistribution"`
	GenderDistribution                datatypes.JSONType[Distribution] `json:"genderDistribution"`
	EducationLevelDistribution        datatypes.JSONType[Distribution] `json:"educationLevelDistribution"`
	FieldOfExpertiseDistribution      datatypes.JSONType[Distribution] `json:"fieldOfExpertiseDistribution"`
	AIFamiliarityDistribution         datatypes.JSONType[Distribution] `gorm:"column:ai_familiarity_distribution" json:"aiFamiliarityDistribution"`
	LastUpdatedAt                     time.Time                        `json:"lastUpdatedAt"`
}

func (DemographicsSummary) TableName() string { return "demographics_summaries" }

func (o *OverviewStats) GetVersion() int64        { return o.Version }
func (o *OverviewStats) SetVersion(v int64)       { o.Version = v }
func (r *ResponseAggregates) GetVersion() int64   { return r.Version }
func (r *ResponseAggregates) SetVersion(v int64)  { r.Version = v }
func (d *DemographicsSummary) GetVersion() int64  { return d.Version }
func (d *DemographicsSummary) SetVersion(v int64) { d.Version = v }
