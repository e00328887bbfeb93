package services

import (
	"context"
	"errors"

	"github.com/huangang/evalstats/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StatsService reads the aggregate documents. Missing documents read as
// zero-valued.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) Overview(ctx context.Context) (*models.OverviewStats, error) {
	doc := models.OverviewStats{ID: models.OverviewStatsDocID}
	if err := s.take(ctx, &doc, doc.ID); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *StatsService) Responses(ctx context.Context) (*models.ResponseAggregates, error) {
	doc := models.ResponseAggregates{
		ID:                 models.ResponseAggregatesDocID,
		RatingDistribution: datatypes.NewJSONType(models.Distribution{}),
	}
	if err := s.take(ctx, &doc, doc.ID); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *StatsService) Demographics(ctx context.Context) (*models.DemographicsSummary, error) {
	empty := datatypes.NewJSONType(models.Distribution{})
	doc := models.DemographicsSummary{
		ID:                           models.DemographicsSummaryDocID,
		AgeGroupDistribution:         empty,
		GenderDistribution:           empty,
		EducationLevelDistribution:   empty,
		FieldOfExpertiseDistribution: empty,
		AIFamiliarityDistribution:    empty,
	}
	if err := s.take(ctx, &doc, doc.ID); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *StatsService) take(ctx context.Context, dest any, id string) error {
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// CountEntries returns the number of live entries.
func (s *StatsService) CountEntries(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Entry{}).Count(&n).Error
	return n, err
}
