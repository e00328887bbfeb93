package services

import (
	"context"
	"errors"
	"time"

	"github.com/huangang/evalstats/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsService reads and writes settings/global_config.
type SettingsService struct {
	writer
	defaultTarget int64
}

func NewSettingsService(d Deps, defaultTarget int64) *SettingsService {
	return &SettingsService{writer: newWriter(d, "services.settings"), defaultTarget: defaultTarget}
}

// Get returns the settings document, or defaults when it is missing.
func (s *SettingsService) Get(ctx context.Context) (*models.AdminSettings, error) {
	var settings models.AdminSettings
	err := s.db.WithContext(ctx).Where("id = ?", models.SettingsDocID).Take(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.AdminSettings{
			ID:                       models.SettingsDocID,
			MinTargetReviewsPerEntry: (*models.AdminSettings)(nil).TargetReviews(s.defaultTarget),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SetTargetReviews changes the fully-reviewed threshold. Entries already
// counted stay counted once and are never added again for the new target;
// the threshold only applies to entries that were not counted yet.
func (s *SettingsService) SetTargetReviews(ctx context.Context, target int64) (*models.AdminSettings, error) {
	const op = "settings.set_target_reviews"
	if target < 1 {
		return nil, invalid(op, "minTargetReviewsPerEntry must be at least 1")
	}

	settings := models.AdminSettings{
		ID:                       models.SettingsDocID,
		MinTargetReviewsPerEntry: target,
		UpdatedAt:                time.Now().UTC(),
	}
	err := s.commit(ctx, op, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"min_target_reviews_per_entry", "updated_at"}),
		}).Create(&settings).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("target", target).Msg("review target updated")
	return &settings, nil
}
