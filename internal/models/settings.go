package models

import "time"

// SettingsDocID is the id of the singleton settings document (settings/global_config).
const SettingsDocID = "global_config"

// DefaultMinTargetReviewsPerEntry applies when the settings document or its
// field is missing.
const DefaultMinTargetReviewsPerEntry int64 = 10

// AdminSettings is the singleton global configuration document.
type AdminSettings struct {
	ID                       string    `gorm:"primaryKey;size:64" json:"id"`
	MinTargetReviewsPerEntry int64     `gorm:"not null;default:10" json:"minTargetReviewsPerEntry"`
	UpdatedAt                time.Time `json:"updatedAt"`
}

func (AdminSettings) TableName() string { return "settings" }

// TargetReviews returns the configured threshold, falling back to def when
// the document is missing or holds a non-positive value.
func (s *AdminSettings) TargetReviews(def int64) int64 {
	if s == nil || s.MinTargetReviewsPerEntry <= 0 {
		if def <= 0 {
			return DefaultMinTargetReviewsPerEntry
		}
		return def
	}
	return s.MinTargetReviewsPerEntry
}
