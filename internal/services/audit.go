package services

import (
	"context"
	"encoding/json"

	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/pkg/logger"
	"gorm.io/gorm"
)

// AuditService writes audit_log records for admin requests.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record appends an audit row. Failures are logged, never returned: an
// audit write must not fail the request it describes.
func (s *AuditService) Record(ctx context.Context, eventType, entryID, actorID, text string, extra interface{}) {
	if s == nil || s.db == nil {
		return
	}
	rec := models.NewAuditLog(eventType, entryID, actorID, text)
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			rec.Extra = string(b)
		}
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("[Audit] failed to write audit log")
	}
}

// List returns the most recent audit records, newest first.
func (s *AuditService) List(ctx context.Context, eventType string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Order("timestamp DESC").Limit(limit)
	if eventType != "" {
		q = q.Where("event_type = ?", eventType)
	}
	var out []models.AuditLog
	err := q.Find(&out).Error
	return out, err
}
