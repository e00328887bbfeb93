package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/evalstats/internal/models"
	"github.com/huangang/evalstats/internal/store"
	"gorm.io/gorm"
)

// SessionService owns the participant_sessions write path.
type SessionService struct {
	writer
}

func NewSessionService(d Deps) *SessionService {
	return &SessionService{writer: newWriter(d, "services.session")}
}

// Create stores a respondent. Demographics are optional.
func (s *SessionService) Create(ctx context.Context, demo models.Demographics) (*models.ParticipantSession, error) {
	const op = "sessions.create"
	session := models.ParticipantSession{
		ID: uuid.NewString(),
		Demographics: models.Demographics{
			AgeGroup:         strings.TrimSpace(demo.AgeGroup),
			Gender:           strings.TrimSpace(demo.Gender),
			EducationLevel:   strings.TrimSpace(demo.EducationLevel),
			FieldOfExpertise: strings.TrimSpace(demo.FieldOfExpertise),
			AIFamiliarity:    strings.TrimSpace(demo.AIFamiliarity),
		},
		CreatedAt: time.Now().UTC(),
	}

	err := s.commit(ctx, op, func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		_, err := store.RecordChange(tx, models.CollectionParticipantSessions, session.ID, models.ChangeCreate, nil, &session)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}
