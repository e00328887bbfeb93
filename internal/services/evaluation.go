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

// SubmitEvaluationInput is one participant's judgment of an entry.
type SubmitEvaluationInput struct {
	EntryID                   string `json:"entryId" binding:"required"`
	SessionID                 string `json:"sessionId"`
	Rating                    int    `json:"rating"`
	TimeSpentMs               int64  `json:"timeSpentMs"`
	Comment                   string `json:"comment"`
	WasChosenActuallyAccepted bool   `json:"wasChosenActuallyAccepted"`
}

// EvaluationService owns the evaluations collection write path.
type EvaluationService struct {
	writer
}

func NewEvaluationService(d Deps) *EvaluationService {
	return &EvaluationService{writer: newWriter(d, "services.evaluation")}
}

// Submit stores the evaluation and increments the owning entry's review
// count in the same transaction, recording a change event for both.
func (s *EvaluationService) Submit(ctx context.Context, in SubmitEvaluationInput) (*models.Evaluation, error) {
	const op = "evaluations.submit"
	in.EntryID = strings.TrimSpace(in.EntryID)
	if in.EntryID == "" {
		return nil, invalid(op, "entryId is required")
	}
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return nil, invalid(op, "rating must be between 1 and 5")
	}
	if in.TimeSpentMs < 0 {
		return nil, invalid(op, "timeSpentMs must not be negative")
	}

	var eval models.Evaluation
	err := s.commit(ctx, op, func(tx *gorm.DB) error {
		before, err := lockEntry(tx, op, in.EntryID)
		if err != nil {
			return err
		}
		eval = models.Evaluation{
			ID:                        uuid.NewString(),
			EntryID:                   in.EntryID,
			SessionID:                 strings.TrimSpace(in.SessionID),
			Rating:                    in.Rating,
			TimeSpentMs:               in.TimeSpentMs,
			Comment:                   in.Comment,
			WasChosenActuallyAccepted: in.WasChosenActuallyAccepted,
			CreatedAt:                 time.Now().UTC(),
		}
		if err := tx.Create(&eval).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Entry{}).Where("id = ?", in.EntryID).
			UpdateColumn("review_count", gorm.Expr("review_count + 1")).Error; err != nil {
			return err
		}
		after, err := loadEntry(tx, op, in.EntryID)
		if err != nil {
			return err
		}

		// Evaluation first: its aggregator reads the already-incremented count.
		if _, err := store.RecordChange(tx, models.CollectionEvaluations, eval.ID, models.ChangeCreate, nil, &eval); err != nil {
			return err
		}
		_, err = store.RecordChange(tx, models.CollectionEntries, in.EntryID, models.ChangeUpdate, before, after)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &eval, nil
}
