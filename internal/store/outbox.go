package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/evalstats/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecordChange appends an outbox row describing a primary-entity write. It
// must be called with the transaction that performed the write so the event
// exists if and only if the write committed. A nil before or after means the
// document was absent on that side.
func RecordChange(tx *gorm.DB, collection, docID, kind string, before, after any) (*models.ChangeEvent, error) {
	beforeJSON, err := snapshotJSON(before)
	if err != nil {
		return nil, fmt.Errorf("encode before snapshot: %w", err)
	}
	afterJSON, err := snapshotJSON(after)
	if err != nil {
		return nil, fmt.Errorf("encode after snapshot: %w", err)
	}

	ev := &models.ChangeEvent{
		EventID:    uuid.NewString(),
		Collection: collection,
		DocID:      docID,
		Kind:       kind,
		Before:     beforeJSON,
		After:      afterJSON,
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

func snapshotJSON(v any) (datatypes.JSON, error) {
	if isNil(v) {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case *models.Entry:
		return t == nil
	case *models.Evaluation:
		return t == nil
	case *models.ParticipantSession:
		return t == nil
	case *models.EntryFlag:
		return t == nil
	}
	return false
}
