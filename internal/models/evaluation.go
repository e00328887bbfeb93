package models

import "time"

// Evaluation is one participant's judgment of an Entry. Immutable once created.
type Evaluation struct {
	ID                        string    `gorm:"primaryKey;size:64" json:"id"`
	EntryID                   string    `gorm:"size:64;index;not null" json:"entryId"`
	SessionID                 string    `gorm:"size:64;index" json:"sessionId,omitempty"`
	Rating                    int       `gorm:"not null" json:"rating"`
	TimeSpentMs               int64     `gorm:"not null;default:0" json:"timeSpentMs"`
	Comment                   string    `gorm:"type:text" json:"comment,omitempty"`
	WasChosenActuallyAccepted bool      `gorm:"not null;default:false" json:"wasChosenActuallyAccepted"`
	CreatedAt                 time.Time `json:"createdAt"`
}

func (Evaluation) TableName() string { return "evaluations" }

const (
	MinRating = 1
	MaxRating = 5
)
