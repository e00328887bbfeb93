package models

import (
	"strings"
	"time"
)

// Demographics holds the optional self-reported respondent attributes.
// An empty string means the field was not answered.
type Demographics struct {
	AgeGroup         string `gorm:"size:64" json:"ageGroup,omitempty"`
	Gender           string `gorm:"size:64" json:"gender,omitempty"`
	EducationLevel   string `gorm:"size:128" json:"educationLevel,omitempty"`
	FieldOfExpertise string `gorm:"size:128" json:"fieldOfExpertise,omitempty"`
	AIFamiliarity    string `gorm:"size:64" json:"aiFamiliarity,omitempty"`
}

// IsEmpty reports whether no demographic field is populated.
func (d Demographics) IsEmpty() bool {
	return strings.TrimSpace(d.AgeGroup) == "" &&
		strings.TrimSpace(d.Gender) == "" &&
		strings.TrimSpace(d.EducationLevel) == "" &&
		strings.TrimSpace(d.FieldOfExpertise) == "" &&
		strings.TrimSpace(d.AIFamiliarity) == ""
}

// ParticipantSession is one respondent. Immutable once created.
type ParticipantSession struct {
	ID           string       `gorm:"primaryKey;size:64" json:"id"`
	Demographics Demographics `gorm:"embedded;embeddedPrefix:demo_" json:"demographics"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (ParticipantSession) TableName() string { return "participant_sessions" }
