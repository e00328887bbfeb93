package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChangeEvent is an outbox row recording one primary-entity write. It is
// inserted in the same transaction as the write and relayed to the event bus.
type ChangeEvent struct {
	Seq        uint           `gorm:"primaryKey;autoIncrement" json:"seq"`
	EventID    string         `gorm:"size:64;uniqueIndex;not null" json:"eventId"`
	Collection string         `gorm:"size:64;index;not null" json:"collection"`
	DocID      string         `gorm:"size:64;not null" json:"docId"`
	Kind       string         `gorm:"size:16;not null" json:"kind"` // create, update, delete
	Before     datatypes.JSON `json:"before,omitempty"`
	After      datatypes.JSON `json:"after,omitempty"`
	Attempts   int            `gorm:"not null;default:0" json:"attempts"`
	// ClaimedUntil is set while a relay is publishing the row.
	ClaimedUntil *time.Time `json:"claimedUntil,omitempty"`
	PublishedAt  *time.Time `gorm:"index" json:"publishedAt,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"createdAt"`
}

func (ChangeEvent) TableName() string { return "change_events" }

// ProcessedEvent marks that a handler has committed the effects of an event,
// making redelivery of the same event a no-op for that handler.
type ProcessedEvent struct {
	EventID     string    `gorm:"primaryKey;size:64" json:"eventId"`
	Handler     string    `gorm:"primaryKey;size:64" json:"handler"`
	ProcessedAt time.Time `gorm:"index" json:"processedAt"`
}

func (ProcessedEvent) TableName() string { return "processed_events" }

// Watched collections.
const (
	CollectionEntries             = "entries"
	CollectionEvaluations         = "evaluations"
	CollectionParticipantSessions = "participant_sessions"
	CollectionFlags               = "flags"
)

// Change kinds.
const (
	ChangeCreate = "create"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)
