package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit event types.
const (
	AuditEventEntryDeleted = "entry_deleted"
	AuditEventAdminWrite   = "admin_write"
)

// AuditLog is an append-only record of a privileged operation (audit_log/{id}).
type AuditLog struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	EventType   string    `gorm:"size:64;index;not null" json:"eventType"`
	EntryID     string    `gorm:"size:64;index" json:"entryId,omitempty"`
	ActorID     string    `gorm:"size:128;index" json:"actorId"`
	Timestamp   time.Time `gorm:"index" json:"timestamp"`
	DisplayText string    `gorm:"type:text" json:"displayText"`
	Extra       string    `gorm:"type:text" json:"extra,omitempty"` // JSON extra data
}

func (AuditLog) TableName() string { return "audit_logs" }

// NewAuditLog builds a record stamped with a fresh id and the current time.
func NewAuditLog(eventType, entryID, actorID, text string) *AuditLog {
	return &AuditLog{
		ID:          uuid.NewString(),
		EventType:   eventType,
		EntryID:     entryID,
		ActorID:     actorID,
		Timestamp:   time.Now().UTC(),
		DisplayText: text,
	}
}
