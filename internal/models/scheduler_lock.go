package models

import "time"

// SchedulerLock is the lease row behind store.Lease. LockName names the job
// (e.g. "outbox_relay") and LockKey scopes it, so one job may hold several
// independent leases.
type SchedulerLock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LockName  string    `gorm:"uniqueIndex:idx_lock_name_key;size:100;not null" json:"lockName"`
	LockKey   string    `gorm:"uniqueIndex:idx_lock_name_key;size:100;not null" json:"lockKey"`
	LockedBy  string    `gorm:"size:100" json:"lockedBy"`
	LockedAt  time.Time `json:"lockedAt"`
	ExpiresAt time.Time `gorm:"index" json:"expiresAt"`
	// Renewals counts successful acquisitions since the row was created.
	Renewals int64 `gorm:"not null;default:0" json:"renewals"`
}

func (SchedulerLock) TableName() string { return "scheduler_locks" }
