package store

import (
	"context"
	"errors"
	"time"

	"github.com/huangang/evalstats/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Lease is a time-bounded lock row in scheduler_locks. A replica holding an
// unexpired lease owns the named job; an expired lease may be taken over.
type Lease struct {
	db    *gorm.DB
	name  string
	key   string
	owner string
	ttl   time.Duration
	now   func() time.Time
}

func NewLease(db *gorm.DB, name, key, owner string, ttl time.Duration) *Lease {
	return &Lease{db: db, name: name, key: key, owner: owner, ttl: ttl, now: time.Now}
}

// Owner returns the identity this lease acquires under.
func (l *Lease) Owner() string { return l.owner }

// TryAcquire takes or renews the lease. It returns false without error when
// another owner holds an unexpired lease.
func (l *Lease) TryAcquire(ctx context.Context) (bool, error) {
	now := l.now().UTC()
	db := l.db.WithContext(ctx)

	res := db.Model(&models.SchedulerLock{}).
		Where("lock_name = ? AND lock_key = ?", l.name, l.key).
		Where("locked_by = ? OR expires_at < ?", l.owner, now).
		Updates(map[string]any{
			"locked_by":  l.owner,
			"locked_at":  now,
			"expires_at": now.Add(l.ttl),
			"renewals":   gorm.Expr("renewals + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	lock := models.SchedulerLock{
		LockName:  l.name,
		LockKey:   l.key,
		LockedBy:  l.owner,
		LockedAt:  now,
		ExpiresAt: now.Add(l.ttl),
		Renewals:  1,
	}
	res = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&lock)
	if res.Error != nil {
		if errors.Is(Classify(res.Error), ErrConflict) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Release expires the lease if this owner still holds it.
func (l *Lease) Release(ctx context.Context) error {
	return l.db.WithContext(ctx).
		Model(&models.SchedulerLock{}).
		Where("lock_name = ? AND lock_key = ? AND locked_by = ?", l.name, l.key, l.owner).
		Update("expires_at", l.now().UTC().Add(-time.Second)).Error
}
