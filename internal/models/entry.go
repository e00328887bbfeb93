package models

import "time"

// Entry is one unit being evaluated by participants.
type Entry struct {
	ID             string `gorm:"primaryKey;size:64" json:"id"`
	ReviewCount    int64  `gorm:"not null;default:0" json:"reviewCount"`
	IsFlaggedCount int64  `gorm:"not null;default:0" json:"isFlaggedCount"`
	// PreviousReviewCountForFullyReviewedCheck is the review target at which
	// this entry was last counted as fully reviewed; 0 when it is not counted.
	PreviousReviewCountForFullyReviewedCheck int64     `gorm:"not null;default:0" json:"previousReviewCountForFullyReviewedCheck"`
	IsArchived                               bool      `gorm:"not null;default:false" json:"isArchived"`
	CreatedAt                                time.Time `json:"createdAt"`
	UpdatedAt                                time.Time `json:"updatedAt"`
}

func (Entry) TableName() string { return "entries" }

// EntryFlag is a flag sub-document raised against an entry
// (entries/{id}/flags/{flagId}).
type EntryFlag struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	EntryID   string    `gorm:"size:64;index;not null" json:"entryId"`
	Reason    string    `gorm:"type:text" json:"reason"`
	CreatedBy string    `gorm:"size:128" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func (EntryFlag) TableName() string { return "entry_flags" }
