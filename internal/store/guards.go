package store

import (
	"gorm.io/gorm"
)

// Versioned is a document guarded by an optimistic version counter.
type Versioned interface {
	GetVersion() int64
	SetVersion(v int64)
}

// SaveVersioned writes doc with compare-and-set on its version. doc must
// carry the version it was read at; existed reports whether the row was
// present in that read. A missing row is inserted at version 1, so two
// concurrent first writers collide on the primary key. On success the
// document's version is advanced.
func SaveVersioned(tx *gorm.DB, doc Versioned, existed bool) error {
	expected := doc.GetVersion()
	doc.SetVersion(expected + 1)

	if !existed {
		if err := tx.Create(doc).Error; err != nil {
			doc.SetVersion(expected)
			return Classify(err)
		}
		return nil
	}

	res := tx.Model(doc).Where("version = ?", expected).Select("*").Updates(doc)
	if res.Error != nil {
		doc.SetVersion(expected)
		return Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		doc.SetVersion(expected)
		return ConflictError("version mismatch")
	}
	return nil
}

// UpdateIfEqual updates a row only when column still holds expected.
func UpdateIfEqual(tx *gorm.DB, table, id, column string, expected any, updates map[string]any) (bool, error) {
	if table == "" || id == "" || column == "" {
		return false, gorm.ErrMissingWhereClause
	}
	res := tx.Table(table).
		Where("id = ?", id).
		Where(column+" = ?", expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a conflict.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(message)
}
