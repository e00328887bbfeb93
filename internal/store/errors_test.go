package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		conflict bool
	}{
		{"nil", nil, false},
		{"tagged conflict", ConflictError("stale version"), true},
		{"gorm duplicate", gorm.ErrDuplicatedKey, true},
		{"wrapped gorm duplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"record not found", gorm.ErrRecordNotFound, false},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, true},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"pg unique", &pgconn.PgError{Code: "23505"}, true},
		{"pg fk violation", &pgconn.PgError{Code: "23503"}, false},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, true},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true},
		{"mysql syntax", &mysql.MySQLError{Number: 1064}, false},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"sqlite not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, false},
		{"message fallback", errors.New("database is locked"), true},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("disk full"), false},
	}

	for _, tc := range testCases {
		got := IsConflict(tc.err)
		if got != tc.conflict {
			t.Errorf("%s: IsConflict = %v, expected %v", tc.name, got, tc.conflict)
		}
	}
}

func TestIsDuplicateKey(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		dup  bool
	}{
		{"nil", nil, false},
		{"gorm duplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"pg unique", &pgconn.PgError{Code: "23505"}, true},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, false},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true},
		{"mysql lock wait", &mysql.MySQLError{Number: 1205}, false},
		{"sqlite primary key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, true},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, false},
		{"sqlite locked", sqlite3.Error{Code: sqlite3.ErrLocked}, false},
		{"message fallback", errors.New("database is locked"), false},
		{"tagged conflict", ConflictError("stale version"), false},
	}

	for _, tc := range testCases {
		if got := IsDuplicateKey(tc.err); got != tc.dup {
			t.Errorf("%s: IsDuplicateKey = %v, expected %v", tc.name, got, tc.dup)
		}
	}
}

func TestClassify_PreservesCause(t *testing.T) {
	cause := &pgconn.PgError{Code: "40001"}
	err := Classify(cause)

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		t.Fatal("classified error should still unwrap to the driver error")
	}
	if !errors.Is(err, ErrConflict) {
		t.Error("classified error should match ErrConflict")
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "x"); err != nil {
		t.Errorf("RequireCASSuccess(true) = %v, expected nil", err)
	}
	if err := RequireCASSuccess(false, "version mismatch"); !errors.Is(err, ErrConflict) {
		t.Errorf("RequireCASSuccess(false) = %v, expected ErrConflict", err)
	}
}
