package stats

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the caller-facing failure class of a stats operation.
type ErrorCode string

const (
	CodeUnauthenticated  ErrorCode = "unauthenticated"
	CodePermissionDenied ErrorCode = "permission-denied"
	CodeInvalidArgument  ErrorCode = "invalid-argument"
	CodeNotFound         ErrorCode = "not-found"
	// CodeAborted means the optimistic retry budget was exhausted.
	CodeAborted  ErrorCode = "aborted"
	CodeInternal ErrorCode = "internal"
)

// Error is the canonical stats error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an error with explicit code and operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates err with a code. A nil err stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or a wrapped err) carries code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// CodeOf extracts the error code, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	var statsErr *Error
	if !errors.As(err, &statsErr) {
		return ""
	}
	return statsErr.Code
}

// MessageOf returns the message of a stats error, or "" for foreign errors.
func MessageOf(err error) string {
	var statsErr *Error
	if !errors.As(err, &statsErr) {
		return ""
	}
	return statsErr.Message
}
