// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the ledger wraps exactly one of these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidRange   = errors.New("invalid range")
	ErrConflict       = errors.New("conflict")
	ErrStorageFailure = errors.New("storage failure")
)

// Input errors. Each wraps ErrInvalidInput.
var (
	ErrInvalidCategory = fmt.Errorf("%w: invalid category", ErrInvalidInput)
	ErrInvalidDate     = fmt.Errorf("%w: invalid date", ErrInvalidInput)
	ErrInvalidPeriod   = fmt.Errorf("%w: invalid period", ErrInvalidInput)
	ErrInvalidGroupBy  = fmt.Errorf("%w: invalid group_by", ErrInvalidInput)
	ErrMissingField    = fmt.Errorf("%w: missing required field", ErrInvalidInput)
	ErrInvalidAmount   = fmt.Errorf("%w: invalid amount", ErrInvalidInput)
	ErrInvalidKind     = fmt.Errorf("%w: invalid category type", ErrInvalidInput)
)

// Configuration errors.
var (
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Kind is the machine-checkable class of an error.
type Kind string

// Error kinds reported to callers.
const (
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidRange   Kind = "invalid_range"
	KindConflict       Kind = "conflict"
	KindStorageFailure Kind = "storage_failure"
	KindCanceled       Kind = "canceled"
	KindInternal       Kind = "internal"
)

// KindOf classifies err. A nil error has an empty kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidRange):
		return KindInvalidRange
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrStorageFailure):
		return KindStorageFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}

// ImportError identifies the row (1-based) and field that stopped a bulk import.
type ImportError struct {
	Err   error
	Field string
	Row   int
}

func (e *ImportError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
