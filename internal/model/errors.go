package model

import (
	"errors"
	"fmt"
)

// Sentinel failure kinds. API handlers map each one to a distinct status;
// services never collapse them into a generic error.
var (
	ErrNotFound           = errors.New("account not found")
	ErrConflict           = errors.New("account already exists")
	ErrRateLimited        = errors.New("too many pending registration attempts")
	ErrCodeMismatch       = errors.New("verification code mismatch")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports malformed input on a named field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// TransientError marks a store or notifier failure the caller may retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s temporarily unavailable: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as a retryable failure of op.
func NewTransientError(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is a retryable failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
