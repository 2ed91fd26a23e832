// Package apperrors defines the error taxonomy shared by all services.
//
// Validation, Forbidden, NotFound and Conflict errors are surfaced to the
// caller and never retried internally. External errors mean the store or a
// downstream service misbehaved; they are fatal for the current operation.
package apperrors

import "fmt"

// ValidationError reports malformed or out-of-range input (amount bounds,
// rate bounds, phone format, past due date).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ForbiddenError reports that the caller is not allowed to perform a
// mutating operation (typically: not the lender).
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string { return e.Msg }

// Forbiddenf builds a ForbiddenError from a format string.
func Forbiddenf(format string, args ...any) *ForbiddenError {
	return &ForbiddenError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a referenced debt or identity does not exist.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// NotFoundf builds a NotFoundError from a format string.
func NotFoundf(format string, args ...any) *NotFoundError {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError reports a uniqueness conflict that remained unresolved after
// the one permitted retry. User-facing as "this contact detail is already in
// use".
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// Conflictf builds a ConflictError from a format string.
func Conflictf(format string, args ...any) *ConflictError {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// ExternalError wraps a failure of the store or another collaborator. The
// original error is kept for logs; callers may retry the whole operation.
type ExternalError struct {
	Msg string
	Err error
}

func (e *ExternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ExternalError) Unwrap() error { return e.Err }

// External wraps err as an ExternalError with a short context message.
func External(msg string, err error) *ExternalError {
	return &ExternalError{Msg: msg, Err: err}
}
