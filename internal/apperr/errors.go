// Package apperr carries the business error taxonomy shared by services and
// the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound              Kind = "NOT_FOUND"
	KindValidation            Kind = "VALIDATION_ERROR"
	KindConflict              Kind = "CONFLICT"
	KindInsufficientStock     Kind = "INSUFFICIENT_STOCK"
	KindPermission            Kind = "PERMISSION_ERROR"
	KindOverpayment           Kind = "OVERPAYMENT_ERROR"
	KindInvalidRoleTransition Kind = "INVALID_ROLE_TRANSITION"
	KindUnauthenticated       Kind = "UNAUTHENTICATED"
	KindInternal              Kind = "INTERNAL"
)

// Error is a classified failure. Message is safe to show to API clients,
// Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

func InsufficientStock(format string, args ...interface{}) *Error {
	return newf(KindInsufficientStock, format, args...)
}

func Permission(format string, args ...interface{}) *Error {
	return newf(KindPermission, format, args...)
}

func Overpayment(format string, args ...interface{}) *Error {
	return newf(KindOverpayment, format, args...)
}

func InvalidRoleTransition(format string, args ...interface{}) *Error {
	return newf(KindInvalidRoleTransition, format, args...)
}

func Unauthenticated(format string, args ...interface{}) *Error {
	return newf(KindUnauthenticated, format, args...)
}

// Wrap attaches a kind and client-facing message to a lower level error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Internal hides err behind a generic message.
func Internal(err error) *Error {
	return Wrap(KindInternal, err, "internal server error")
}

// KindOf reports the kind of err, KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing text for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal server error"
}
