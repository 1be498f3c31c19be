package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an application error so the HTTP layer can choose a status code.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindNotFound       ErrorKind = "not_found"
	KindState          ErrorKind = "state"
	KindCapacity       ErrorKind = "capacity"
	KindConflict       ErrorKind = "conflict"
	KindInternal       ErrorKind = "internal"
)

// Error is the typed error returned across service boundaries.
type Error struct {
	Kind    ErrorKind
	Message string
	// Remaining is set on capacity errors to the tickets still available.
	Remaining *int
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common errors used throughout the application
var (
	ErrEventNotFound      = &Error{Kind: KindNotFound, Message: "event not found"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "user not found"}
	ErrBookingNotFound    = &Error{Kind: KindNotFound, Message: "booking not found"}
	ErrUnauthenticated    = &Error{Kind: KindAuthentication, Message: "authentication required"}
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Message: "invalid email or password"}
	ErrInvalidToken       = &Error{Kind: KindAuthentication, Message: "invalid or expired token"}
	ErrEmailTaken         = &Error{Kind: KindConflict, Message: "email is already registered"}
)

func NewValidationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewAuthorizationError(reason string) *Error {
	return &Error{Kind: KindAuthorization, Message: reason}
}

func NewStateError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// NewCapacityError reports that a booking asked for more tickets than remain.
func NewCapacityError(remaining int) *Error {
	return &Error{
		Kind:      KindCapacity,
		Message:   fmt.Sprintf("not enough tickets available: %d remaining", remaining),
		Remaining: &remaining,
	}
}

// KindOf returns the kind of err, or KindInternal for errors outside the taxonomy.
func KindOf(err error) ErrorKind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
