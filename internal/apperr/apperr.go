// Package apperr defines the error taxonomy shared by every layer.
// Each error carries a stable code; codes group into four kinds that
// handlers map onto HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the coarse failure class.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindDependency Kind = "dependency"
)

// Code is the stable, user-visible error identifier.
type Code string

const (
	CodeInvalidInput          Code = "invalid_input"
	CodeEventNotFound         Code = "event_not_found"
	CodeRegistrationNotFound  Code = "registration_not_found"
	CodeUserNotFound          Code = "user_not_found"
	CodeNotificationNotFound  Code = "notification_not_found"
	CodeDuplicateRegistration Code = "duplicate_registration"
	CodeCapacityExceeded      Code = "capacity_exceeded"
	CodeInvalidTransition     Code = "invalid_transition"
	CodeDependencyFailure     Code = "dependency_failure"
)

// Kind returns the failure class a code belongs to.
func (c Code) Kind() Kind {
	switch c {
	case CodeInvalidInput:
		return KindValidation
	case CodeEventNotFound, CodeRegistrationNotFound, CodeUserNotFound, CodeNotificationNotFound:
		return KindNotFound
	case CodeDuplicateRegistration, CodeCapacityExceeded, CodeInvalidTransition:
		return KindConflict
	default:
		return KindDependency
	}
}

// Error is a coded application error.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error with a human-readable message.
func New(code Code, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Msg: msg, Err: err}
}

// CodeOf extracts the code from err, or CodeDependencyFailure for
// errors that did not originate in this taxonomy.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeDependencyFailure
}

// KindOf extracts the failure class from err.
func KindOf(err error) Kind {
	return CodeOf(err).Kind()
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
