// Package apperr defines the typed error used across every layer of the
// route editing core, carrying enough information for the HTTP facade to
// pick a status code without re-inspecting the underlying cause.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed. See the error-handling table in
// SPEC_FULL.md §7 for the HTTP status each kind maps to.
type Kind int

const (
	Authentication Kind = iota
	Authorization
	Validation
	InvalidOperation
	ResourceNotFound
	Domain
	Database
	External
)

func (k Kind) String() string {
	switch k {
	case Authentication:
		return "Authentication"
	case Authorization:
		return "Authorization"
	case Validation:
		return "Validation"
	case InvalidOperation:
		return "InvalidOperation"
	case ResourceNotFound:
		return "ResourceNotFound"
	case Domain:
		return "Domain"
	case Database:
		return "Database"
	case External:
		return "External"
	default:
		return "Unknown"
	}
}

// Error is the error type every layer returns. cause is optional.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Kind == kind
}

// KindOf extracts the Kind of err, defaulting to Domain when err is not
// (and does not wrap) an *Error — i.e. an unexpected failure we didn't
// anticipate and classify ourselves.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Domain
}
