// Package apperr defines the error kinds repositories report to callers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an expected failure. The set is closed.
type Kind int

const (
	// NotFound means a referenced entity does not exist.
	NotFound Kind = iota + 1
	// BadRequest means the input was malformed or duplicates existing data.
	BadRequest
	// Unauthorized means a credential check failed.
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case BadRequest:
		return "bad_request"
	case Unauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Error is an error with a Kind and one or more human-readable messages.
type Error struct {
	Kind     Kind
	Messages []string
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, "; ")
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Messages: []string{fmt.Sprintf(format, args...)}}
}

// Invalid creates a BadRequest error carrying every validation failure.
func Invalid(messages []string) *Error {
	return &Error{Kind: BadRequest, Messages: messages}
}

// NotFoundf is shorthand for New(NotFound, ...).
func NotFoundf(format string, args ...interface{}) *Error {
	return New(NotFound, format, args...)
}

// BadRequestf is shorthand for New(BadRequest, ...).
func BadRequestf(format string, args ...interface{}) *Error {
	return New(BadRequest, format, args...)
}

// Unauthorizedf is shorthand for New(Unauthorized, ...).
func Unauthorizedf(format string, args ...interface{}) *Error {
	return New(Unauthorized, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
// The second result is false for errors that carry no kind.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
