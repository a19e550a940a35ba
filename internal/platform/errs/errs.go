// Package errs is the error taxonomy shared by services and the HTTP boundary.
// Services return *Error values (usually package-level sentinels); anything
// unclassified, such as a storage failure, is treated as Internal.
package errs

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the request boundary.
type Kind uint8

const (
	// Internal covers storage failures and unexpected errors. Detail is never sent to callers.
	Internal Kind = iota
	// InvalidArgument is a malformed or missing required field.
	InvalidArgument
	// Unauthorized is a missing, invalid, or mismatched credential.
	Unauthorized
	// NotFound is a missing identity or conversation.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a classified error. Message is safe to return to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New returns a classified error with a caller-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err, keeping it reachable through errors.Unwrap.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the caller-safe message for err. Internal errors never expose detail.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps err's kind to an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
