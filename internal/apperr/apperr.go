// Package apperr defines the closed set of error kinds produced by the
// enrichment core. Adapters and stages attach a Kind to every failure and the
// HTTP layer maps kinds to status codes, never message text.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the zero value; treated as internal.
	KindUnknown Kind = iota
	// KindValidation indicates malformed domain or email input.
	KindValidation
	// KindTimeout indicates a stage or the whole request exceeded its budget.
	KindTimeout
	// KindEmpty indicates a provider call succeeded but produced nothing usable.
	KindEmpty
	// KindUnavailable indicates a provider is not configured.
	KindUnavailable
	// KindExhausted indicates every stage failed or returned empty.
	KindExhausted
	// KindParse indicates malformed provider or model output.
	KindParse
	// KindInternal indicates an unexpected failure.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTimeout:
		return "timeout"
	case KindEmpty:
		return "empty"
	case KindUnavailable:
		return "unavailable"
	case KindExhausted:
		return "exhausted"
	case KindParse:
		return "parse"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a typed error carrying a Kind.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind to a response status. Exhausted and timeout
// results are reported as "no data" (404) rather than server errors.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindExhausted, KindTimeout, KindEmpty:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates an error of the given kind wrapping err.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation creates a validation error.
func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// Unavailable creates an error for an unconfigured provider.
func Unavailable(op, provider string) *Error {
	return New(KindUnavailable, op, provider+" is not configured")
}

// Empty creates an error for a provider that returned nothing usable.
func Empty(op string) *Error {
	return New(KindEmpty, op, "no usable results")
}

// Parse wraps a decoding failure.
func Parse(op string, err error) *Error {
	return Wrap(KindParse, op, err)
}

// KindOf returns the kind of the first *Error in err's chain. Context
// deadline errors are reported as timeouts; anything else is internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.HTTPStatus()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
