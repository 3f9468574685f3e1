// Package apperr provides typed domain errors shared by usecases and the HTTP layer.
// Usecases return these errors and handlers map them to status codes through HTTPStatus.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation indicates malformed or missing input the caller can fix.
	KindValidation
	// KindReferenceNotFound indicates a natural key that does not resolve to an entity.
	KindReferenceNotFound
	// KindNotFound indicates the addressed resource does not exist.
	KindNotFound
	// KindConflict indicates a unique constraint violation.
	KindConflict
	// KindRateLimit indicates the caller or an upstream is throttled.
	KindRateLimit
	// KindUpstream indicates a third-party gateway or storage failure.
	KindUpstream
	// KindPersistence indicates an unexpected database failure.
	KindPersistence
	KindUnauthorized
	KindForbidden
)

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Value   string // original input that caused the error, for diagnostics
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Value != "" {
		msg = fmt.Sprintf("%s (%q)", msg, e.Value)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindReferenceNotFound, KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindUpstream:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WithOp sets the operation that failed.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a caller-fixable input error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// InvalidValue creates a validation error that echoes the offending input.
func InvalidValue(message, value string) *Error {
	return &Error{Kind: KindValidation, Message: message, Value: value}
}

// ReferenceNotFound creates an error for a natural key that did not resolve.
func ReferenceNotFound(message, value string) *Error {
	return &Error{Kind: KindReferenceNotFound, Message: message, Value: value}
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

func RateLimit(message string) *Error {
	return New(KindRateLimit, message)
}

func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, message, err)
}

func Persistence(message string, err error) *Error {
	return Wrap(KindPersistence, message, err)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// GetKind extracts the error kind anywhere in the chain.
// Returns KindUnknown if no *Error is found.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err carries the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
