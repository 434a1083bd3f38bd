// Package apperrors defines the error taxonomy surfaced at the HTTP boundary.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an error for status-code mapping.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindInvalidStatement Kind = "invalid_statement"
	KindProcessing       Kind = "processing"
	KindInternal         Kind = "internal"
)

// Error is the base error type for all application errors.
type Error struct {
	Kind    Kind
	Message string
	// Reason is a human-readable explanation safe to show to the caller.
	Reason  string
	Details map[string]string
	Cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Cause != nil && e.Reason != "":
		return fmt.Sprintf("%s: %s: %v", e.Message, e.Reason, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", e.Message, e.Reason)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error kind to a response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindInvalidStatement:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether Message and Reason may be returned to the client.
func (e *Error) Public() bool {
	return e.HTTPStatus() < http.StatusInternalServerError
}

// WithDetail attaches a field-level detail.
func (e *Error) WithDetail(field, msg string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[field] = msg
	return e
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(msg string) *Error   { return newError(KindValidation, msg) }
func Unauthorized(msg string) *Error { return newError(KindUnauthorized, msg) }
func Forbidden(msg string) *Error    { return newError(KindForbidden, msg) }
func NotFound(msg string) *Error     { return newError(KindNotFound, msg) }
func Conflict(msg string) *Error     { return newError(KindConflict, msg) }

// InvalidStatement reports that the extraction model rejected the document.
func InvalidStatement(reason string) *Error {
	return &Error{Kind: KindInvalidStatement, Message: "Invalid statement", Reason: reason}
}

// Processing wraps a failure during statement processing. The cause keeps a
// stack trace for the server log and is never sent to the client.
func Processing(cause error) *Error {
	return &Error{Kind: KindProcessing, Message: "Failed to process statement", Cause: withStack(cause)}
}

// Internal wraps an unexpected failure with a client-safe message.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: withStack(cause)}
}

func withStack(err error) error {
	if err == nil {
		return nil
	}
	type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
	var st stackTracer
	if errors.As(err, &st) {
		return err
	}
	return pkgerrors.WithStack(err)
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
