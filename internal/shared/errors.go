package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failure for the response envelope.
type ErrorKind int

const (
	// KindUpstream indicates a repository or collaborator failure.
	KindUpstream ErrorKind = iota
	// KindValidation indicates malformed or missing input.
	KindValidation
	// KindUnauthenticated indicates a missing, invalid or expired credential.
	KindUnauthenticated
	// KindForbidden indicates a valid credential with insufficient role or ownership.
	KindForbidden
	// KindNotFound indicates a scoped lookup that matched nothing.
	KindNotFound
	// KindConflict indicates a uniqueness or state conflict.
	KindConflict
)

// Error is the failure type carried from services up to handlers.
// Message is safe to show to callers; Err holds internal detail and is
// never serialised into a response.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
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

// ValidationError builds a 400-class error.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated builds a 401-class error.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden builds a 403-class error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound builds a 404-class error for the named resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Conflict builds a 409-class error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Upstream wraps a repository or collaborator failure.
func Upstream(err error) *Error {
	return &Error{Kind: KindUpstream, Message: "internal error", Err: err}
}

// AsError extracts an *Error from err, wrapping unknown failures as upstream.
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Upstream(err)
}

// ErrInvalidCredentials is the single login failure reported to callers,
// covering unknown email, bad password and deactivated accounts alike.
var ErrInvalidCredentials = Unauthenticated("invalid credentials")
