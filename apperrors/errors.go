package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable, client-visible error category.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindNotFound          Kind = "NOT_FOUND"
	KindForbidden         Kind = "FORBIDDEN"
	KindConflict          Kind = "CONFLICT"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindAlreadyRated      Kind = "ALREADY_RATED"
	KindNotCompleted      Kind = "NOT_COMPLETED"
	KindAlreadyAnswered   Kind = "ALREADY_ANSWERED"
	KindAuth              Kind = "AUTH_ERROR"
	KindInternal          Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindValidation:        http.StatusBadRequest,
	KindNotFound:          http.StatusNotFound,
	KindForbidden:         http.StatusForbidden,
	KindConflict:          http.StatusConflict,
	KindInvalidTransition: http.StatusConflict,
	KindAlreadyRated:      http.StatusConflict,
	KindNotCompleted:      http.StatusConflict,
	KindAlreadyAnswered:   http.StatusConflict,
	KindAuth:              http.StatusUnauthorized,
	KindInternal:          http.StatusInternalServerError,
}

type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status the kind maps to.
func (e *AppError) StatusCode() int {
	if code, ok := statusByKind[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...any) *AppError {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(resource string) *AppError {
	return New(KindNotFound, fmt.Sprintf("%s not found", resource))
}

func Forbidden(message string) *AppError {
	return New(KindForbidden, message)
}

func Conflict(message string) *AppError {
	return New(KindConflict, message)
}

// InvalidTransition reports a state machine violation naming the current state and the event.
func InvalidTransition(state, event string) *AppError {
	return New(KindInvalidTransition, fmt.Sprintf("cannot %s a booking that is %s", event, state))
}

func AlreadyRated(message string) *AppError {
	return New(KindAlreadyRated, message)
}

func NotCompleted(message string) *AppError {
	return New(KindNotCompleted, message)
}

func AlreadyAnswered() *AppError {
	return New(KindAlreadyAnswered, "doubt has already been answered")
}

func Auth(message string) *AppError {
	return New(KindAuth, message)
}

// Internal hides the cause from the client; the cause is kept for logging.
func Internal(err error) *AppError {
	return Wrap(err, KindInternal, "internal server error")
}

// As extracts an AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
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

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
