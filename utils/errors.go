package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures surfaced to API callers.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindForbidden
	KindValidation
	KindUnauthorized
	KindConflict
)

// AppError is an outward-facing failure with a stable code and message.
type AppError struct {
	Kind    ErrorKind
	Status  int
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches another *AppError of the same kind, so errors.Is(err, ErrNotFound) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == 0 || t.Code == e.Code)
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound     = &AppError{Kind: KindNotFound}
	ErrForbidden    = &AppError{Kind: KindForbidden}
	ErrValidation   = &AppError{Kind: KindValidation}
	ErrUnauthorized = &AppError{Kind: KindUnauthorized}
	ErrConflict     = &AppError{Kind: KindConflict}
)

// ForbiddenCode is shared by every failed permission check.
const ForbiddenCode = 40301

func NotFound(code int, message string) *AppError {
	return &AppError{Kind: KindNotFound, Status: http.StatusNotFound, Code: code, Message: message}
}

// Forbidden reports a failed permission check.
func Forbidden(message string) *AppError {
	if message == "" {
		message = "no permission"
	}
	return &AppError{Kind: KindForbidden, Status: http.StatusForbidden, Code: ForbiddenCode, Message: message}
}

func Validation(code int, message string) *AppError {
	return &AppError{Kind: KindValidation, Status: http.StatusBadRequest, Code: code, Message: message}
}

func Unauthorized(code int, message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Code: code, Message: message}
}

func Conflict(code int, message string) *AppError {
	return &AppError{Kind: KindConflict, Status: http.StatusConflict, Code: code, Message: message}
}

// Internal wraps err as a 500 with the given code.
func Internal(code int, message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Status: http.StatusInternalServerError, Code: code, Message: message, Err: err}
}

// AsAppError extracts the *AppError in err's chain; anything else becomes a generic 500.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(50000, "internal server error", err)
}
