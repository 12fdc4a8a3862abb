package service

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers
const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidState        = "INVALID_STATE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeInternal            = "INTERNAL"
)

// AppError service-level error carrying a stable code
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, so errors.Is(err, ErrInvalidState) works
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotFound            = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrValidation          = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrInvalidState        = &AppError{Code: CodeInvalidState, Message: "invalid state"}
	ErrConcurrencyConflict = &AppError{Code: CodeConcurrencyConflict, Message: "concurrent update, please retry"}
	ErrInternal            = &AppError{Code: CodeInternal, Message: "internal error"}
)

func newError(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func notFound(format string, args ...interface{}) *AppError {
	return newError(CodeNotFound, fmt.Sprintf(format, args...), nil)
}

func validation(format string, args ...interface{}) *AppError {
	return newError(CodeValidation, fmt.Sprintf(format, args...), nil)
}

func invalidState(format string, args ...interface{}) *AppError {
	return newError(CodeInvalidState, fmt.Sprintf(format, args...), nil)
}

func internal(message string, err error) *AppError {
	return newError(CodeInternal, message, err)
}

// ErrorCode code of err, CodeInternal for errors that are not an AppError
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
