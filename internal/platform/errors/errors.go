// Package errors provides coded application errors shared by every layer of
// the scenario service.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies an AppError.
type ErrorCode string

const (
	ErrCodeUnknownScenario       ErrorCode = "UNKNOWN_SCENARIO"
	ErrCodeUnimplementedScenario ErrorCode = "UNIMPLEMENTED_SCENARIO"
	ErrCodeValidation            ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrCodeConflict              ErrorCode = "CONFLICT"
	ErrCodeDatabase              ErrorCode = "DATABASE_ERROR"
	ErrCodeIntegrity             ErrorCode = "INTEGRITY_ERROR"
	ErrCodeInternal              ErrorCode = "INTERNAL"
)

// AppError is an error carrying a code and a caller-facing message.
type AppError struct {
	Code    ErrorCode
	Message string
	Field   string
	Err     error
}

// Error returns the message, followed by the wrapped error text if any.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps err with a code and message. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// NotFound reports a referenced row that does not exist.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s을(를) 찾을 수 없습니다: %s", resource, id),
	}
}

// InvalidInput reports a parameter that failed validation.
func InvalidInput(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("%s: %s", field, message),
		Field:   field,
	}
}

// CodeOf returns the code of the outermost AppError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// Is and As re-export the standard library helpers so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
