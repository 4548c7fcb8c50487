package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes
const (
	CodeConfig       = "CONFIG_ERROR"
	CodeDocumentRead = "DOCUMENT_READ"
	CodeSinkWrite    = "SINK_WRITE"
)

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrDocumentRead = errors.New("document read failed")
	ErrSinkWrite    = errors.New("sink write failed")
	ErrTimeout      = errors.New("document timed out")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewDocumentReadError marks err as a per-document read failure.
// errors.Is matches both ErrDocumentRead and err.
func NewDocumentReadError(path string, err error) *AppError {
	return NewAppError(CodeDocumentRead, path, fmt.Errorf("%w: %w", ErrDocumentRead, err))
}

// NewSinkWriteError marks err as fatal for the batch.
func NewSinkWriteError(message string, err error) *AppError {
	if err == nil {
		return NewAppError(CodeSinkWrite, message, ErrSinkWrite)
	}
	return NewAppError(CodeSinkWrite, message, fmt.Errorf("%w: %w", ErrSinkWrite, err))
}

// IsSinkWrite reports whether err aborts a batch.
func IsSinkWrite(err error) bool {
	return errors.Is(err, ErrSinkWrite)
}
