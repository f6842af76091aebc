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

// Error taxonomy. The extraction and LLM errors are always document-local:
// they are folded into a negative per-document result and never unwind past
// the pipeline's per-document step. Only ErrPersistence is batch-fatal.
var (
	// extraction stage
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrDecode          = errors.New("image decode failed")
	ErrPDFParse        = errors.New("pdf parse failed")

	// LLM call stage
	ErrMalformedResponse = errors.New("malformed llm response")
	ErrTransport         = errors.New("llm transport failed")

	// store stage
	ErrPersistence = errors.New("persistence failed")

	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
)

// NewAppError builds an AppError with a stable code for logs.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
