package app

import (
	"fmt"
)

// ErrorType represents different types of startup errors
type ErrorType int

const (
	ErrorConfig ErrorType = iota
	ErrorSerial
	ErrorScreen
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	types := []string{"config", "serial", "screen"}

	if int(e) >= 0 && int(e) < len(types) {
		return types[e]
	}
	return "unknown"
}

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Type.String(), e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}
