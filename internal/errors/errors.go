// Package errors provides a lightweight structured error type (StackError)
// for category-based classification across the lifecycle, config, and
// scaffolding layers. The CLI maps categories to process exit codes.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a stackctl error for classification
type ErrorCategory string

const (
	// User-facing input and configuration errors
	CategoryValidation ErrorCategory = "validation"
	CategoryConfig     ErrorCategory = "config"

	// Entity resolution errors
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryAlreadyExists ErrorCategory = "already_exists"

	// Operational errors
	CategoryLifecycle      ErrorCategory = "lifecycle"
	CategoryInitialization ErrorCategory = "initialization"
	CategoryRuntime        ErrorCategory = "runtime"
	CategoryFilesystem     ErrorCategory = "filesystem"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// StackError is a structured error with category, severity, and context
type StackError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for StackError
type ContextFields map[string]any

// Error implements the error interface
func (e *StackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *StackError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *StackError) WithContext(key string, value any) *StackError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new StackError
func New(category ErrorCategory, severity ErrorSeverity, message string) *StackError {
	return &StackError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new StackError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *StackError {
	return &StackError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapRetryable creates a new retryable StackError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *StackError {
	return &StackError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if se, ok := err.(*StackError); ok {
		return se.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if se, ok := err.(*StackError); ok {
		return se.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a StackError
func GetCategory(err error) ErrorCategory {
	if se, ok := err.(*StackError); ok {
		return se.Category
	}
	return CategoryInternal
}
