// Package errors provides a lightweight structured error type (FolioError)
// for category-based classification and retry semantics in the sync loop,
// the read path and the CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a folio error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External collaborators
	CategoryRemote  ErrorCategory = "remote"
	CategoryStorage ErrorCategory = "storage"
	CategoryCache   ErrorCategory = "cache"
	CategoryNotify  ErrorCategory = "notify"

	// Pipeline errors
	CategoryRender     ErrorCategory = "render"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryNotFound   ErrorCategory = "not_found"

	// Runtime and infrastructure errors
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// FolioError is a structured error with category, retryability, and context
type FolioError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for FolioError
type ContextFields map[string]any

// Error implements the error interface
func (e *FolioError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *FolioError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *FolioError) WithContext(key string, value any) *FolioError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new FolioError
func New(category ErrorCategory, severity ErrorSeverity, message string) *FolioError {
	return &FolioError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new FolioError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *FolioError {
	return &FolioError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapRetryable creates a new retryable FolioError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *FolioError {
	return &FolioError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// As returns the outermost FolioError in err's chain.
func As(err error) (*FolioError, bool) {
	var fe *FolioError
	if stderrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsCategory checks if an error (or anything it wraps) belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if fe, ok := As(err); ok {
		return fe.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if fe, ok := As(err); ok {
		return fe.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a FolioError
func GetCategory(err error) ErrorCategory {
	if fe, ok := As(err); ok {
		return fe.Category
	}
	return CategoryInternal
}
