// Package apperror provides a structured way to handle application errors
// with specific codes, severity levels, and additional details. It also
// maps errors onto process exit codes for the command-line drivers.
package apperror

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Validation
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeInvalidSource   ErrorCode = "INVALID_SOURCE"
	CodeNilInput        ErrorCode = "NIL_INPUT"

	// Resources
	CodeOutOfMemory ErrorCode = "OUT_OF_MEMORY"

	// Execution
	CodeCanceled ErrorCode = "CANCELED"
	CodeTimeout  ErrorCode = "TIMEOUT"

	// General
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Severity defines the criticality level of an error.
type Severity int

const (
	// SeverityWarning indicates a non-critical issue that can be ignored or automatically resolved.
	SeverityWarning Severity = iota
	// SeverityError indicates a standard error that requires attention.
	SeverityError
	// SeverityCritical indicates an unrecoverable error; the process must not continue.
	SeverityCritical
)

// String returns the string representation of the Severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Error is a custom error type that includes an ErrorCode, message,
// an optional field, additional details, an underlying cause, and a severity level.
type Error struct {
	Code     ErrorCode      // Code is a unique identifier for the type of error.
	Message  string         // Message is a human-readable description of the error.
	Field    string         // Field indicates which input field caused the error, if applicable.
	Details  map[string]any // Details provides additional structured information about the error.
	Cause    error          // Cause is the underlying error that triggered this application error.
	Severity Severity       // Severity indicates the criticality level of the error.
}

// Error implements the error interface, returning a string representation of the error.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, allowing for error chain introspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode maps the error onto a process exit status.
//
//	2 - invalid input (bad vertex count, seed, limits or source)
//	3 - storage could not be obtained
//	4 - the run was canceled or timed out
//	1 - anything else
func (e *Error) ExitCode() int {
	switch e.Code {
	case CodeInvalidArgument, CodeInvalidSource, CodeNilInput:
		return 2
	case CodeOutOfMemory:
		return 3
	case CodeCanceled, CodeTimeout:
		return 4
	default:
		return 1
	}
}

// New creates a new application error with the given code and message.
// The default severity is SeverityError.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// NewWithField creates a new application error with the given code, message, and field.
// The default severity is SeverityError.
func NewWithField(code ErrorCode, message, field string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Field:    field,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// NewCritical creates a new application error with SeverityCritical.
func NewCritical(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Details:  make(map[string]any),
		Severity: SeverityCritical,
	}
}

// Wrap creates a new application error that wraps an existing error,
// providing additional context with a code and message.
// The default severity is SeverityError.
func Wrap(cause error, code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Cause:    cause,
		Details:  make(map[string]any),
		Severity: SeverityError,
	}
}

// FromContext converts a context error into CodeCanceled or CodeTimeout.
// It returns nil when err is nil.
func FromContext(err error, message string) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, CodeTimeout, message)
	}
	return Wrap(err, CodeCanceled, message)
}

// WithDetails adds a key-value pair to the error's details map and returns the modified error.
func (e *Error) WithDetails(key string, value any) *Error {
	e.Details[key] = value
	return e
}

// WithField sets the field associated with the error and returns the modified error.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithSeverity sets the severity level of the error and returns the modified error.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// Is checks if the given error is an application error with a matching ErrorCode.
// It uses errors.As to unwrap the error chain.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from an error. If the error is not an *Error,
// it returns CodeInternal.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// ExitCode returns the process exit status for err: 0 for nil, the mapped
// status for an *Error, and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	return 1
}

// IsCritical checks if the given error is an application error with SeverityCritical.
func IsCritical(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Severity == SeverityCritical
	}
	return false
}

// ValidationErrors is a collection of application errors,
// typically used for aggregating results of multiple validation checks.
type ValidationErrors struct {
	Errors []*Error // Errors contains all collected errors.
}

// NewValidationErrors creates and returns a new empty ValidationErrors collection.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*Error, 0),
	}
}

// AddErrorWithField creates and adds a new application error with a specific field.
func (v *ValidationErrors) AddErrorWithField(code ErrorCode, message, field string) {
	v.Errors = append(v.Errors, NewWithField(code, message, field))
}

// HasErrors returns true if the collection contains any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Err returns nil when the collection is empty, the single error when there
// is one, and an aggregated CodeInvalidArgument error otherwise.
func (v *ValidationErrors) Err() error {
	switch len(v.Errors) {
	case 0:
		return nil
	case 1:
		return v.Errors[0]
	}
	agg := New(CodeInvalidArgument, "multiple validation errors")
	agg.Cause = errors.Join(v.errs()...)
	agg.WithDetails("count", len(v.Errors))
	return agg
}

func (v *ValidationErrors) errs() []error {
	out := make([]error, len(v.Errors))
	for i, e := range v.Errors {
		out[i] = e
	}
	return out
}

// ErrorMessages returns a slice of string messages for all collected errors.
func (v *ValidationErrors) ErrorMessages() []string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Error()
	}
	return messages
}
