// Package errors provides structured error types for fuzzylink.
// Errors include context, causes, and actionable suggestions.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryConfig    Category = "config"    // Configuration loading/parsing errors
	CategoryInput     Category = "input"     // Malformed moves, embeddings or link matrices
	CategoryNumeric   Category = "numeric"   // Degenerate numeric cases (zero vectors, NaN scores)
	CategoryEmbedding Category = "embedding" // Embedding provider failures
	CategorySession   Category = "session"   // Session file loading/saving errors
	CategoryCommand   Category = "command"   // CLI and shell command errors
	CategoryIO        Category = "io"        // File/IO errors
	CategoryInternal  Category = "internal"  // Internal/unexpected errors
)

// LinkographError is a structured error with context and suggestions.
// It implements the error interface and supports error wrapping.
type LinkographError struct {
	// Code is a unique identifier for this error type (e.g., "EMBEDDING_MISSING")
	Code string

	// Category classifies this error for consistent handling
	Category Category

	// Message is the primary error message describing what went wrong
	Message string

	// Context provides additional key-value details about the error
	Context map[string]string

	// Cause is the underlying error that triggered this error (for wrapping)
	Cause error

	// Suggestions are actionable remediation steps for the user
	Suggestions []string
}

// Error implements the error interface.
func (e *LinkographError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *LinkographError) Unwrap() error {
	return e.Cause
}

// Is reports whether e matches target for errors.Is() checks.
// Two LinkographErrors match if they have the same Code.
func (e *LinkographError) Is(target error) bool {
	if t, ok := target.(*LinkographError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new LinkographError with the given code, category, and message.
func New(code string, category Category, message string) *LinkographError {
	return &LinkographError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *LinkographError) WithContext(key, value string) *LinkographError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithContextf adds a context entry whose value is formatted with fmt.Sprint rules.
func (e *LinkographError) WithContextf(key string, value any) *LinkographError {
	return e.WithContext(key, fmt.Sprint(value))
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *LinkographError) WithCause(cause error) *LinkographError {
	e.Cause = cause
	return e
}

// WithSuggestion adds a remediation suggestion and returns the error for chaining.
func (e *LinkographError) WithSuggestion(suggestion string) *LinkographError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// HasContext returns true if the error has context information.
func (e *LinkographError) HasContext() bool {
	return len(e.Context) > 0
}

// HasSuggestions returns true if the error has suggestions.
func (e *LinkographError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// ContextString returns the context entries as key="value" pairs, sorted by key.
func (e *LinkographError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
	}
	return strings.Join(parts, ", ")
}

// Wrap wraps an existing error with a LinkographError.
func Wrap(err error, code string, category Category, message string) *LinkographError {
	return New(code, category, message).WithCause(err)
}

// AsLinkographError attempts to convert an error to a LinkographError.
// Wrapped chains are searched, so a LinkographError behind fmt.Errorf("%w") is found.
func AsLinkographError(err error) (*LinkographError, bool) {
	for err != nil {
		if le, ok := err.(*LinkographError); ok {
			return le, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsCategory checks if an error is a LinkographError with the given category.
func IsCategory(err error, category Category) bool {
	if le, ok := AsLinkographError(err); ok {
		return le.Category == category
	}
	return false
}

// IsCode checks if an error is a LinkographError with the given code.
func IsCode(err error, code string) bool {
	if le, ok := AsLinkographError(err); ok {
		return le.Code == code
	}
	return false
}

// -----------------------------------------------------------------------------
// Helper Constructors for Common Error Types
// -----------------------------------------------------------------------------

// ConfigError creates a new configuration error.
func ConfigError(code, message string) *LinkographError {
	return New(code, CategoryConfig, message)
}

// ConfigErrorf creates a new configuration error with formatted message.
func ConfigErrorf(code, format string, args ...any) *LinkographError {
	return New(code, CategoryConfig, fmt.Sprintf(format, args...))
}

// InputError creates a new input shape error.
// Use for missing embeddings, dimension mismatches and malformed link matrices.
func InputError(code, message string) *LinkographError {
	return New(code, CategoryInput, message)
}

// InputErrorf creates a new input error with formatted message.
func InputErrorf(code, format string, args ...any) *LinkographError {
	return New(code, CategoryInput, fmt.Sprintf(format, args...))
}

// NumericError creates a new degenerate-numeric error.
func NumericError(code, message string) *LinkographError {
	return New(code, CategoryNumeric, message)
}

// NumericErrorf creates a new numeric error with formatted message.
func NumericErrorf(code, format string, args ...any) *LinkographError {
	return New(code, CategoryNumeric, fmt.Sprintf(format, args...))
}

// EmbeddingError creates a new embedding provider error.
func EmbeddingError(code, message string) *LinkographError {
	return New(code, CategoryEmbedding, message)
}

// EmbeddingErrorf creates a new embedding error with formatted message.
func EmbeddingErrorf(code, format string, args ...any) *LinkographError {
	return New(code, CategoryEmbedding, fmt.Sprintf(format, args...))
}

// SessionError creates a new session file error.
func SessionError(code, message string) *LinkographError {
	return New(code, CategorySession, message)
}

// SessionErrorf creates a new session error with formatted message.
func SessionErrorf(code, format string, args ...any) *LinkographError {
	return New(code, CategorySession, fmt.Sprintf(format, args...))
}

// CommandError creates a new command error.
func CommandError(code, message string) *LinkographError {
	return New(code, CategoryCommand, message)
}

// CommandErrorf creates a new command error with formatted message.
func CommandErrorf(code, format string, args ...any) *LinkographError {
	return New(code, CategoryCommand, fmt.Sprintf(format, args...))
}

// IOError creates a new file/IO error.
func IOError(code, message string) *LinkographError {
	return New(code, CategoryIO, message)
}

// InternalError creates a new internal/unexpected error.
func InternalError(code, message string) *LinkographError {
	return New(code, CategoryInternal, message)
}

// -----------------------------------------------------------------------------
// Wrapping Helpers for Common Error Types
// -----------------------------------------------------------------------------

// WrapConfig wraps an error as a configuration error.
func WrapConfig(err error, code, message string) *LinkographError {
	return Wrap(err, code, CategoryConfig, message)
}

// WrapEmbedding wraps an error as an embedding provider error.
func WrapEmbedding(err error, code, message string) *LinkographError {
	return Wrap(err, code, CategoryEmbedding, message)
}

// WrapSession wraps an error as a session error.
func WrapSession(err error, code, message string) *LinkographError {
	return Wrap(err, code, CategorySession, message)
}

// WrapIO wraps an error as an IO error.
func WrapIO(err error, code, message string) *LinkographError {
	return Wrap(err, code, CategoryIO, message)
}

// WrapInternal wraps an error as an internal error.
func WrapInternal(err error, code, message string) *LinkographError {
	return Wrap(err, code, CategoryInternal, message)
}
