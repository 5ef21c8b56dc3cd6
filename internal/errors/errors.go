package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the structured error type for pdfsearch.
// It carries enough context for logging, CLI output and MCP error mapping.
type AppError struct {
	// Code is the unique error code (e.g., "ERR_407_SCOPE_INVALID").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is derived from the code.
	Category Category

	// Severity is derived from the code.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError by code, so errors.Is works against the
// sentinel values below.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AppError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an AppError from an existing error.
// The error's message becomes the AppError message.
func Wrap(code string, err error) *AppError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is checks. Only the code is compared.
var (
	ErrScope      = &AppError{Code: ErrCodeScopeInvalid}
	ErrNotFound   = &AppError{Code: ErrCodeFileNotFound}
	ErrBadPath    = &AppError{Code: ErrCodeInvalidPath}
	ErrBadQuery   = &AppError{Code: ErrCodeInvalidQuery}
	ErrRender     = &AppError{Code: ErrCodeRenderFailed}
	ErrExtraction = &AppError{Code: ErrCodeExtractionFailed}
)

// ScopeError reports a directory scope that is outside the base directory
// or does not exist.
func ScopeError(message string, cause error) *AppError {
	return New(ErrCodeScopeInvalid, message, cause).
		WithSuggestion("Choose a directory inside the base directory (see 'pdfsearch dirs').")
}

// ExtractionError reports an unreadable PDF or a failed page extraction.
func ExtractionError(message string, cause error) *AppError {
	return New(ErrCodeExtractionFailed, message, cause)
}

// CorruptFileError reports a PDF that could not be opened at all.
func CorruptFileError(message string, cause error) *AppError {
	return New(ErrCodeFileCorrupt, message, cause)
}

// StoreError reports a failed index store operation.
func StoreError(message string, cause error) *AppError {
	return New(ErrCodeStoreFailed, message, cause)
}

// RenderError reports a page that could not be rasterized.
func RenderError(message string, cause error) *AppError {
	return New(ErrCodeRenderFailed, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *AppError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *AppError {
	return New(ErrCodeInvalidInput, message, cause)
}

// NotFoundError reports a missing file.
func NotFoundError(message string, cause error) *AppError {
	return New(ErrCodeFileNotFound, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *AppError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if any AppError in the chain has the Retryable flag set.
func IsRetryable(err error) bool {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first AppError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from the first AppError in the chain.
func GetCategory(err error) Category {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae.Category
	}
	return ""
}
