package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with AppError
	appErr := New(ErrCodeFileNotFound, "file not found: a.pdf", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, appErr)
	assert.Equal(t, originalErr, errors.Unwrap(appErr))
	assert.True(t, errors.Is(appErr, originalErr))
}

func TestAppError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "scope error",
			code:     ErrCodeScopeInvalid,
			message:  "path must be within /data",
			expected: "[ERR_407_SCOPE_INVALID] path must be within /data",
		},
		{
			name:     "file error",
			code:     ErrCodeFileNotFound,
			message:  "a.pdf not found",
			expected: "[ERR_201_FILE_NOT_FOUND] a.pdf not found",
		},
		{
			name:     "render error",
			code:     ErrCodeRenderFailed,
			message:  "could not render page",
			expected: "[ERR_508_RENDER_FAILED] could not render page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestAppError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with same code
	err1 := New(ErrCodeFileNotFound, "file A not found", nil)
	err2 := New(ErrCodeFileNotFound, "file B not found", nil)

	// Then: they match by code
	assert.True(t, errors.Is(err1, err2))
	assert.True(t, errors.Is(err1, ErrNotFound))
}

func TestAppError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err1 := New(ErrCodeFileNotFound, "file not found", nil)
	err2 := New(ErrCodeConfigNotFound, "config not found", nil)

	assert.False(t, errors.Is(err1, err2))
}

func TestAppError_Is_WorksThroughFmtWrapping(t *testing.T) {
	// Given: a scope error wrapped with fmt.Errorf
	wrapped := fmt.Errorf("set scope: %w", ScopeError("outside base", nil))

	// Then: sentinel and code helpers see through the wrapping
	assert.True(t, errors.Is(wrapped, ErrScope))
	assert.Equal(t, ErrCodeScopeInvalid, GetCode(wrapped))
	assert.Equal(t, CategoryValidation, GetCategory(wrapped))
}

func TestAppError_WithDetail_AddsContext(t *testing.T) {
	err := New(ErrCodeFileNotFound, "file not found", nil)

	err = err.WithDetail("path", "reports/q1.pdf")
	err = err.WithDetail("page", "3")

	assert.Equal(t, "reports/q1.pdf", err.Details["path"])
	assert.Equal(t, "3", err.Details["page"])
}

func TestAppError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeFileNotFound, CategoryIO},
		{ErrCodeExtractionFailed, CategoryIO},
		{ErrCodeStoreBusy, CategoryContention},
		{ErrCodeIndexingLocked, CategoryContention},
		{ErrCodeInvalidInput, CategoryValidation},
		{ErrCodeScopeInvalid, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodeRenderFailed, CategoryInternal},
		{"bad", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestAppError_SeverityAndRetryableFromCode(t *testing.T) {
	tests := []struct {
		code          string
		wantSeverity  Severity
		wantRetryable bool
	}{
		{ErrCodeCorruptIndex, SeverityFatal, false},
		{ErrCodeFileNotFound, SeverityError, false},
		{ErrCodeStoreBusy, SeverityWarning, true},
		{ErrCodeIndexingLocked, SeverityWarning, true},
		{ErrCodeStoreFailed, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}

func TestWrap(t *testing.T) {
	// Given: a standard error
	originalErr := errors.New("something went wrong")

	// When: wrapping with a code
	appErr := Wrap(ErrCodeInternal, originalErr)

	// Then: creates proper AppError
	require.NotNil(t, appErr)
	assert.Equal(t, ErrCodeInternal, appErr.Code)
	assert.Equal(t, "something went wrong", appErr.Message)
	assert.Equal(t, originalErr, appErr.Cause)

	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestConstructors_UseTaxonomyCodes(t *testing.T) {
	assert.Equal(t, ErrCodeScopeInvalid, ScopeError("x", nil).Code)
	assert.NotEmpty(t, ScopeError("x", nil).Suggestion)
	assert.Equal(t, ErrCodeExtractionFailed, ExtractionError("x", nil).Code)
	assert.Equal(t, ErrCodeFileCorrupt, CorruptFileError("x", nil).Code)
	assert.Equal(t, ErrCodeStoreFailed, StoreError("x", nil).Code)
	assert.Equal(t, ErrCodeRenderFailed, RenderError("x", nil).Code)
	assert.Equal(t, ErrCodeInvalidInput, ValidationError("x", nil).Code)
	assert.Equal(t, ErrCodeFileNotFound, NotFoundError("x", nil).Code)
}

func TestIsRetryable_And_IsFatal(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", New(ErrCodeStoreBusy, "busy", nil))))

	assert.False(t, IsFatal(nil))
	assert.True(t, IsFatal(New(ErrCodeCorruptIndex, "corrupt", nil)))
}
