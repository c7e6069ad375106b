package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with AppError
	appErr := New(ErrCodeCorruptIndex, "search index unreadable", originalErr)

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
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "storage error",
			code:     ErrCodeStoreLocked,
			message:  "catalog locked by another process",
			expected: "[ERR_201_STORE_LOCKED] catalog locked by another process",
		},
		{
			name:     "network error",
			code:     ErrCodeNetworkTimeout,
			message:  "request timed out",
			expected: "[ERR_301_NETWORK_TIMEOUT] request timed out",
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
	err1 := New(ErrCodeCorruptIndex, "index A corrupt", nil)
	err2 := New(ErrCodeCorruptIndex, "index B corrupt", nil)

	// Then: they match by code
	assert.True(t, errors.Is(err1, err2))
}

func TestAppError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	// Given: two errors with different codes
	err1 := New(ErrCodeCorruptIndex, "index corrupt", nil)
	err2 := New(ErrCodeConfigNotFound, "config not found", nil)

	// Then: they don't match
	assert.False(t, errors.Is(err1, err2))
}

func TestAppError_WithDetail_AddsContext(t *testing.T) {
	// Given: a base error
	err := New(ErrCodeInvalidDocument, "document rejected", nil)

	// When: adding details
	err = err.WithDetail("url", "https://www.gov.uk/guidance/api-standards")
	err = err.WithDetail("rule", "content_too_short")

	// Then: details are available
	assert.Equal(t, "https://www.gov.uk/guidance/api-standards", err.Details["url"])
	assert.Equal(t, "content_too_short", err.Details["rule"])
}

func TestAppError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeStoreLocked, CategoryStorage},
		{ErrCodeCorruptIndex, CategoryStorage},
		{ErrCodeNetworkTimeout, CategoryNetwork},
		{ErrCodeEmbedderUnavailable, CategoryNetwork},
		{ErrCodeInvalidInput, CategoryValidation},
		{ErrCodeDimensionMismatch, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodeEmbeddingFailed, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestAppError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeStoreDamaged, SeverityFatal},
		{ErrCodeStoreLocked, SeverityFatal},
		{ErrCodeCorruptIndex, SeverityError}, // Recoverable by rebuild
		{ErrCodeNetworkTimeout, SeverityWarning},
		{ErrCodeEmbedderUnavailable, SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestAppError_RetryableFromCode(t *testing.T) {
	tests := []struct {
		code          string
		wantRetryable bool
	}{
		{ErrCodeNetworkTimeout, true},
		{ErrCodeEmbedderUnavailable, true},
		{ErrCodeStoreLocked, false},
		{ErrCodeConfigInvalid, false},
		{ErrCodeCorruptIndex, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}

func TestWrap_CreatesAppErrorFromError(t *testing.T) {
	// Given: a standard error
	originalErr := errors.New("something went wrong")

	// When: wrapping with a code
	appErr := Wrap(ErrCodeInternal, originalErr)

	// Then: creates proper AppError
	require.NotNil(t, appErr)
	assert.Equal(t, ErrCodeInternal, appErr.Code)
	assert.Equal(t, "something went wrong", appErr.Message)
	assert.Equal(t, originalErr, appErr.Cause)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

