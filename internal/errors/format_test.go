package errors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForCLI_IncludesMessageAndCode(t *testing.T) {
	// Given: an index error
	err := New(ErrCodeCorruptIndex, "index is corrupted", nil)

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: contains error info
	assert.Contains(t, result, "index is corrupted")
	assert.Contains(t, result, "ERR_203_CORRUPT_INDEX")
}

func TestFormatForCLI_ShortFormat(t *testing.T) {
	// Given: a simple error
	err := New(ErrCodeNotFound, "standard not found", nil)

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: is concise
	lines := strings.Split(strings.TrimSpace(result), "\n")
	assert.LessOrEqual(t, len(lines), 5, "Should be concise")
}

func TestFormatForCLI_NilError(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatForLog_AppError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := New(ErrCodeEmbedderUnavailable, "embedding host unreachable", cause).
		WithDetail("host", "http://localhost:11434")

	attrs := FormatForLog(err)

	assert.Equal(t, ErrCodeEmbedderUnavailable, attrs["error_code"])
	assert.Equal(t, "embedding host unreachable", attrs["message"])
	assert.Equal(t, string(CategoryNetwork), attrs["category"])
	assert.Equal(t, true, attrs["retryable"])
	assert.Equal(t, "dial tcp: connection refused", attrs["cause"])
	assert.Equal(t, "http://localhost:11434", attrs["detail_host"])
}

func TestFormatForLog_StandardError(t *testing.T) {
	attrs := FormatForLog(errors.New("plain failure"))
	assert.Equal(t, map[string]any{"error": "plain failure"}, attrs)
}

func TestFormatForLog_NilError(t *testing.T) {
	assert.Nil(t, FormatForLog(nil))
}
