package errors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	// Verify all expected error codes exist
	codes := []string{
		ErrValidation,
		ErrRequest,
		ErrConflict,
		ErrConfig,
		ErrExport,
	}

	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
	}

	// Verify codes are unique
	seen := make(map[string]bool)
	for _, code := range codes {
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "request error",
			code:       ErrRequest,
			message:    "Cannot reach the admin API",
			suggestion: "Check the server URL in .mqdash.yaml",
		},
		{
			name:       "conflict error",
			code:       ErrConflict,
			message:    "Cannot delete the last admin user",
			suggestion: "Promote another user to admin first",
		},
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid configuration in .mqdash.yaml",
			suggestion: "Check your configuration file syntax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestNewValidation(t *testing.T) {
	err := NewValidation("username", "Username is required")

	require.NotNil(t, err)
	assert.Equal(t, ErrValidation, err.Code)
	assert.Equal(t, "username", err.Field)
	assert.Empty(t, err.Suggestion)
	assert.Equal(t, "username", FieldOf(err))
}

func TestFieldOf(t *testing.T) {
	assert.Empty(t, FieldOf(nil))
	assert.Empty(t, FieldOf(errors.New("plain")))
	assert.Empty(t, FieldOf(New(ErrRequest, "boom", "")))
	assert.Equal(t, "password", FieldOf(NewValidation("password", "Password is required")))

	// Field survives wrapping
	wrapped := WrapWithCode(NewValidation("email", "bad email"), ErrRequest, "outer", "")
	assert.Equal(t, "email", FieldOf(wrapped))
}

func TestErrorFormat(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapWithCode(cause, ErrRequest,
		"Failed to fetch connections",
		"Check the server is running")

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "✗ Failed to fetch connections"))
	assert.Contains(t, msg, "connection refused")
	assert.Contains(t, msg, "Check the server is running")
}

func TestWrapDefaultsToRequest(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(cause, "Request timed out")

	assert.Equal(t, ErrRequest, err.Code)
	assert.Equal(t, cause, err.Cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     string
		expected bool
	}{
		{"nil error", nil, ErrRequest, false},
		{"plain error", errors.New("plain"), ErrRequest, false},
		{"matching code", New(ErrConflict, "m", "s"), ErrConflict, true},
		{"mismatched code", New(ErrConflict, "m", "s"), ErrRequest, false},
		{"wrapped match", Wrap(New(ErrValidation, "m", ""), "outer"), ErrRequest, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCode(tt.err, tt.code))
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(cause, "wrapper")

	var structured *Error
	require.True(t, errors.As(err, &structured))
	assert.Equal(t, cause, errors.Unwrap(structured))
}
