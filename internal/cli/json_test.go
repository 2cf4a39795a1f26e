package cli

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqdash/mqdash/internal/errors"
)

func TestWriteJSONSuccess(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSONSuccess(&buf, map[string]int{"count": 3})
	require.NoError(t, err)

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	assert.NotNil(t, env.Data)
}

func TestWriteJSONFromError(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSONFromError(&buf, errors.New(errors.ErrConflict,
		"Cannot delete the last admin user",
		"Promote another user to admin first"))
	require.NoError(t, err)

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeConflict, env.Error.Code)
	assert.Equal(t, "Cannot delete the last admin user", env.Error.Message)
	assert.Equal(t, "Promote another user to admin first", env.Error.Suggestion)
}

func TestErrorToJSON_Nil(t *testing.T) {
	assert.Nil(t, ErrorToJSON(nil))
}

func TestErrorToJSON_ValidationCarriesField(t *testing.T) {
	jsonErr := ErrorToJSON(errors.NewValidation("qos", "QoS must be 0, 1, or 2"))
	require.NotNil(t, jsonErr)
	assert.Equal(t, ErrCodeValidationFailed, jsonErr.Code)
	assert.Equal(t, "qos", jsonErr.Field)
}

func TestErrorToJSON_GenericError(t *testing.T) {
	jsonErr := ErrorToJSON(stderrors.New("something broke"))
	require.NotNil(t, jsonErr)
	assert.Equal(t, ErrCodeUnknown, jsonErr.Code)
	assert.Equal(t, "something broke", jsonErr.Message)
}

func TestMapErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{"validation", errors.ErrValidation, "Username is required", ErrCodeValidationFailed},
		{"conflict", errors.ErrConflict, "Cannot delete the last admin user", ErrCodeConflict},
		{"request", errors.ErrRequest, "Request failed", ErrCodeRequestFailed},
		{"config not found", errors.ErrConfig, "Config file not found", ErrCodeConfigNotFound},
		{"config invalid", errors.ErrConfig, "Invalid config format", ErrCodeConfigInvalid},
		{"export", errors.ErrExport, "Failed to write export file", ErrCodeExportFailed},
		{"unknown", "SOMETHING_ELSE", "whatever", ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapErrorCode(tt.code, tt.message))
		})
	}
}
