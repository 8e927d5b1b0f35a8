package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gameforge/internal/gamespec"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"archive": "game.zip"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E201", "invalid constraint value", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "E201", resp.Error.Code)
	assert.Equal(t, "invalid constraint value", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := []ErrorDetail{{Field: "platform", Code: "E201", Message: `invalid value "ios"`}}
	err := formatter.Error("E201", "invalid constraints", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "platform", resp.Error.Details[0].Field)
	assert.Equal(t, "E201", resp.Error.Details[0].Code)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("Archive written to game.zip")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Archive written to game.zip")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("E203", "schema validation failed", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E203]")
	assert.Contains(t, buf.String(), "schema validation failed")
}

func TestOutputFormatter_TextErrorDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	details := []ErrorDetail{
		{Field: "scope", Code: "E201", Message: `invalid value "epic"`},
		{Message: "see gameforge spec --help for valid values"},
	}
	err := formatter.Error("E201", "invalid constraints", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E201]")
	assert.Contains(t, buf.String(), `  - scope: invalid value "epic"`)
	assert.Contains(t, buf.String(), "  - see gameforge spec --help")
}

func TestFieldErrorDetails(t *testing.T) {
	errs := gamespec.FieldErrors{
		{Field: "platform", Message: `invalid value "ios"`, Code: gamespec.ErrInvalidEnumValue},
		{Field: "scope", Message: `invalid value "epic"`, Code: gamespec.ErrInvalidEnumValue},
	}

	details := FieldErrorDetails(errs)
	require.Len(t, details, 2)
	assert.Equal(t, "platform", details[0].Field)
	assert.Equal(t, gamespec.ErrInvalidEnumValue, details[0].Code)
	assert.Equal(t, `invalid value "epic"`, details[1].Message)

	assert.Nil(t, FieldErrorDetails(nil))
}

func TestFieldDetailsUnwrapsWrappedErrors(t *testing.T) {
	errs := gamespec.FieldErrors{{Field: "genre", Message: "unknown genre", Code: gamespec.ErrUnknownGenre}}
	wrapped := fmt.Errorf("resolving constraints: %w", errs)

	details := fieldDetails(wrapped)
	require.Len(t, details, 1)
	assert.Equal(t, "genre", details[0].Field)
	assert.Equal(t, gamespec.ErrUnknownGenre, details[0].Code)
}

func TestFieldDetailsFallsBackToMessage(t *testing.T) {
	details := fieldDetails(fmt.Errorf("disk full"))
	require.Len(t, details, 1)
	assert.Empty(t, details[0].Field)
	assert.Equal(t, "disk full", details[0].Message)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Matching assets from %s", "./art")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Matching assets from ./art")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"genres": 2},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "E202",
		Message: "required field missing",
		Details: []ErrorDetail{{Field: "title", Code: "E202", Message: "required field absent"}},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "E202", decoded.Code)
	assert.Equal(t, "required field missing", decoded.Message)
	require.Len(t, decoded.Details, 1)
	assert.Equal(t, "title", decoded.Details[0].Field)
}
