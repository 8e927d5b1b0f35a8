package cli

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gameforge/internal/gamespec"
	"github.com/roach88/gameforge/internal/orchestrator"
	"github.com/roach88/gameforge/internal/validator"
)

func TestPipelineDetailsStageAndFieldErrors(t *testing.T) {
	err := &orchestrator.PipelineError{
		Stage: "constraints",
		Err: gamespec.FieldErrors{
			{Field: "platform", Message: `invalid value "ios"`, Code: gamespec.ErrInvalidEnumValue},
		},
	}

	details := pipelineDetails(err)
	require.Len(t, details, 2)
	assert.Equal(t, "stage", details[0].Field)
	assert.Equal(t, "constraints", details[0].Message)
	assert.Equal(t, "platform", details[1].Field)
	assert.Equal(t, gamespec.ErrInvalidEnumValue, details[1].Code)
}

func TestPipelineDetailsValidationFailure(t *testing.T) {
	err := &orchestrator.PipelineError{
		Stage: "validate",
		Err:   &orchestrator.ValidationFailedError{FailedAt: validator.StateAnalyzing},
	}

	details := pipelineDetails(err)
	require.Len(t, details, 2)
	assert.Equal(t, "stage", details[0].Field)
	assert.Equal(t, "validate", details[0].Message)
	assert.Equal(t, "failed_at", details[1].Field)
	assert.Equal(t, string(validator.StateAnalyzing), details[1].Message)
}

func TestPipelineDetailsFallsBackToMessage(t *testing.T) {
	details := pipelineDetails(fmt.Errorf("runs dir unwritable"))
	require.Len(t, details, 1)
	assert.Empty(t, details[0].Field)
	assert.Equal(t, "runs dir unwritable", details[0].Message)
}
