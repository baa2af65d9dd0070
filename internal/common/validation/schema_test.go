package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-workers/pkg/registry"
)

func createRegistry() *registry.ActivityRegistry {
	return &registry.ActivityRegistry{
		Activities: []registry.Activity{
			{
				ID:       "select-report-template",
				TaskType: "report.select-template",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"trade"},
					"properties": map[string]interface{}{
						"trade":  map[string]interface{}{"type": "string", "minLength": 1},
						"tenant": map[string]interface{}{"type": "string"},
					},
				},
			},
			{ID: "no-schema", TaskType: "report.no-schema"},
		},
	}
}

func TestValidator_ValidateInput(t *testing.T) {
	v, err := NewValidator(createRegistry())
	require.NoError(t, err)

	tests := []struct {
		name     string
		taskType string
		input    interface{}
		valid    bool
		code     string
	}{
		{"valid input", "report.select-template", map[string]interface{}{"trade": "welding"}, true, ""},
		{"missing required", "report.select-template", map[string]interface{}{"tenant": "acme"}, false, "REQUIRED_FIELD_MISSING"},
		{"wrong type", "report.select-template", map[string]interface{}{"trade": 7}, false, "INVALID_TYPE"},
		{"empty string", "report.select-template", map[string]interface{}{"trade": ""}, false, "INVALID_LENGTH"},
		{"activity without schema", "report.no-schema", map[string]interface{}{}, true, ""},
		{"unknown task type", "report.unknown", "anything", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateInput(tt.taskType, tt.input)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.valid {
				assert.NoError(t, res.Err())
				return
			}
			require.NotEmpty(t, res.Errors)
			assert.Equal(t, tt.code, res.Errors[0].Code)
			assert.ErrorIs(t, res.Err(), ErrInvalidInput)
		})
	}
}

func TestNewValidator_BadSchema(t *testing.T) {
	reg := &registry.ActivityRegistry{Activities: []registry.Activity{{
		ID:          "broken",
		TaskType:    "report.broken",
		InputSchema: map[string]interface{}{"type": 12},
	}}}

	_, err := NewValidator(reg)
	assert.Error(t, err)
}

func TestValidateAgainst(t *testing.T) {
	schema := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"text"},
	}

	assert.True(t, ValidateAgainst(schema, map[string]interface{}{"text": "ok"}).Valid)

	res := ValidateAgainst(schema, map[string]interface{}{})
	assert.False(t, res.Valid)
	assert.Contains(t, res.Err().Error(), "text")
}
