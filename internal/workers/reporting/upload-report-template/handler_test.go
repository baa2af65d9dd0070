// internal/workers/reporting/upload-report-template/handler_test.go
package uploadreporttemplate

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-workers/internal/common/camunda/camundatest"
	"report-workers/internal/common/errors"
	"report-workers/internal/common/logger"
	"report-workers/internal/common/validation"
	"report-workers/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler(t *testing.T, validator *validation.Validator) (*Handler, string) {
	cfg := DefaultConfig()
	cfg.TemplatesRoot = t.TempDir()
	return NewHandler(cfg, validator, logger.NewTestLogger(t)), cfg.TemplatesRoot
}

func templateBase64(t *testing.T) string {
	t.Helper()
	d := docx.New().WithDefaultTheme()
	d.AddParagraph().AddText("Project: {{PROJECT_NAME}}")
	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func createValidator(t *testing.T) *validation.Validator {
	reg, err := registry.LoadRegistry(filepath.Join("..", "..", "..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	v, err := validation.NewValidator(reg)
	require.NoError(t, err)
	return v
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	content := templateBase64(t)
	tests := []struct {
		name     string
		input    *Input
		wantPath []string
	}{
		{
			name:     "tenant master",
			input:    &Input{Destination: "tenant", TenantID: "Acme Steel", ContentBase64: content},
			wantPath: []string{"companies", "acme_steel", "Project", "report.docx"},
		},
		{
			name:     "trade template",
			input:    &Input{Destination: "Trade", Trade: "Bolting", ContentBase64: content},
			wantPath: []string{"global", "bolting_report_template.docx"},
		},
		{
			name:     "system default",
			input:    &Input{Destination: "default", ContentBase64: content},
			wantPath: []string{"default_report_template.docx"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, root := createTestHandler(t, nil)

			output, err := handler.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			want := filepath.Join(append([]string{root}, tt.wantPath...)...)
			assert.Equal(t, want, output.TemplatePath)

			written, err := os.ReadFile(want)
			require.NoError(t, err)
			assert.Len(t, written, output.SizeBytes)
		})
	}
}

func TestHandler_Execute_Overwrites(t *testing.T) {
	handler, _ := createTestHandler(t, nil)
	in := &Input{Destination: "default", ContentBase64: templateBase64(t)}

	first, err := handler.Execute(context.Background(), in)
	require.NoError(t, err)
	second, err := handler.Execute(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.TemplatePath, second.TemplatePath)
	entries, err := os.ReadDir(filepath.Dir(second.TemplatePath))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	content := templateBase64(t)
	tests := []struct {
		name     string
		input    *Input
		wantCode errors.ErrorCode
	}{
		{"unknown destination", &Input{Destination: "global", ContentBase64: content}, errors.ErrCodeInvalidInput},
		{"bad base64", &Input{Destination: "default", ContentBase64: "%%%"}, errors.ErrCodeInvalidInput},
		{"empty content", &Input{Destination: "default"}, errors.ErrCodeInvalidInput},
		{"unnamed tenant", &Input{Destination: "tenant", TenantID: "  ", ContentBase64: content}, errors.ErrCodeInvalidInput},
		{
			"not a document",
			&Input{Destination: "default", ContentBase64: base64.StdEncoding.EncodeToString([]byte("plain text"))},
			errors.ErrCodeTemplateValidationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, root := createTestHandler(t, nil)

			_, err := handler.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.Normalize(err).Code)
			_, statErr := os.Stat(filepath.Join(root, "default_report_template.docx"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestHandler_Execute_TooLarge(t *testing.T) {
	handler, _ := createTestHandler(t, nil)
	handler.config.MaxSizeBytes = 10

	_, err := handler.Execute(context.Background(), &Input{Destination: "default", ContentBase64: templateBase64(t)})

	assert.Equal(t, errors.ErrCodeInvalidInput, errors.Normalize(err).Code)
}

// ==========================
// Job Handling Tests
// ==========================

func TestHandler_Handle(t *testing.T) {
	t.Run("completes with template path", func(t *testing.T) {
		handler, root := createTestHandler(t, createValidator(t))
		client := camundatest.NewJobClient()

		handler.Handle(client, camundatest.NewJob(1, TaskType, map[string]interface{}{
			"destination":   "default",
			"contentBase64": templateBase64(t),
		}))

		require.Len(t, client.Completed(), 1)
		assert.Equal(t, filepath.Join(root, "default_report_template.docx"), client.Completed()[0]["templatePath"])
	})

	t.Run("schema violation is thrown", func(t *testing.T) {
		handler, _ := createTestHandler(t, createValidator(t))
		client := camundatest.NewJobClient()

		handler.Handle(client, camundatest.NewJob(2, TaskType, map[string]interface{}{
			"destination": "somewhere",
		}))

		require.Len(t, client.Thrown(), 1)
		assert.Equal(t, "INVALID_INPUT", client.Thrown()[0].ErrorCode)
	})

	t.Run("invalid document is thrown", func(t *testing.T) {
		handler, _ := createTestHandler(t, nil)
		client := camundatest.NewJobClient()

		handler.Handle(client, camundatest.NewJob(3, TaskType, map[string]interface{}{
			"destination":   "default",
			"contentBase64": base64.StdEncoding.EncodeToString([]byte("PK not really")),
		}))

		require.Len(t, client.Thrown(), 1)
		assert.Equal(t, "TEMPLATE_VALIDATION_FAILED", client.Thrown()[0].ErrorCode)
	})
}
