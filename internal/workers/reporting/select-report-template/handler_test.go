// internal/workers/reporting/select-report-template/handler_test.go
package selectreporttemplate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-workers/internal/common/camunda/camundatest"
	"report-workers/internal/common/errors"
	"report-workers/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.TemplatesRoot = t.TempDir()
	return cfg
}

func createTestHandler(t *testing.T, config *Config) *Handler {
	if config == nil {
		config = createTestConfig(t)
	}
	return NewHandler(config, nil, logger.NewTestLogger(t))
}

func createTemplate(t *testing.T, root string, parts ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{root}, parts...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("docx"), 0o644))
	return path
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(root string)
		input      *Input
		wantPath   []string
		wantSource string
	}{
		{
			name: "tenant master wins",
			setup: func(root string) {
				createTemplate(t, root, "companies", "acme_steel", "Project", "report.docx")
				createTemplate(t, root, "global", "welding_report_template.docx")
			},
			input:      &Input{Trade: "welding", TenantID: "Acme Steel"},
			wantPath:   []string{"companies", "acme_steel", "Project", "report.docx"},
			wantSource: "tenant",
		},
		{
			name: "trade template",
			setup: func(root string) {
				createTemplate(t, root, "global", "bolting_report_template.docx")
				createTemplate(t, root, "default_report_template.docx")
			},
			input:      &Input{Trade: "Bolting"},
			wantPath:   []string{"global", "bolting_report_template.docx"},
			wantSource: "trade",
		},
		{
			name: "empty trade uses welding",
			setup: func(root string) {
				createTemplate(t, root, "global", "welding_report_template.docx")
			},
			input:      &Input{},
			wantPath:   []string{"global", "welding_report_template.docx"},
			wantSource: "trade",
		},
		{
			name: "system default",
			setup: func(root string) {
				createTemplate(t, root, "default_report_template.docx")
			},
			input:      &Input{Trade: "detail", TenantID: "Nobody"},
			wantPath:   []string{"default_report_template.docx"},
			wantSource: "default",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig(t)
			tt.setup(cfg.TemplatesRoot)
			handler := createTestHandler(t, cfg)

			output, err := handler.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			assert.Equal(t, filepath.Join(append([]string{cfg.TemplatesRoot}, tt.wantPath...)...), output.TemplatePath)
			assert.Equal(t, tt.wantSource, output.Source)
		})
	}
}

func TestHandler_Execute_NotFound(t *testing.T) {
	handler := createTestHandler(t, nil)

	_, err := handler.Execute(context.Background(), &Input{Trade: "welding"})

	require.Error(t, err)
	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeTemplateNotFound, stdErr.Code)
	assert.Contains(t, stdErr.Details, "welding_report_template.docx")
	assert.Contains(t, stdErr.Details, "default_report_template.docx")
	assert.Equal(t, "welding", stdErr.Metadata["trade"])
}

func TestHandler_Execute_Slugs(t *testing.T) {
	cfg := createTestConfig(t)
	createTemplate(t, cfg.TemplatesRoot, "default_report_template.docx")
	handler := createTestHandler(t, cfg)

	output, err := handler.Execute(context.Background(), &Input{Trade: "Steel Detail", TenantID: "Acme Steel, Inc."})

	require.NoError(t, err)
	assert.Equal(t, "acme_steel_inc", output.TenantSlug)
	assert.Equal(t, "steel_detail", output.TradeSlug)
}

// ==========================
// Job Handling Tests
// ==========================

func TestHandler_Handle(t *testing.T) {
	t.Run("completes with template path", func(t *testing.T) {
		cfg := createTestConfig(t)
		path := createTemplate(t, cfg.TemplatesRoot, "default_report_template.docx")
		handler := createTestHandler(t, cfg)
		client := camundatest.NewJobClient()

		handler.Handle(client, camundatest.NewJob(1, TaskType, map[string]interface{}{"trade": "welding"}))

		require.Len(t, client.Completed(), 1)
		assert.Equal(t, path, client.Completed()[0]["templatePath"])
		assert.Equal(t, "default", client.Completed()[0]["source"])
	})

	t.Run("missing template throws BPMN error", func(t *testing.T) {
		handler := createTestHandler(t, nil)
		client := camundatest.NewJobClient()

		handler.Handle(client, camundatest.NewJob(2, TaskType, map[string]interface{}{"trade": "welding"}))

		assert.Empty(t, client.Completed())
		require.Len(t, client.Thrown(), 1)
		assert.Equal(t, "TEMPLATE_NOT_FOUND", client.Thrown()[0].ErrorCode)
	})
}

// ==========================
// Config Tests
// ==========================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"default is valid", func(c *Config) {}, false},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"no root", func(c *Config) { c.TemplatesRoot = "" }, true},
		{"short timeout", func(c *Config) { c.Timeout = time.Millisecond }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
