package registry

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageName(t *testing.T) {
	assert.Equal(t, "exportreportdocx", PackageName("export-report-docx"))
	assert.Equal(t, "report2pdf", PackageName("Report_2.PDF"))
}

func TestScaffold(t *testing.T) {
	a := createActivity("archive-report", "report.archive")
	a.Description = "moves finished documents to cold storage"
	a.InputSchema = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"documentKey": map[string]interface{}{"type": "string", "description": "key in the document store"},
			"keep_days":   map[string]interface{}{"type": "integer"},
			"meta":        map[string]interface{}{},
		},
	}
	a.OutputSchema = map[string]interface{}{
		"properties": map[string]interface{}{
			"archived": map[string]interface{}{"type": "boolean"},
		},
	}
	dir := t.TempDir()

	written, err := Scaffold(a, "report-workers", dir)
	require.NoError(t, err)
	require.Len(t, written, 3)

	fset := token.NewFileSet()
	for _, path := range written {
		_, err := parser.ParseFile(fset, path, nil, parser.AllErrors)
		assert.NoError(t, err, path)
	}

	models, err := os.ReadFile(filepath.Join(dir, "archive-report", "models.go"))
	require.NoError(t, err)
	assert.Contains(t, string(models), "package archivereport")
	assert.Contains(t, string(models), "DocumentKey string")
	assert.Contains(t, string(models), "KeepDays    int")
	assert.Contains(t, string(models), "Meta        json.RawMessage")
	assert.Contains(t, string(models), "Archived bool")

	handler, err := os.ReadFile(filepath.Join(dir, "archive-report", "handler.go"))
	require.NoError(t, err)
	assert.Contains(t, string(handler), `TaskType = "report.archive"`)
	assert.Contains(t, string(handler), `"report-workers/internal/common/camunda"`)

	again, err := Scaffold(a, "report-workers", dir)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestScaffold_BadTimeout(t *testing.T) {
	a := createActivity("x", "report.x")
	a.Timeout = "later"
	_, err := Scaffold(a, "report-workers", t.TempDir())
	assert.Error(t, err)
}
