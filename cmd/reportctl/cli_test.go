package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeDocx(t *testing.T, dir string) string {
	t.Helper()
	d := docx.New().WithDefaultTheme()
	d.AddParagraph().AddText("Project: {{PROJECT_NAME}}")
	d.AddParagraph().AddText("Trade: {{TRADE}}")

	var buf bytes.Buffer
	_, err := d.WriteTo(&buf)
	require.NoError(t, err)

	path := filepath.Join(dir, "upload.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func copyRegistry(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// ==========================
// Templates and assembly
// ==========================

func TestUploadResolveAssemble(t *testing.T) {
	root := t.TempDir()
	work := t.TempDir()
	src := writeDocx(t, work)

	out, err := run(t, "--templates-root", root, "upload-template", "--destination", "Default", "--file", src)
	require.NoError(t, err)
	assert.Contains(t, out, "default_report_template.docx")

	out, err = run(t, "--templates-root", root, "resolve", "--trade", "bolting", "--tenant", "Acme")
	require.NoError(t, err)
	var desc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &desc))
	assert.Equal(t, "default", desc["source"])

	recordPath := filepath.Join(work, "record.json")
	require.NoError(t, os.WriteFile(recordPath, []byte(`{
		"project_name": "Tower A",
		"trade": "welding",
		"findings": [{"item": "C4", "observation": "Undersized", "status": "REJECTED"}]
	}`), 0o644))

	out, err = run(t, "--templates-root", root, "assemble", "--record", recordPath, "--trade", "", "--tenant", "", "--out", work)
	require.NoError(t, err)
	assert.Contains(t, out, "deficiencies:   1")

	info, err := os.Stat(filepath.Join(work, "tower_a_welding.docx"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestUploadTemplate_RejectsBadInput(t *testing.T) {
	root := t.TempDir()
	junk := filepath.Join(t.TempDir(), "junk.docx")
	require.NoError(t, os.WriteFile(junk, []byte("not a document"), 0o644))

	_, err := run(t, "--templates-root", root, "upload-template", "--destination", "default", "--file", junk)
	assert.Error(t, err)

	_, err = run(t, "--templates-root", root, "upload-template", "--destination", "global", "--file", junk)
	assert.Error(t, err)

	_, err = os.Stat(filepath.Join(root, "default_report_template.docx"))
	assert.True(t, os.IsNotExist(err))
}

func TestResolve_NotFound(t *testing.T) {
	_, err := run(t, "--templates-root", t.TempDir(), "resolve", "--trade", "welding", "--tenant", "Acme")
	assert.Error(t, err)
}

// ==========================
// Trade configuration
// ==========================

func TestTradeConfig_SetGetList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_configs.json")
	checklist := filepath.Join(t.TempDir(), "checklist.txt")
	require.NoError(t, os.WriteFile(checklist, []byte("- measure thickness\n"), 0o644))

	out, err := run(t, "trade-config", "--path", path, "set", "Fireproofing",
		"--system-prompt", "SFRM inspector", "--checklist-file", checklist)
	require.NoError(t, err)
	assert.Contains(t, out, "saved fireproofing")

	out, err = run(t, "trade-config", "--path", path, "get", "fireproofing")
	require.NoError(t, err)
	assert.Contains(t, out, "SFRM inspector")
	assert.Contains(t, out, "- measure thickness")

	out, err = run(t, "trade-config", "--path", path, "list")
	require.NoError(t, err)
	assert.Equal(t, "bolting\ndetail\nfireproofing\nwelding\n", out)

	_, err = run(t, "trade-config", "--path", path, "get", "roofing")
	assert.Error(t, err)
}

// ==========================
// Registry
// ==========================

func TestRegistry_ValidateAndUpdate(t *testing.T) {
	path := copyRegistry(t)

	out, err := run(t, "registry", "--path", path, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "registry OK: 5 activities")

	out, err = run(t, "registry", "--path", path, "update", "export-report-docx", "retries", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "updated export-report-docx.retries")

	out, err = run(t, "registry", "--path", path, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "report.export-docx")

	_, err = run(t, "registry", "--path", path, "update", "export-report-docx", "timeout", "whenever")
	assert.Error(t, err)
}

func TestRegistry_Scaffold(t *testing.T) {
	path := copyRegistry(t)
	out := t.TempDir()

	stdout, err := run(t, "registry", "--path", path, "scaffold", "upload-report-template", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "handler.go")
	assert.FileExists(t, filepath.Join(out, "upload-report-template", "models.go"))

	_, err = run(t, "registry", "--path", path, "scaffold", "no-such-activity", "--out", out)
	assert.Error(t, err)
}
