package template

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-workers/internal/common/logger"
)

// ==========================
// Test Helpers
// ==========================

func createLayout(t *testing.T) Layout {
	t.Helper()
	return Layout{Root: t.TempDir()}
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("docx"), 0o644))
}

func mustPath(t *testing.T, l Layout, dest Destination, tenant, trade string) string {
	t.Helper()
	p, err := l.PathFor(dest, tenant, trade)
	require.NoError(t, err)
	return p
}

// ==========================
// Resolution order
// ==========================

func TestResolve_PriorityOrder(t *testing.T) {
	tests := []struct {
		name       string
		present    []Destination
		tenant     string
		trade      string
		wantSource Destination
	}{
		{
			name:       "tenant wins over trade and default",
			present:    []Destination{DestinationTenant, DestinationTrade, DestinationDefault},
			tenant:     "Acme Steel",
			trade:      "welding",
			wantSource: DestinationTenant,
		},
		{
			name:       "tenant wins without others",
			present:    []Destination{DestinationTenant},
			tenant:     "Acme Steel",
			trade:      "welding",
			wantSource: DestinationTenant,
		},
		{
			name:       "trade when tenant has no master",
			present:    []Destination{DestinationTrade, DestinationDefault},
			tenant:     "Acme Steel",
			trade:      "Welding",
			wantSource: DestinationTrade,
		},
		{
			name:       "trade without tenant",
			present:    []Destination{DestinationTrade, DestinationDefault},
			trade:      "bolting",
			wantSource: DestinationTrade,
		},
		{
			name:       "default last",
			present:    []Destination{DestinationDefault},
			tenant:     "Acme Steel",
			trade:      "detail",
			wantSource: DestinationDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := createLayout(t)
			for _, d := range tt.present {
				touch(t, mustPath(t, layout, d, "Acme Steel", tt.trade))
			}
			r := NewResolver(layout, logger.NewTestLogger(t))

			got, err := r.Resolve(tt.trade, tt.tenant)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, got.Source)
			assert.Equal(t, mustPath(t, layout, tt.wantSource, "Acme Steel", tt.trade), got.Path)
			assert.Equal(t, tt.trade, got.Trade)
			assert.Equal(t, tt.tenant, got.Tenant)
		})
	}
}

func TestResolve_NotFoundNamesExpectedPaths(t *testing.T) {
	layout := createLayout(t)
	r := NewResolver(layout, logger.NewTestLogger(t))

	_, err := r.Resolve("X", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
	assert.Contains(t, err.Error(), "default_report_template.docx")
	assert.Contains(t, err.Error(), filepath.Join("global", "x_report_template.docx"))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Empty(t, nf.TenantPath)
	assert.Equal(t, filepath.Join(layout.Root, "default_report_template.docx"), nf.DefaultPath)
}

func TestResolve_NotFoundWithTenant(t *testing.T) {
	layout := createLayout(t)
	r := NewResolver(layout, logger.NewNoOpLogger())

	_, err := r.Resolve("welding", "Acme Steel")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, filepath.Join(layout.Root, "companies", "acme_steel", "Project", "report.docx"), nf.TenantPath)
	assert.Contains(t, err.Error(), "acme_steel")
}

func TestResolve_EmptyTradeFallsToDefault(t *testing.T) {
	layout := createLayout(t)
	touch(t, mustPath(t, layout, DestinationDefault, "", ""))
	r := NewResolver(layout, logger.NewNoOpLogger())

	got, err := r.Resolve("  ", "")
	require.NoError(t, err)
	assert.Equal(t, DestinationDefault, got.Source)
}

func TestResolve_DirectoryIsNotATemplate(t *testing.T) {
	layout := createLayout(t)
	require.NoError(t, os.MkdirAll(mustPath(t, layout, DestinationTrade, "", "welding"), 0o755))
	r := NewResolver(layout, logger.NewNoOpLogger())

	_, err := r.Resolve("welding", "")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

// ==========================
// Store
// ==========================

func TestStore_WritesWhereResolverLooks(t *testing.T) {
	layout := createLayout(t)
	store := NewStore(layout, nil, logger.NewTestLogger(t))
	r := NewResolver(layout, logger.NewTestLogger(t))

	path, err := store.Save(context.Background(), DestinationTenant, "ACME steel!!", "welding", []byte("v1"))
	require.NoError(t, err)

	got, err := r.Resolve("welding", "Acme Steel")
	require.NoError(t, err)
	assert.Equal(t, path, got.Path)
	assert.Equal(t, DestinationTenant, got.Source)

	tradePath, err := store.Save(context.Background(), DestinationTrade, "", "HSB Bolting", []byte("v1"))
	require.NoError(t, err)
	got, err = r.Resolve("hsb-bolting", "")
	require.NoError(t, err)
	assert.Equal(t, tradePath, got.Path)
}

func TestStore_LastWriterWins(t *testing.T) {
	layout := createLayout(t)
	store := NewStore(layout, nil, logger.NewNoOpLogger())

	path, err := store.Save(context.Background(), DestinationDefault, "", "", []byte("first"))
	require.NoError(t, err)
	_, err = store.Save(context.Background(), DestinationDefault, "", "", []byte("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_RejectsInvalid(t *testing.T) {
	layout := createLayout(t)
	store := NewStore(layout, func([]byte) error { return errors.New("not a zip") }, logger.NewNoOpLogger())

	_, err := store.Save(context.Background(), DestinationTrade, "", "welding", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, statErr := os.Stat(mustPath(t, layout, DestinationTrade, "", "welding"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLayout_PathForErrors(t *testing.T) {
	l := Layout{Root: "/t"}
	_, err := l.PathFor(DestinationTenant, " ", "welding")
	assert.ErrorIs(t, err, ErrUnnamedSlot)
	_, err = l.PathFor(DestinationTrade, "", "--")
	assert.ErrorIs(t, err, ErrUnnamedSlot)
	_, err = l.PathFor("other", "", "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnnamedSlot)

	_, err = ParseDestination("tenant")
	assert.NoError(t, err)
	_, err = ParseDestination("global")
	assert.Error(t, err)
}
