package docfill

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-workers/internal/report/record"
)

// addFindingsTable adds a table whose header row reads headers and, when withDataRow is set, a
// bold placeholder data row.
func addFindingsTable(d *docx.Docx, headers []string, withDataRow bool) *docx.Table {
	rows := 1
	if withDataRow {
		rows = 2
	}
	tbl := d.AddTable(rows, len(headers), 0, nil)
	for i, h := range headers {
		tbl.TableRows[0].TableCells[i].AddParagraph().AddText(h)
		if withDataRow {
			tbl.TableRows[1].TableCells[i].AddParagraph().AddText("placeholder").Bold()
		}
	}
	return tbl
}

func cellTexts(row *docx.WTableRow) []string {
	out := make([]string, 0, len(row.TableCells))
	for _, c := range row.TableCells {
		out = append(out, cellText(c))
	}
	return out
}

func createFindings(n int) []record.Finding {
	out := make([]record.Finding, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, record.Finding{
			Item:            fmt.Sprintf("Item %d", i),
			Observation:     fmt.Sprintf("Observation %d", i),
			CodeOrDetailRef: fmt.Sprintf("AWS D1.1 %d", i),
			Status:          "ACCEPTED",
			Remarks:         fmt.Sprintf("Remark %d", i),
		})
	}
	return out
}

var standardHeaders = []string{"Item", "Observation", "Code / Detail Ref", "Status", "Remarks"}

// ==========================
// Matchers
// ==========================

func TestHeaderMarkerMatcher(t *testing.T) {
	d := newFixture()
	findings := addFindingsTable(d, standardHeaders, false)
	other := addFindingsTable(d, []string{"Name", "Signature"}, false)

	m := DefaultMatcher()
	assert.True(t, m.Match(findings))
	assert.False(t, m.Match(other))
	assert.False(t, HeaderMarkerMatcher{}.Match(findings))
	assert.True(t, HeaderMarkerMatcher{Markers: []string{"ITEM", "remarks"}}.Match(findings))
}

func TestMarkerCellMatcher(t *testing.T) {
	d := newFixture()
	tbl := addFindingsTable(d, []string{"A", " {{FINDINGS_TABLE}} "}, false)

	assert.True(t, MarkerCellMatcher{Marker: "{{FINDINGS_TABLE}}"}.Match(tbl))
	assert.False(t, MarkerCellMatcher{Marker: "{{OTHER}}"}.Match(tbl))
}

// ==========================
// Expansion
// ==========================

func TestExpandFindings_TwentyRows(t *testing.T) {
	d := newFixture()
	addFindingsTable(d, standardHeaders, true)
	doc := openFixture(t, d)

	rows, found := ExpandFindings(doc, createFindings(20), nil)

	require.True(t, found)
	assert.Equal(t, 20, rows)
	tbl := doc.Tables()[0]
	require.Len(t, tbl.TableRows, 21)
	assert.Equal(t, standardHeaders, cellTexts(tbl.TableRows[0]))
	assert.Equal(t,
		[]string{"Item 1", "Observation 1", "AWS D1.1 1", "ACCEPTED", "Remark 1"},
		cellTexts(tbl.TableRows[1]))
	assert.Equal(t, "Item 20", cellTexts(tbl.TableRows[20])[0])

	p := tbl.TableRows[5].TableCells[0].Paragraphs[0]
	r := firstRunProperties(p)
	require.NotNil(t, r)
	assert.NotNil(t, r.Bold, "rows are cloned from the template data row")
}

func TestExpandFindings_NoDataRowClonesHeader(t *testing.T) {
	d := newFixture()
	addFindingsTable(d, standardHeaders, false)
	doc := openFixture(t, d)

	rows, found := ExpandFindings(doc, createFindings(2), DefaultMatcher())

	require.True(t, found)
	assert.Equal(t, 2, rows)
	assert.Len(t, doc.Tables()[0].TableRows, 3)
}

func TestExpandFindings_ColumnWidths(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    []string
	}{
		{
			name:    "narrow table drops trailing values",
			headers: []string{"Item", "Observation", "Ref"},
			want:    []string{"Item 1", "Observation 1", "AWS D1.1 1"},
		},
		{
			name:    "wide table leaves extra columns blank",
			headers: []string{"Item", "Observation", "Ref", "Status", "Remarks", "Photo", "Sign-off"},
			want:    []string{"Item 1", "Observation 1", "AWS D1.1 1", "ACCEPTED", "Remark 1", "", ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newFixture()
			addFindingsTable(d, tt.headers, true)
			doc := openFixture(t, d)

			_, found := ExpandFindings(doc, createFindings(1), nil)
			require.True(t, found)
			assert.Equal(t, tt.want, cellTexts(doc.Tables()[0].TableRows[1]))
		})
	}
}

func TestExpandFindings_NoMatchingTableIsNoOp(t *testing.T) {
	d := newFixture()
	addFindingsTable(d, []string{"Name", "Signature"}, true)
	doc := openFixture(t, d)

	rows, found := ExpandFindings(doc, createFindings(3), nil)

	assert.False(t, found)
	assert.Zero(t, rows)
	assert.Len(t, doc.Tables()[0].TableRows, 2)
	assert.Equal(t, "placeholder", cellTexts(doc.Tables()[0].TableRows[1])[0])
}

func TestExpandFindings_EmptyFindingsKeepsHeaderOnly(t *testing.T) {
	d := newFixture()
	addFindingsTable(d, standardHeaders, true)
	doc := openFixture(t, d)

	rows, found := ExpandFindings(doc, nil, nil)

	assert.True(t, found)
	assert.Zero(t, rows)
	assert.Len(t, doc.Tables()[0].TableRows, 1)
}

func TestExpandFindings_FirstMatchingTableOnly(t *testing.T) {
	d := newFixture()
	addFindingsTable(d, standardHeaders, true)
	addFindingsTable(d, standardHeaders, true)
	doc := openFixture(t, d)

	ExpandFindings(doc, createFindings(4), nil)

	tables := doc.Tables()
	require.Len(t, tables, 2)
	assert.Len(t, tables[0].TableRows, 5)
	assert.Len(t, tables[1].TableRows, 2)
}

func TestExpandFindings_MatcherFunc(t *testing.T) {
	d := newFixture()
	addFindingsTable(d, []string{"Name", "Signature"}, false)
	addFindingsTable(d, []string{"Punch list"}, false)
	doc := openFixture(t, d)

	m := MatcherFunc(func(tbl *docx.Table) bool {
		return strings.Contains(rowText(tbl.TableRows[0]), "Punch")
	})
	_, found := ExpandFindings(doc, createFindings(1), m)

	require.True(t, found)
	assert.Equal(t, []string{"Item 1"}, cellTexts(doc.Tables()[1].TableRows[1]))
}

func TestExpandFindings_SurvivesSerialization(t *testing.T) {
	d := newFixture()
	addFindingsTable(d, standardHeaders, true)
	doc := openFixture(t, d)
	ExpandFindings(doc, createFindings(3), nil)

	out, err := doc.Bytes()
	require.NoError(t, err)

	reopened, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, reopened.Tables(), 1)
	assert.Len(t, reopened.Tables()[0].TableRows, 4)
	assert.Equal(t, "Remark 3", cellTexts(reopened.Tables()[0].TableRows[3])[4])
}
