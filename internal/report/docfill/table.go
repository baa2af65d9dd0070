package docfill

import (
	"strings"

	"github.com/fumiama/go-docx"

	"report-workers/internal/report/record"
)

// FindingColumns is the number of values written per findings row.
const FindingColumns = 5

// TableMatcher decides which table receives the findings rows.
type TableMatcher interface {
	Match(t *docx.Table) bool
}

// MatcherFunc adapts a function to TableMatcher.
type MatcherFunc func(t *docx.Table) bool

func (f MatcherFunc) Match(t *docx.Table) bool { return f(t) }

// HeaderMarkerMatcher matches a table whose first row contains every marker, ignoring case.
type HeaderMarkerMatcher struct {
	Markers []string
}

// DefaultMatcher finds the findings table by its "Item" and "Observation" header cells.
func DefaultMatcher() HeaderMarkerMatcher {
	return HeaderMarkerMatcher{Markers: []string{"item", "observation"}}
}

func (m HeaderMarkerMatcher) Match(t *docx.Table) bool {
	if len(t.TableRows) == 0 || len(m.Markers) == 0 {
		return false
	}
	header := strings.ToLower(rowText(t.TableRows[0]))
	for _, marker := range m.Markers {
		if !strings.Contains(header, strings.ToLower(marker)) {
			return false
		}
	}
	return true
}

// MarkerCellMatcher matches a table with a cell whose trimmed text equals Marker, such as
// "{{FINDINGS_TABLE}}".
type MarkerCellMatcher struct {
	Marker string
}

func (m MarkerCellMatcher) Match(t *docx.Table) bool {
	for _, row := range t.TableRows {
		for _, cell := range row.TableCells {
			if strings.TrimSpace(cellText(cell)) == m.Marker {
				return true
			}
		}
	}
	return false
}

// ExpandFindings replaces the body rows of the first matching top-level table with one row per
// finding. found is false when no table matches, in which case the document is untouched.
func ExpandFindings(doc *Document, findings []record.Finding, matcher TableMatcher) (rows int, found bool) {
	if matcher == nil {
		matcher = DefaultMatcher()
	}
	var table *docx.Table
	for _, t := range doc.Tables() {
		if matcher.Match(t) {
			table = t
			break
		}
	}
	if table == nil || len(table.TableRows) == 0 {
		return 0, false
	}

	header := table.TableRows[0]
	proto := header
	if len(table.TableRows) > 1 {
		proto = table.TableRows[1]
	}

	out := make([]*docx.WTableRow, 0, len(findings)+1)
	out = append(out, header)
	for _, f := range findings {
		out = append(out, cloneRow(proto, findingValues(f)))
	}
	table.TableRows = out
	return len(findings), true
}

func findingValues(f record.Finding) [FindingColumns]string {
	return [FindingColumns]string{f.Item, f.Observation, f.CodeOrDetailRef, f.Status, f.Remarks}
}

// cloneRow copies proto's row and cell properties and writes values into the cells left to
// right. Cells past the fifth are left blank.
func cloneRow(proto *docx.WTableRow, values [FindingColumns]string) *docx.WTableRow {
	row := *proto
	if proto.TableRowProperties != nil {
		props := *proto.TableRowProperties
		row.TableRowProperties = &props
	}
	row.TableCells = make([]*docx.WTableCell, len(proto.TableCells))
	for i, pc := range proto.TableCells {
		value := ""
		if i < FindingColumns {
			value = values[i]
		}
		row.TableCells[i] = cloneCell(pc, value)
	}
	return &row
}

func cloneCell(proto *docx.WTableCell, value string) *docx.WTableCell {
	cell := *proto
	if proto.TableCellProperties != nil {
		props := *proto.TableCellProperties
		cell.TableCellProperties = &props
	}
	cell.Paragraphs = nil
	cell.Tables = nil

	p := cell.AddParagraph()
	var runProps *docx.RunProperties
	if len(proto.Paragraphs) > 0 {
		first := proto.Paragraphs[0]
		if first.Properties != nil {
			pp := *first.Properties
			p.Properties = &pp
		}
		runProps = firstRunProperties(first)
	}
	run := p.AddText(value)
	if runProps != nil {
		rp := *runProps
		run.RunProperties = &rp
	}
	return &cell
}

func firstRunProperties(p *docx.Paragraph) *docx.RunProperties {
	for _, c := range p.Children {
		if r, ok := c.(*docx.Run); ok {
			return r.RunProperties
		}
	}
	return nil
}

func rowText(row *docx.WTableRow) string {
	var b strings.Builder
	for _, cell := range row.TableCells {
		b.WriteString(cellText(cell))
		b.WriteByte(' ')
	}
	return b.String()
}

func cellText(cell *docx.WTableCell) string {
	var b strings.Builder
	for _, p := range cell.Paragraphs {
		for _, tr := range paragraphRuns(p) {
			for _, t := range tr.texts {
				b.WriteString(t.Text)
			}
		}
	}
	return b.String()
}
