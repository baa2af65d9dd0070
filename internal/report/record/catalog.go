package record

import (
	"strconv"
	"strings"
)

// Replacement pairs a literal template token with the text that replaces it.
type Replacement struct {
	Token string
	Value string
}

// ScalarField is a single {{NAME}} token bound to one record field.
type ScalarField struct {
	Name  string
	Value func(r *Record) string
}

// IndexedGroup is a token family {{NAME_<n>_<ATTR>}} for n in 1..Cap.
type IndexedGroup struct {
	Name  string
	Cap   int
	Attrs []string
	Len   func(r *Record) int
	// Value returns attr of the i-th element (0-based); i is always < Len(r).
	Value func(r *Record, i int, attr string) string
}

// Catalog is the full set of tokens the substitution engine recognizes.
type Catalog struct {
	Scalars []ScalarField
	Groups  []IndexedGroup
}

func ScalarToken(name string) string {
	return "{{" + name + "}}"
}

func IndexedToken(group string, n int, attr string) string {
	return "{{" + group + "_" + strconv.Itoa(n) + "_" + attr + "}}"
}

// Replacements lists every scalar token and every indexed token up to each group's cap, in
// catalog order. Missing values map to "".
func (c *Catalog) Replacements(r *Record) []Replacement {
	out := make([]Replacement, 0, c.size())
	for _, s := range c.Scalars {
		out = append(out, Replacement{Token: ScalarToken(s.Name), Value: s.Value(r)})
	}
	for _, g := range c.Groups {
		n := g.Len(r)
		for i := 0; i < g.Cap; i++ {
			for _, attr := range g.Attrs {
				v := ""
				if i < n {
					v = g.Value(r, i, attr)
				}
				out = append(out, Replacement{Token: IndexedToken(g.Name, i+1, attr), Value: v})
			}
		}
	}
	return out
}

// Overflow reports, per group, how many entries fall beyond the cap and are not substituted.
func (c *Catalog) Overflow(r *Record) map[string]int {
	out := map[string]int{}
	for _, g := range c.Groups {
		if n := g.Len(r); n > g.Cap {
			out[g.Name] = n - g.Cap
		}
	}
	return out
}

func (c *Catalog) size() int {
	n := len(c.Scalars)
	for _, g := range c.Groups {
		n += g.Cap * len(g.Attrs)
	}
	return n
}

// DefaultCatalog is the token set used by inspection report templates.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Scalars: []ScalarField{
			{"PROJECT_NAME", func(r *Record) string { return r.ProjectName }},
			{"INSPECTION_DATE", func(r *Record) string { return r.InspectionDate }},
			{"TRADE", func(r *Record) string { return r.Trade }},
			{"AREA_INSPECTED", func(r *Record) string { return r.AreaInspected }},
			{"REFERENCE_DETAILS", func(r *Record) string { return r.ReferenceDetails }},
			{"REFERENCE_DRAWING", func(r *Record) string { return r.ReferenceDrawing }},
			{"REFERENCE_DETAIL", func(r *Record) string { return r.ReferenceDetail }},
			{"OVERALL_SUMMARY", func(r *Record) string { return r.OverallSummary }},
			{"CONCLUSION", func(r *Record) string { return r.Conclusion }},
			{"PROJECT_NUMBER", func(r *Record) string { return r.ProjectNumber }},
			{"CLIENT_NAME", func(r *Record) string { return r.ClientName }},
			{"BIS_NUMBER", func(r *Record) string { return r.BISNumber }},
			{"GC_CM", func(r *Record) string { return r.GCCM }},
			{"ARCHITECT", func(r *Record) string { return r.Architect }},
			{"ENGINEER", func(r *Record) string { return r.Engineer }},
			{"TIME_IN", func(r *Record) string { return r.TimeIn }},
			{"TIME_OUT", func(r *Record) string { return r.TimeOut }},
			{"REPORT_NUMBER", func(r *Record) string { return r.ReportNumber }},
			{"INSPECTORS", func(r *Record) string { return r.Inspectors }},
			{"REPORTED_TO", func(r *Record) string { return r.ReportedTo }},
			{"INSPECTIONS_LIST", func(r *Record) string { return r.InspectionsList }},
			{"PERSONS_PRESENT", func(r *Record) string { return r.PersonsPresent }},
			{"SITE_REMARKS", func(r *Record) string { return r.SiteRemarks }},
			{"DEFICIENCIES_SUMMARY", func(r *Record) string { return r.DeficienciesSummary }},
			{"REINSPECTION_REQUIRED", func(r *Record) string { return r.ReinspectionRequired }},
			{"TOTAL_ATTACHMENTS", func(r *Record) string { return r.TotalAttachments }},
			{"ATTACHMENTS_LIST", func(r *Record) string { return r.AttachmentsList }},
			{"OTHER_NOTES", func(r *Record) string { return r.OtherNotes }},
			{"INSPECTOR_NOTES", func(r *Record) string { return r.InspectorNotes }},
			{"PREVIOUS_DEFICIENCIES_RESOLVED", previousResolutions},
		},
		Groups: []IndexedGroup{
			{
				Name:  "PHOTO",
				Cap:   3,
				Attrs: []string{"TITLE", "NOTE"},
				Len:   func(r *Record) int { return len(r.Photos) },
				Value: func(r *Record, i int, attr string) string {
					if attr == "TITLE" {
						return r.Photos[i].Title
					}
					return r.Photos[i].Note
				},
			},
			{
				Name:  "DEF",
				Cap:   5,
				Attrs: []string{"NO", "TEXT"},
				Len:   func(r *Record) int { return len(r.Deficiencies) },
				Value: func(r *Record, i int, attr string) string {
					if attr == "NO" {
						return r.Deficiencies[i].No
					}
					return r.Deficiencies[i].Text
				},
			},
			{
				Name:  "PREV_DEF",
				Cap:   3,
				Attrs: []string{"NO", "RESOLUTION"},
				Len:   func(r *Record) int { return len(r.PreviousDeficienciesResolved) },
				Value: func(r *Record, i int, attr string) string {
					if attr == "NO" {
						return r.PreviousDeficienciesResolved[i].No
					}
					return r.PreviousDeficienciesResolved[i].Resolution
				},
			},
			{
				Name:  "OBS",
				Cap:   15,
				Attrs: []string{"GENERAL", "SPECIFIC", "SYSTEM", "SU", "REMARKS"},
				Len:   func(r *Record) int { return len(r.Observations) },
				Value: func(r *Record, i int, attr string) string {
					o := r.Observations[i]
					switch attr {
					case "GENERAL":
						return o.General
					case "SPECIFIC":
						return o.Specific
					case "SYSTEM":
						return o.System
					case "SU":
						return o.SU
					default:
						return o.Remarks
					}
				},
			},
		},
	}
}

// previousResolutions is the single-field form of PREV_DEF, one resolution per line. A plain-text
// previous_deficiencies_resolved value comes through unchanged.
func previousResolutions(r *Record) string {
	lines := make([]string, 0, len(r.PreviousDeficienciesResolved))
	for _, p := range r.PreviousDeficienciesResolved {
		if s := strings.TrimSpace(p.Resolution); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}
