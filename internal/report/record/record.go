// Package record defines the inspection report record, its tolerant decoding, the placeholder
// catalog that maps it onto template tokens, and the derived summary fields.
package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Finding status values. Anything else is carried through untouched.
const (
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
	StatusOpen     = "OPEN"
)

// Finding is one row of the detailed findings table.
type Finding struct {
	Item            string `json:"item"`
	Observation     string `json:"observation"`
	CodeOrDetailRef string `json:"code_or_detail_ref"`
	Status          string `json:"status"`
	Remarks         string `json:"remarks"`
}

// NormalizedStatus is the trimmed, upper-cased status.
func (f Finding) NormalizedStatus() string {
	return strings.ToUpper(strings.TrimSpace(f.Status))
}

// IsDeficient reports whether the finding carries a status other than ACCEPTED.
func (f Finding) IsDeficient() bool {
	s := f.NormalizedStatus()
	return s != "" && s != StatusAccepted
}

type Deficiency struct {
	No   string `json:"no"`
	Text string `json:"text"`
}

type Observation struct {
	General  string `json:"general_location"`
	Specific string `json:"specific_location"`
	System   string `json:"system_or_element"`
	SU       string `json:"su"`
	Remarks  string `json:"remarks"`
}

type PreviousDeficiency struct {
	No         string `json:"no"`
	Resolution string `json:"resolution"`
}

type Photo struct {
	Title string `json:"title"`
	Note  string `json:"note"`
}

// Record is one inspection report. Every field is optional; the zero value means absent.
type Record struct {
	ProjectName          string `json:"project_name,omitempty"`
	InspectionDate       string `json:"inspection_date,omitempty"`
	Trade                string `json:"trade,omitempty"`
	AreaInspected        string `json:"area_inspected,omitempty"`
	ReferenceDetails     string `json:"reference_details,omitempty"`
	ReferenceDrawing     string `json:"reference_drawing,omitempty"`
	ReferenceDetail      string `json:"reference_detail,omitempty"`
	OverallSummary       string `json:"overall_summary,omitempty"`
	Conclusion           string `json:"conclusion,omitempty"`
	ProjectNumber        string `json:"project_number,omitempty"`
	ClientName           string `json:"client_name,omitempty"`
	BISNumber            string `json:"bis_number,omitempty"`
	GCCM                 string `json:"gc_cm,omitempty"`
	Architect            string `json:"architect,omitempty"`
	Engineer             string `json:"engineer,omitempty"`
	TimeIn               string `json:"time_in,omitempty"`
	TimeOut              string `json:"time_out,omitempty"`
	ReportNumber         string `json:"report_number,omitempty"`
	Inspectors           string `json:"inspectors,omitempty"`
	ReportedTo           string `json:"reported_to,omitempty"`
	InspectionsList      string `json:"inspections_list,omitempty"`
	PersonsPresent       string `json:"persons_present,omitempty"`
	SiteRemarks          string `json:"site_remarks,omitempty"`
	DeficienciesSummary  string `json:"deficiencies_summary,omitempty"`
	ReinspectionRequired string `json:"reinspection_required,omitempty"`
	TotalAttachments     string `json:"total_attachments,omitempty"`
	AttachmentsList      string `json:"attachments_list,omitempty"`
	OtherNotes           string `json:"other_notes,omitempty"`
	InspectorNotes       string `json:"inspector_notes,omitempty"`

	Findings                     []Finding            `json:"findings,omitempty"`
	Deficiencies                 []Deficiency         `json:"deficiencies,omitempty"`
	Observations                 []Observation        `json:"observations,omitempty"`
	PreviousDeficienciesResolved []PreviousDeficiency `json:"previous_deficiencies_resolved,omitempty"`
	Photos                       []Photo              `json:"photos,omitempty"`
	// AttachmentImages holds base64 or data-URL encoded images, decoded at embed time.
	AttachmentImages []string `json:"attachment_images,omitempty"`
}

// Parse decodes a JSON object into a Record. It never fails: input that is not a JSON object
// yields an empty record, and wrong-typed fields fall back to their zero value.
func Parse(data []byte) *Record {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return &Record{}
	}
	return FromMap(m)
}

// FromMap builds a Record from already-decoded JSON, applying the same coercions as Parse.
func FromMap(m map[string]interface{}) *Record {
	r := &Record{}
	if m == nil {
		return r
	}
	for key, dst := range r.scalarFields() {
		*dst = text(m[key])
	}

	findings := m["findings"]
	if findings == nil {
		findings = m["detailed_findings"]
	}
	for _, e := range objects(findings) {
		r.Findings = append(r.Findings, Finding{
			Item:            text(e["item"]),
			Observation:     text(e["observation"]),
			CodeOrDetailRef: text(e["code_or_detail_ref"]),
			Status:          text(e["status"]),
			Remarks:         text(e["remarks"]),
		})
	}

	for _, e := range objects(m["deficiencies"]) {
		r.Deficiencies = append(r.Deficiencies, Deficiency{No: text(e["no"]), Text: text(e["text"])})
	}

	for _, e := range objects(m["observations"]) {
		r.Observations = append(r.Observations, Observation{
			General:  first(e, "general_location", "general"),
			Specific: first(e, "specific_location", "specific"),
			System:   first(e, "system_or_element", "system"),
			SU:       text(e["su"]),
			Remarks:  text(e["remarks"]),
		})
	}

	switch prev := m["previous_deficiencies_resolved"].(type) {
	case string:
		if strings.TrimSpace(prev) != "" {
			r.PreviousDeficienciesResolved = []PreviousDeficiency{{No: "1", Resolution: prev}}
		}
	default:
		for _, e := range objects(prev) {
			r.PreviousDeficienciesResolved = append(r.PreviousDeficienciesResolved, PreviousDeficiency{
				No:         text(e["no"]),
				Resolution: first(e, "resolution", "text"),
			})
		}
	}

	if list, ok := m["photos"].([]interface{}); ok {
		for _, v := range list {
			switch p := v.(type) {
			case map[string]interface{}:
				r.Photos = append(r.Photos, Photo{Title: text(p["title"]), Note: text(p["note"])})
			case string:
				r.Photos = append(r.Photos, Photo{Title: p})
			}
		}
	}

	if list, ok := m["attachment_images"].([]interface{}); ok {
		r.AttachmentImages = make([]string, 0, len(list))
		for _, v := range list {
			// Keep the slot even when unusable so captions stay aligned with the caller's order.
			s, _ := v.(string)
			r.AttachmentImages = append(r.AttachmentImages, s)
		}
	}

	return r
}

// ToMap renders the record back into the JSON shape FromMap accepts.
func (r *Record) ToMap() map[string]interface{} {
	data, err := json.Marshal(r)
	if err != nil {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	_ = json.Unmarshal(data, &m)
	return m
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	c.Findings = append([]Finding(nil), r.Findings...)
	c.Deficiencies = append([]Deficiency(nil), r.Deficiencies...)
	c.Observations = append([]Observation(nil), r.Observations...)
	c.PreviousDeficienciesResolved = append([]PreviousDeficiency(nil), r.PreviousDeficienciesResolved...)
	c.Photos = append([]Photo(nil), r.Photos...)
	c.AttachmentImages = append([]string(nil), r.AttachmentImages...)
	return &c
}

func (r *Record) scalarFields() map[string]*string {
	return map[string]*string{
		"project_name":          &r.ProjectName,
		"inspection_date":       &r.InspectionDate,
		"trade":                 &r.Trade,
		"area_inspected":        &r.AreaInspected,
		"reference_details":     &r.ReferenceDetails,
		"reference_drawing":     &r.ReferenceDrawing,
		"reference_detail":      &r.ReferenceDetail,
		"overall_summary":       &r.OverallSummary,
		"conclusion":            &r.Conclusion,
		"project_number":        &r.ProjectNumber,
		"client_name":           &r.ClientName,
		"bis_number":            &r.BISNumber,
		"gc_cm":                 &r.GCCM,
		"architect":             &r.Architect,
		"engineer":              &r.Engineer,
		"time_in":               &r.TimeIn,
		"time_out":              &r.TimeOut,
		"report_number":         &r.ReportNumber,
		"inspectors":            &r.Inspectors,
		"reported_to":           &r.ReportedTo,
		"inspections_list":      &r.InspectionsList,
		"persons_present":       &r.PersonsPresent,
		"site_remarks":          &r.SiteRemarks,
		"deficiencies_summary":  &r.DeficienciesSummary,
		"reinspection_required": &r.ReinspectionRequired,
		"total_attachments":     &r.TotalAttachments,
		"attachments_list":      &r.AttachmentsList,
		"other_notes":           &r.OtherNotes,
		"inspector_notes":       &r.InspectorNotes,
	}
}

// text coerces a decoded JSON value to display text. Containers and null become "".
func text(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int, int32, int64, uint, uint32, uint64, float32:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

func first(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return text(v)
		}
	}
	return ""
}

// objects returns the object entries of a JSON array, dropping everything else.
func objects(v interface{}) []map[string]interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}
