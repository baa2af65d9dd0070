// internal/workers/reporting/generate-report-text/models.go
package generatereporttext

type Input struct {
	ProjectName       string   `json:"projectName"`
	InspectionDate    string   `json:"inspectionDate"`
	Trade             string   `json:"trade"`
	AreaInspected     string   `json:"areaInspected"`
	ReferenceDrawing  string   `json:"referenceDrawing"`
	ReferenceDetail   string   `json:"referenceDetail"`
	ReferenceDetails  string   `json:"referenceDetails"`
	InspectorNotes    string   `json:"inspectorNotes"`
	ImageDescriptions []string `json:"imageDescriptions"`
}

// Output carries the drafted report as a record map, ready for report.export-docx.
type Output struct {
	Report map[string]interface{} `json:"report"`
}

type generateRequest struct {
	System         string            `json:"system"`
	Prompt         string            `json:"prompt"`
	ResponseFormat map[string]string `json:"response_format"`
}

type generateResponse struct {
	Text string `json:"text"`
}
