// internal/workers/reporting/export-report-docx/models.go
package exportreportdocx

import "encoding/json"

type Input struct {
	Trade    string `json:"trade"`
	TenantID string `json:"tenantId"`
	// Record is decoded leniently; anything that is not an object becomes an empty record.
	Record json.RawMessage `json:"record"`
}

type Output struct {
	DocumentKey       string `json:"documentKey"`
	ExportID          string `json:"exportId,omitempty"`
	Filename          string `json:"filename"`
	ContentType       string `json:"contentType"`
	SizeBytes         int    `json:"sizeBytes"`
	TemplatePath      string `json:"templatePath"`
	TemplateSource    string `json:"templateSource"`
	FindingsRows      int    `json:"findingsRows"`
	ImagesEmbedded    int    `json:"imagesEmbedded"`
	ImagesSkipped     int    `json:"imagesSkipped"`
	DeficienciesCount int    `json:"deficienciesCount"`
}
