// internal/workers/reporting/upload-report-template/models.go
package uploadreporttemplate

type Input struct {
	// Destination is one of tenant, trade or default.
	Destination   string `json:"destination"`
	TenantID      string `json:"tenantId"`
	Trade         string `json:"trade"`
	ContentBase64 string `json:"contentBase64"`
}

type Output struct {
	TemplatePath string `json:"templatePath"`
	SizeBytes    int    `json:"sizeBytes"`
}
