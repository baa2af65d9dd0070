// internal/workers/reporting/select-report-template/models.go
package selectreporttemplate

type Input struct {
	Trade    string `json:"trade"`
	TenantID string `json:"tenantId"`
}

type Output struct {
	TemplatePath string `json:"templatePath"`
	Source       string `json:"source"`
	TenantSlug   string `json:"tenantSlug,omitempty"`
	TradeSlug    string `json:"tradeSlug,omitempty"`
}
