// internal/workers/reporting/release-report-document/models.go
package releasereportdocument

type Input struct {
	DocumentKey string `json:"documentKey"`
}

type Output struct {
	DocumentKey string `json:"documentKey"`
	Filename    string `json:"filename"`
	SizeBytes   int    `json:"sizeBytes"`
	Released    bool   `json:"released"`
}
