// Package registry reads and edits configs/activity-registry.json, the catalog of report task
// types with their input schemas, timeouts and retry budgets.
package registry

import "errors"

var ErrActivityNotFound = errors.New("activity not found")

// Implementation states accepted by "registry update <id> status".
const (
	StatusPlanned     = "planned"
	StatusImplemented = "implemented"
	StatusDeprecated  = "deprecated"
)

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one worker. InputSchema is a JSON schema checked against job variables
// before the handler runs; OutputSchema documents the completion variables.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description,omitempty"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version,omitempty"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus,omitempty"`
	InputSchema          map[string]interface{} `json:"inputSchema,omitempty"`
	OutputSchema         map[string]interface{} `json:"outputSchema,omitempty"`
	ErrorCodes           []string               `json:"errorCodes,omitempty"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Tags                 []string               `json:"tags,omitempty"`
}
