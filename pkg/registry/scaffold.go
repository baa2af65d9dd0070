package registry

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"
)

// ScaffoldData is what the worker templates render from.
type ScaffoldData struct {
	Module       string
	Dir          string
	PackageName  string
	Name         string
	TaskType     string
	Description  string
	Timeout      time.Duration
	InputFields  []Field
	OutputFields []Field
}

type Field struct {
	Name    string
	GoType  string
	JSONTag string
	Comment string
}

// Scaffold writes config.go, models.go and handler.go for activity a into dir/<a.ID>. Existing
// files are never overwritten; the paths written are returned.
func Scaffold(a Activity, module, dir string) ([]string, error) {
	timeout := 30 * time.Second
	if a.Timeout != "" {
		d, err := a.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		timeout = d
	}

	data := ScaffoldData{
		Module:       module,
		Dir:          filepath.Join(dir, a.ID),
		PackageName:  PackageName(a.ID),
		Name:         a.DisplayName,
		TaskType:     a.TaskType,
		Description:  a.Description,
		Timeout:      timeout,
		InputFields:  schemaFields(a.InputSchema),
		OutputFields: schemaFields(a.OutputSchema),
	}

	if err := os.MkdirAll(data.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", data.Dir, err)
	}

	var written []string
	for _, f := range []struct {
		name string
		tmpl *template.Template
	}{
		{"config.go", configTmpl},
		{"models.go", modelsTmpl},
		{"handler.go", handlerTmpl},
	} {
		path := filepath.Join(data.Dir, f.name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		var buf bytes.Buffer
		if err := f.tmpl.Execute(&buf, data); err != nil {
			return written, fmt.Errorf("render %s: %w", f.name, err)
		}
		src, err := format.Source(buf.Bytes())
		if err != nil {
			return written, fmt.Errorf("format %s: %w", f.name, err)
		}
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// PackageName turns an activity ID such as "export-report-docx" into "exportreportdocx".
func PackageName(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func schemaFields(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		desc, _ := details["description"].(string)
		fields = append(fields, Field{
			Name:    exportedName(name),
			GoType:  goType(details["type"]),
			JSONTag: fmt.Sprintf("`json:\"%s,omitempty\"`", name),
			Comment: desc,
		})
	}
	return fields
}

func goType(jsonType interface{}) string {
	switch jsonType {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "json.RawMessage"
	}
}

func exportedName(prop string) string {
	parts := strings.FieldsFunc(prop, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}

func (d ScaffoldData) NeedsRawJSON() bool {
	for _, f := range append(append([]Field{}, d.InputFields...), d.OutputFields...) {
		if f.GoType == "json.RawMessage" {
			return true
		}
	}
	return false
}

var configTmpl = template.Must(template.New("config").Parse(`package {{ .PackageName }}

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          ` + "`mapstructure:\"enabled\"`" + `
	MaxJobsActive int           ` + "`mapstructure:\"max_jobs_active\"`" + `
	Timeout       time.Duration ` + "`mapstructure:\"timeout\"`" + `
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       {{ printf "%d" .Timeout.Milliseconds }} * time.Millisecond,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
`))

var modelsTmpl = template.Must(template.New("models").Parse(`package {{ .PackageName }}
{{ if .NeedsRawJSON }}
import "encoding/json"
{{ end }}
type Input struct {
{{- range .InputFields }}
	{{ .Name }} {{ .GoType }} {{ .JSONTag }}{{ if .Comment }} // {{ .Comment }}{{ end }}
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
	{{ .Name }} {{ .GoType }} {{ .JSONTag }}{{ if .Comment }} // {{ .Comment }}{{ end }}
{{- end }}
}
`))

var handlerTmpl = template.Must(template.New("handler").Parse(`package {{ .PackageName }}

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"{{ .Module }}/internal/common/camunda"
	"{{ .Module }}/internal/common/logger"
	"{{ .Module }}/internal/common/validation"
)

const (
	TaskType = "{{ .TaskType }}"
)

{{ if .Description }}// Handler: {{ .Description }}
{{ end -}}
type Handler struct {
	config    *Config
	validator *validation.Validator
	logger    logger.Logger
}

func NewHandler(config *Config, validator *validation.Validator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		validator: validator,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{"jobKey": job.Key})

	var input Input
	if err := camunda.DecodeVariables(job, &input, h.validator); err != nil {
		camunda.FailJob(client, job, err, h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		camunda.FailJob(client, job, err, h.logger)
		return
	}
	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return &Output{}, ctx.Err()
}
`))
