// internal/workers/reporting/export-report-docx/handler.go
package exportreportdocx

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"report-workers/internal/common/camunda"
	"report-workers/internal/common/errors"
	"report-workers/internal/common/logger"
	"report-workers/internal/common/validation"
	"report-workers/internal/report/assembler"
	"report-workers/internal/report/audit"
	"report-workers/internal/report/docfill"
	"report-workers/internal/report/docstore"
	"report-workers/internal/report/exportindex"
	"report-workers/internal/report/record"
	"report-workers/internal/report/template"
)

const (
	TaskType = "report.export-docx"
)

type Assembler interface {
	Assemble(ctx context.Context, req assembler.Request) (*assembler.Result, error)
}

type DocumentStore interface {
	Put(ctx context.Context, doc *docstore.Document) (string, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, e *audit.Export) (string, error)
}

type ExportIndexer interface {
	Index(ctx context.Context, s *exportindex.Summary) error
}

// Dependencies are the collaborators of the handler. Audit and Index may be nil.
type Dependencies struct {
	Assembler Assembler
	Documents DocumentStore
	Audit     AuditRecorder
	Index     ExportIndexer
	Validator *validation.Validator
}

type Handler struct {
	config *Config
	deps   Dependencies
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := camunda.DecodeVariables(job, &input, h.deps.Validator); err != nil {
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

// Execute assembles the report, stores the document for download and records the export.
// Only the assembly and the document store can fail the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	rec := record.Parse(input.Record)

	res, err := h.deps.Assembler.Assemble(ctx, assembler.Request{
		Trade:  input.Trade,
		Tenant: input.TenantID,
		Record: rec,
	})
	if err != nil {
		return nil, mapAssemblyError(err)
	}

	exportedAt := h.now().UTC()
	key, err := h.deps.Documents.Put(ctx, &docstore.Document{
		Filename:    res.Filename,
		ContentType: res.ContentType,
		Data:        res.Document,
		CreatedAt:   exportedAt,
	})
	if err != nil {
		return nil, errors.NewDocumentStoreError(err)
	}

	output := &Output{
		DocumentKey:       key,
		Filename:          res.Filename,
		ContentType:       res.ContentType,
		SizeBytes:         len(res.Document),
		TemplatePath:      res.Template.Path,
		TemplateSource:    string(res.Template.Source),
		FindingsRows:      res.FindingsRows,
		ImagesEmbedded:    res.ImagesEmbedded,
		ImagesSkipped:     res.ImagesSkipped,
		DeficienciesCount: res.Deficiencies,
	}
	output.ExportID = h.recordExport(input, res, output, exportedAt)
	return output, nil
}

// recordExport writes the audit row and the search document. Failures are logged and dropped.
func (h *Handler) recordExport(input *Input, res *assembler.Result, out *Output, exportedAt time.Time) string {
	timeout := h.config.AuditTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	exportID := uuid.NewString()
	trade := assembler.EffectiveTrade(input.Trade, res.Record)

	if h.deps.Audit != nil {
		_, err := h.deps.Audit.Record(ctx, &audit.Export{
			ID:             exportID,
			DocumentKey:    out.DocumentKey,
			Tenant:         input.TenantID,
			Trade:          trade,
			ProjectName:    res.Record.ProjectName,
			Filename:       out.Filename,
			TemplatePath:   out.TemplatePath,
			TemplateSource: out.TemplateSource,
			SizeBytes:      out.SizeBytes,
			FindingsRows:   out.FindingsRows,
			ImagesEmbedded: out.ImagesEmbedded,
			ImagesSkipped:  out.ImagesSkipped,
			Deficiencies:   out.DeficienciesCount,
			CreatedAt:      exportedAt,
		})
		if err != nil {
			h.logger.Warn("export audit failed", map[string]interface{}{
				"documentKey": out.DocumentKey,
				"error":       err.Error(),
			})
		}
	}

	if h.deps.Index != nil {
		deficiencies := make([]string, 0, len(res.Record.Deficiencies))
		for _, d := range res.Record.Deficiencies {
			deficiencies = append(deficiencies, d.Text)
		}
		err := h.deps.Index.Index(ctx, &exportindex.Summary{
			ExportID:       exportID,
			DocumentKey:    out.DocumentKey,
			Tenant:         input.TenantID,
			Trade:          trade,
			ProjectName:    res.Record.ProjectName,
			InspectionDate: res.Record.InspectionDate,
			Filename:       out.Filename,
			TemplateSource: out.TemplateSource,
			Deficiencies:   deficiencies,
			Summary:        res.Record.DeficienciesSummary,
			FindingsRows:   out.FindingsRows,
			ImagesEmbedded: out.ImagesEmbedded,
			ExportedAt:     exportedAt,
		})
		if err != nil {
			h.logger.Warn("export indexing failed", map[string]interface{}{
				"documentKey": out.DocumentKey,
				"error":       err.Error(),
			})
		}
	}
	return exportID
}

func mapAssemblyError(err error) error {
	switch {
	case stderrors.Is(err, template.ErrTemplateNotFound):
		return errors.NewTemplateNotFoundError(err.Error())
	case stderrors.Is(err, docfill.ErrTemplateLoad):
		return errors.NewTemplateLoadError(err)
	default:
		return errors.NewInternalError(err)
	}
}
