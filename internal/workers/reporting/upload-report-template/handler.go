// internal/workers/reporting/upload-report-template/handler.go
package uploadreporttemplate

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"report-workers/internal/common/camunda"
	"report-workers/internal/common/errors"
	"report-workers/internal/common/logger"
	"report-workers/internal/common/metrics"
	"report-workers/internal/common/validation"
	"report-workers/internal/report/docfill"
	"report-workers/internal/report/template"
)

const (
	TaskType = "report.upload-template"
)

type Handler struct {
	config    *Config
	store     *template.Store
	validator *validation.Validator
	logger    logger.Logger
}

func NewHandler(config *Config, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		store:     template.NewStore(template.Layout{Root: config.TemplatesRoot}, docfill.Validate, log),
		validator: validator,
		logger:    log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

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

// Execute decodes the uploaded bytes, checks that they are a usable document and writes them
// into the template slot for the destination.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	dest, err := template.ParseDestination(strings.ToLower(strings.TrimSpace(input.Destination)))
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input.ContentBase64))
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("contentBase64: %v", err))
	}
	if len(data) == 0 {
		return nil, errors.NewInvalidInputError("contentBase64 is empty")
	}
	if len(data) > h.config.MaxSizeBytes {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("template is %d bytes, limit is %d", len(data), h.config.MaxSizeBytes))
	}

	path, err := h.store.Save(ctx, dest, input.TenantID, input.Trade, data)
	if err != nil {
		switch {
		case stderrors.Is(err, template.ErrInvalidTemplate):
			return nil, errors.NewTemplateValidationError(err.Error())
		case ctx.Err() != nil:
			return nil, errors.NewInternalError(err)
		case stderrors.Is(err, template.ErrUnnamedSlot):
			return nil, errors.NewInvalidInputError(err.Error())
		default:
			return nil, errors.NewTemplateStoreError(err)
		}
	}

	metrics.TemplateUploadBytes.WithLabelValues(string(dest)).Observe(float64(len(data)))
	return &Output{TemplatePath: path, SizeBytes: len(data)}, nil
}
