// internal/workers/reporting/select-report-template/handler.go
package selectreporttemplate

import (
	"context"
	stderrors "errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"report-workers/internal/common/camunda"
	"report-workers/internal/common/errors"
	"report-workers/internal/common/logger"
	"report-workers/internal/common/naming"
	"report-workers/internal/common/validation"
	"report-workers/internal/report/assembler"
	"report-workers/internal/report/template"
)

const (
	TaskType = "report.select-template"
)

type Handler struct {
	config    *Config
	resolver  *template.Resolver
	validator *validation.Validator
	logger    logger.Logger
}

func NewHandler(config *Config, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		resolver:  template.NewResolver(template.Layout{Root: config.TemplatesRoot}, log),
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

// Execute resolves the template for the input's trade and tenant. An empty trade means the
// default trade.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewInternalError(err)
	}

	trade := assembler.EffectiveTrade(input.Trade, nil)
	desc, err := h.resolver.Resolve(trade, input.TenantID)
	if err != nil {
		if stderrors.Is(err, template.ErrTemplateNotFound) {
			return nil, errors.NewTemplateNotFoundError(err.Error()).
				WithMetadata("trade", trade).
				WithMetadata("tenantId", input.TenantID)
		}
		return nil, errors.NewInternalError(err)
	}

	return &Output{
		TemplatePath: desc.Path,
		Source:       string(desc.Source),
		TenantSlug:   naming.Slug(input.TenantID),
		TradeSlug:    naming.Slug(desc.Trade),
	}, nil
}
