// internal/workers/reporting/release-report-document/handler.go
package releasereportdocument

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"report-workers/internal/common/camunda"
	"report-workers/internal/common/errors"
	"report-workers/internal/common/logger"
	"report-workers/internal/common/validation"
	"report-workers/internal/report/docstore"
)

const (
	TaskType = "report.release-document"
)

// DocumentStore is the part of docstore.Store the release step needs.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*docstore.Document, error)
	Delete(ctx context.Context, id string) error
}

// Handler drops a generated document from the hand-off store once the process has delivered
// it, instead of waiting for the TTL.
type Handler struct {
	config    *Config
	documents DocumentStore
	validator *validation.Validator
	logger    logger.Logger
}

func NewHandler(config *Config, documents DocumentStore, validator *validation.Validator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		documents: documents,
		validator: validator,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	key := strings.TrimSpace(input.DocumentKey)
	if key == "" {
		return nil, errors.NewInvalidInputError("documentKey is required")
	}

	doc, err := h.documents.Get(ctx, key)
	if err != nil {
		return nil, storeError(key, err)
	}
	if err := h.documents.Delete(ctx, key); err != nil {
		return nil, storeError(key, err)
	}

	h.logger.Info("document released", map[string]interface{}{
		"documentKey": key,
		"filename":    doc.Filename,
	})
	return &Output{
		DocumentKey: key,
		Filename:    doc.Filename,
		SizeBytes:   len(doc.Data),
		Released:    true,
	}, nil
}

func storeError(key string, err error) error {
	if stderrors.Is(err, docstore.ErrDocumentNotFound) {
		return errors.NewDocumentNotFoundError(key)
	}
	return errors.NewDocumentStoreError(err)
}
