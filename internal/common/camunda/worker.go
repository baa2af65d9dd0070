// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"report-workers/internal/common/errors"
	"report-workers/internal/common/logger"
	"report-workers/internal/common/metrics"
	"report-workers/internal/common/validation"
)

type JobHandler = worker.JobHandler

type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. Every job is counted as active and timed.
func NewWorker(client zbc.Client, taskType string, opts WorkerOptions, handler JobHandler, log logger.Logger) *CamundaWorker {
	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler))
	if opts.MaxJobsActive > 0 {
		builder = builder.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		builder = builder.Timeout(opts.Timeout)
	}

	w := &CamundaWorker{
		worker:   builder.Open(),
		logger:   log.With(map[string]interface{}{"taskType": taskType}),
		taskType: taskType,
	}
	w.logger.Info("worker started", map[string]interface{}{
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})
	return w
}

// Instrument wraps handler with the active-jobs gauge and duration histogram.
func Instrument(taskType string, handler JobHandler) JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		done := metrics.Track(taskType)
		defer done()
		handler(client, job)
	}
}

func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}

// CompleteJob completes job with output as its variables.
func CompleteJob(client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		log.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		FailJob(client, job, errors.NewInternalError(err), log)
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		log.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.JobCompleted(job.Type)
}

// FailJob hands err to the shared error handler, which throws a BPMN error or fails the job
// with retries.
func FailJob(client worker.JobClient, job entities.Job, err error, log logger.Logger) {
	std := errors.Normalize(err)
	metrics.JobFailed(job.Type, string(std.Code))
	errors.NewErrorHandler(log).HandleJobError(context.Background(), client, job, err)
}

// DecodeVariables validates the job variables against the registered input schema for the job
// type and unmarshals them into dst. Both failures are INVALID_INPUT errors. v may be nil.
func DecodeVariables(job entities.Job, dst interface{}, v *validation.Validator) error {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &raw); err != nil {
		return errors.NewInvalidInputError("parse input: " + err.Error())
	}
	if err := v.ValidateInput(job.Type, raw).Err(); err != nil {
		return errors.NewInvalidInputError(err.Error())
	}
	if err := json.Unmarshal([]byte(job.Variables), dst); err != nil {
		return errors.NewInvalidInputError("parse input: " + err.Error())
	}
	return nil
}
