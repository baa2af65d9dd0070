// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler turns worker errors into Zeebe fail or throw-error commands.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decision is the outcome for a failed job: either fail with retries, or throw a BPMN error.
type Decision struct {
	Throw   bool
	Retries int32
	BPMN    *BPMNError
	Std     *StandardError
}

// Decide picks between retrying and throwing. jobRetries is the job's remaining retry count.
func Decide(err error, jobRetries int32) Decision {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	if bpmnErr.Retries > 0 && jobRetries > 1 {
		remaining := jobRetries - 1
		if remaining > int32(bpmnErr.Retries) {
			remaining = int32(bpmnErr.Retries)
		}
		return Decision{Retries: remaining, BPMN: bpmnErr, Std: stdErr}
	}
	return Decision{Throw: true, BPMN: bpmnErr, Std: stdErr}
}

// Normalize unwraps a StandardError from err, or wraps err as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternalError,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HandleJobError handles any error in a worker job
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	d := Decide(err, job.Retries)
	h.logError(job, d)

	varsJSON, _ := json.Marshal(d.BPMN.ToErrorVariables())

	if d.Throw {
		cmd := client.NewThrowErrorCommand().
			JobKey(job.Key).
			ErrorCode(d.BPMN.Code).
			ErrorMessage(d.BPMN.Message)
		if withVars, verr := cmd.VariablesFromString(string(varsJSON)); verr == nil {
			_, _ = withVars.Send(ctx)
			return
		}
		_, _ = cmd.Send(ctx)
		return
	}

	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(d.Retries).
		ErrorMessage(d.BPMN.Message + ": " + d.BPMN.Details)
	if withVars, verr := cmd.VariablesFromString(string(varsJSON)); verr == nil {
		_, _ = withVars.Send(ctx)
		return
	}
	_, _ = cmd.Send(ctx)
}

func (h *ErrorHandler) logError(job entities.Job, d Decision) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(d.Std.Code),
		"bpmnErrorCode":    d.BPMN.Code,
		"message":          d.BPMN.Message,
		"details":          d.Std.Details,
		"retryable":        d.Std.Retryable,
		"throw":            d.Throw,
		"retries":          d.Retries,
		"errorCategory":    GetErrorCategory(d.Std.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
