// internal/workers/reporting/generate-report-text/handler.go
package generatereporttext

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"report-workers/internal/common/camunda"
	"report-workers/internal/common/errors"
	commonhttp "report-workers/internal/common/http"
	"report-workers/internal/common/logger"
	"report-workers/internal/common/validation"
	"report-workers/internal/report/tradeconfig"
)

const (
	TaskType = "report.generate-text"

	generatePath = "/api/ai/generate"

	systemPreamble = "You are a NYC special inspector writing a concise inspection report.\n" +
		"Use professional NYC DOB special inspection style, referencing:\n" +
		"- Project name and location\n" +
		"- Trade (welding / bolting / detail)\n" +
		"- Area inspected, gridlines, and drawing/detail references\n" +
		"- Observations and acceptance/rejection\n" +
		"- Conclusion summarizing status.\n\n" +
		"TRADE-SPECIFIC INSTRUCTIONS:\n"

	instruction = "Return a JSON object with keys: " +
		"project_name, inspection_date, trade, area_inspected, " +
		"reference_drawing, reference_detail, reference_details, " +
		"overall_summary, detailed_findings, conclusion, " +
		"inspector_notes, previous_deficiencies_resolved."
)

var (
	ErrGenerationTimeout = stderrors.New("GENERATION_TIMEOUT")
	ErrGenerationFailed  = stderrors.New("GENERATION_FAILED")
)

type Handler struct {
	config    *Config
	client    *commonhttp.Client
	trades    tradeconfig.Store
	validator *validation.Validator
	logger    logger.Logger
}

func NewHandler(config *Config, trades tradeconfig.Store, validator *validation.Validator, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		// The job context carries the deadline.
		client:    commonhttp.NewClient(0),
		trades:    trades,
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
		camunda.FailJob(client, job, toStandardError(err), h.logger)
		return
	}
	camunda.CompleteJob(client, job, output, h.logger)
}

// Execute drafts the report text for input. Fields the model leaves out are filled from the
// input, so the caller's values never override what the model wrote.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	trade := tradeconfig.Key(input.Trade)
	if trade == "" {
		trade = tradeconfig.FallbackTrade
	}
	cfg := tradeconfig.Lookup(ctx, h.trades, trade)

	prompt, err := buildPrompt(input, trade, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	text, err := h.generate(ctx, &generateRequest{
		System:         systemPreamble + cfg.SystemPrompt,
		Prompt:         prompt,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	report, err := parseReport(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	mergeDefaults(report, input, trade)

	h.logger.Info("report text generated", map[string]interface{}{
		"trade":    trade,
		"keys":     len(report),
		"findings": countFindings(report),
	})
	return &Output{Report: report}, nil
}

func (h *Handler) generate(ctx context.Context, req *generateRequest) (string, error) {
	url := strings.TrimRight(h.config.GenAIBaseURL, "/") + generatePath
	headers := map[string]string{}
	if h.config.GenAIAPIKey != "" {
		headers["Authorization"] = "Bearer " + h.config.GenAIAPIKey
	}

	var lastErr error
	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := h.config.RetryBackoff * time.Duration(1<<(attempt-1))
			h.logger.Warn("generation failed, retrying", map[string]interface{}{
				"attempt": attempt,
				"backoff": backoff.String(),
				"error":   lastErr.Error(),
			})
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrGenerationTimeout
			}
		}

		var resp generateResponse
		err := h.client.PostJSON(ctx, url, headers, req, &resp)
		if err == nil {
			return resp.Text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ErrGenerationTimeout
		}
		var statusErr *commonhttp.StatusError
		if stderrors.As(err, &statusErr) && !statusErr.Temporary() {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
}

func buildPrompt(input *Input, trade string, cfg tradeconfig.TradeConfig) (string, error) {
	payload := map[string]interface{}{
		"project_name":       input.ProjectName,
		"inspection_date":    input.InspectionDate,
		"trade":              trade,
		"area_inspected":     input.AreaInspected,
		"reference_drawing":  input.ReferenceDrawing,
		"reference_detail":   input.ReferenceDetail,
		"reference_details":  input.ReferenceDetails,
		"inspector_notes":    input.InspectorNotes,
		"checklist_template": cfg.ChecklistTemplate,
	}
	if len(input.ImageDescriptions) > 0 {
		payload["image_descriptions"] = input.ImageDescriptions
	}
	data, err := json.Marshal(map[string]interface{}{
		"instruction": instruction,
		"context":     payload,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseReport decodes the model text, which must be a JSON object. An empty reply counts as {}.
func parseReport(text string) (map[string]interface{}, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]interface{}{}, nil
	}
	var report map[string]interface{}
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, fmt.Errorf("model reply is not a JSON object: %w", err)
	}
	if report == nil {
		report = map[string]interface{}{}
	}
	return report, nil
}

func mergeDefaults(report map[string]interface{}, input *Input, trade string) {
	defaults := []struct {
		key   string
		value interface{}
	}{
		{"project_name", input.ProjectName},
		{"inspection_date", input.InspectionDate},
		{"trade", trade},
		{"area_inspected", input.AreaInspected},
		{"reference_drawing", input.ReferenceDrawing},
		{"reference_detail", input.ReferenceDetail},
		{"reference_details", input.ReferenceDetails},
		{"inspector_notes", input.InspectorNotes},
		{"overall_summary", ""},
		{"detailed_findings", []interface{}{}},
		{"conclusion", ""},
		{"previous_deficiencies_resolved", ""},
	}
	for _, d := range defaults {
		if _, ok := report[d.key]; !ok {
			report[d.key] = d.value
		}
	}
}

func countFindings(report map[string]interface{}) int {
	if list, ok := report["detailed_findings"].([]interface{}); ok {
		return len(list)
	}
	return 0
}

func toStandardError(err error) error {
	switch {
	case stderrors.Is(err, ErrGenerationTimeout):
		return errors.NewGenerationTimeoutError(err.Error())
	case stderrors.Is(err, ErrGenerationFailed):
		return errors.NewGenerationFailedError(err)
	default:
		return err
	}
}
