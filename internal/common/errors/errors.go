// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeTemplateNotFound         ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateLoadFailed       ErrorCode = "TEMPLATE_LOAD_FAILED"
	ErrCodeTemplateValidationFailed ErrorCode = "TEMPLATE_VALIDATION_FAILED"
	ErrCodeTemplateStoreFailed      ErrorCode = "TEMPLATE_STORE_FAILED"

	ErrCodeImageDecodeFailed ErrorCode = "IMAGE_DECODE_FAILED"

	ErrCodeDocumentStoreFailed ErrorCode = "DOCUMENT_STORE_FAILED"
	ErrCodeDocumentNotFound    ErrorCode = "DOCUMENT_NOT_FOUND"

	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"

	ErrCodeGenerationFailed  ErrorCode = "GENERATION_FAILED"
	ErrCodeGenerationTimeout ErrorCode = "GENERATION_TIMEOUT"

	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value that is forwarded as a BPMN error variable.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError carries the path an operator has to create.
func NewTemplateNotFoundError(details string) *StandardError {
	return newError(ErrCodeTemplateNotFound, "No report template available", details, false)
}

// NewTemplateLoadError is raised when the resolved file is not a usable document.
func NewTemplateLoadError(err error) *StandardError {
	return newError(ErrCodeTemplateLoadFailed, "Report template could not be loaded", err.Error(), false)
}

func NewTemplateValidationError(details string) *StandardError {
	return newError(ErrCodeTemplateValidationFailed, "Uploaded template is not a valid document", details, false)
}

func NewTemplateStoreError(err error) *StandardError {
	return newError(ErrCodeTemplateStoreFailed, "Template could not be written", err.Error(), true)
}

func NewDocumentStoreError(err error) *StandardError {
	return newError(ErrCodeDocumentStoreFailed, "Generated document could not be stored", err.Error(), true)
}

func NewDocumentNotFoundError(key string) *StandardError {
	return newError(ErrCodeDocumentNotFound, "Generated document expired or unknown", key, false)
}

func NewGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeGenerationFailed, "Report text generation failed", err.Error(), true)
}

func NewGenerationTimeoutError(details string) *StandardError {
	return newError(ErrCodeGenerationTimeout, "Report text generation timed out", details, true)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternalError, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Retry Policy
// ==========================

// BPMNErrorMapping maps internal codes to the error codes modelled on boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeTemplateNotFound:         "TEMPLATE_NOT_FOUND",
	ErrCodeTemplateLoadFailed:       "TEMPLATE_LOAD_FAILED",
	ErrCodeTemplateValidationFailed: "TEMPLATE_VALIDATION_FAILED",
	ErrCodeTemplateStoreFailed:      "TEMPLATE_STORE_FAILED",
	ErrCodeImageDecodeFailed:        "IMAGE_DECODE_FAILED",
	ErrCodeDocumentStoreFailed:      "DOCUMENT_STORE_FAILED",
	ErrCodeDocumentNotFound:         "DOCUMENT_NOT_FOUND",
	ErrCodeDatabaseError:            "DATABASE_ERROR",
	ErrCodeGenerationFailed:         "GENERATION_FAILED",
	ErrCodeGenerationTimeout:        "GENERATION_TIMEOUT",
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeInternalError:            "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDocumentStoreFailed,
		ErrCodeTemplateStoreFailed,
		ErrCodeDatabaseError:
		return 3

	case ErrCodeGenerationFailed:
		return 2

	case ErrCodeGenerationTimeout:
		return 1

	default:
		return 0 // business errors and deterministic assembly failures
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "IMAGE"):
		return "ATTACHMENT"
	case strings.Contains(codeStr, "DOCUMENT"):
		return "STORAGE"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "GENERATION"):
		return "AI"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
