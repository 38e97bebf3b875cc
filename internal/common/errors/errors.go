// Package errors provides standardized error handling for the matching pipeline and its
// BPMN workflow integration.
package errors

import (
	stderrors "errors"
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
	// Input errors: rejected immediately, never coerced.
	ErrCodeInvalidInput              ErrorCode = "INVALID_INPUT"
	ErrCodeDimensionMismatch         ErrorCode = "EMBEDDING_DIMENSION_MISMATCH"
	ErrCodeInvalidPreference         ErrorCode = "INVALID_PREFERENCE"
	ErrCodeInvalidFilterFormat       ErrorCode = "INVALID_FILTER_FORMAT"
	ErrCodeApplicationValidationFail ErrorCode = "APPLICATION_VALIDATION_FAILED"

	// Transient item errors: the affected item is skipped, the batch continues.
	ErrCodeEmbeddingGenerationFailed ErrorCode = "EMBEDDING_GENERATION_FAILED"
	ErrCodeEmbeddingNotFound         ErrorCode = "EMBEDDING_NOT_FOUND"
	ErrCodeEntityNotFound            ErrorCode = "ENTITY_NOT_FOUND"
	ErrCodeQueryExecutionFailed      ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed      ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeSearchQueryFailed         ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeNotificationSendFailed    ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeDuplicateApplication      ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeDailyLimitReached         ErrorCode = "DAILY_LIMIT_REACHED"
	ErrCodeWorkflowEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"

	// Configuration / fatal errors: abort the run.
	ErrCodeProviderNotConfigured         ErrorCode = "PROVIDER_NOT_CONFIGURED"
	ErrCodeDatabaseConnectionFailed      ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeRunFailed                     ErrorCode = "MATCHING_RUN_FAILED"
)

// Category groups error codes by how the pipeline reacts to them.
type Category string

const (
	CategoryInput     Category = "INPUT"
	CategoryTransient Category = "TRANSIENT"
	CategoryFatal     Category = "FATAL"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Category  Category               `json:"category"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata attaches a metadata key and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sentinels usable with errors.Is; they match by code.
var (
	ErrInvalidInput          = &StandardError{Code: ErrCodeInvalidInput}
	ErrDimensionMismatch     = &StandardError{Code: ErrCodeDimensionMismatch}
	ErrInvalidPreference     = &StandardError{Code: ErrCodeInvalidPreference}
	ErrEmbeddingNotFound     = &StandardError{Code: ErrCodeEmbeddingNotFound}
	ErrEntityNotFound        = &StandardError{Code: ErrCodeEntityNotFound}
	ErrDuplicateApplication  = &StandardError{Code: ErrCodeDuplicateApplication}
	ErrDailyLimitReached     = &StandardError{Code: ErrCodeDailyLimitReached}
	ErrProviderNotConfigured = &StandardError{Code: ErrCodeProviderNotConfigured}
	ErrDatabaseConnection    = &StandardError{Code: ErrCodeDatabaseConnectionFailed}
)

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
	vars := make(map[string]interface{}, len(e.ErrorVariables)+4)
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	vars["errorCode"] = e.Code
	vars["errorMessage"] = e.Message
	vars["errorDetails"] = e.Details
	vars["retryable"] = e.Retryable

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: GetRetryCount(code) > 0,
		Category:  GetErrorCategory(code),
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidInputError creates a non-retryable input validation error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, nil)
}

// NewDimensionMismatchError reports vectors of unequal length.
func NewDimensionMismatchError(left, right int) *StandardError {
	return newError(ErrCodeDimensionMismatch, "Embedding dimension mismatch",
		fmt.Sprintf("left=%d right=%d", left, right), nil)
}

// NewInvalidPreferenceError reports malformed auto-apply preference values.
func NewInvalidPreferenceError(details string) *StandardError {
	return newError(ErrCodeInvalidPreference, "Invalid auto-apply preference", details, nil)
}

// NewInvalidFilterFormatError reports malformed search filters.
func NewInvalidFilterFormatError(details string) *StandardError {
	return newError(ErrCodeInvalidFilterFormat, "Invalid filter format", details, nil)
}

// NewEmbeddingGenerationFailedError wraps a provider failure for a single entity.
func NewEmbeddingGenerationFailedError(entityID string, err error) *StandardError {
	return newError(ErrCodeEmbeddingGenerationFailed, "Embedding generation failed",
		fmt.Sprintf("entityId: %s, error: %v", entityID, err), err)
}

// NewEmbeddingNotFoundError reports a missing stored vector.
func NewEmbeddingNotFoundError(entityType, entityID string) *StandardError {
	return newError(ErrCodeEmbeddingNotFound, "Embedding not found",
		fmt.Sprintf("%s: %s", entityType, entityID), nil)
}

// NewEntityNotFoundError reports a missing candidate, job or preference.
func NewEntityNotFoundError(entity, id string) *StandardError {
	return newError(ErrCodeEntityNotFound, "Entity not found", fmt.Sprintf("%s: %s", entity, id), nil)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %v", queryType, err), err)
}

// NewDatabaseInsertFailedError creates a retryable write error.
func NewDatabaseInsertFailedError(table string, err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database write failed",
		fmt.Sprintf("table: %s, error: %v", table, err), err)
}

// NewSearchQueryFailedError wraps a vector store query failure.
func NewSearchQueryFailedError(backend string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Vector search failed",
		fmt.Sprintf("backend: %s, error: %v", backend, err), err)
}

// NewNotificationSendFailedError wraps a notification channel failure.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %v", channel, err), err)
}

// NewDuplicateApplicationError reports a unique-constraint hit on applications.
func NewDuplicateApplicationError(candidateID, jobPostingID string) *StandardError {
	return newError(ErrCodeDuplicateApplication, "Application already exists",
		fmt.Sprintf("candidateId: %s, jobPostingId: %s", candidateID, jobPostingID), nil)
}

// NewDailyLimitReachedError reports an insert refused because the candidate's daily cap is met.
func NewDailyLimitReachedError(candidateID string, maxPerDay int) *StandardError {
	return newError(ErrCodeDailyLimitReached, "Daily application limit reached",
		fmt.Sprintf("candidateId: %s, max: %d", candidateID, maxPerDay), nil)
}

// NewWorkflowEngineError wraps a failed Zeebe gateway call.
func NewWorkflowEngineError(operation string, err error) *StandardError {
	return newError(ErrCodeWorkflowEngineUnavailable, "Workflow engine call failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), err)
}

// NewProviderNotConfiguredError reports missing provider credentials or settings.
func NewProviderNotConfiguredError(provider, details string) *StandardError {
	return newError(ErrCodeProviderNotConfigured, fmt.Sprintf("Provider '%s' is not configured", provider), details, nil)
}

// NewDatabaseConnectionFailedError reports an unreachable store.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", errString(err), err)
}

// NewElasticsearchConnectionFailedError reports an unreachable Elasticsearch cluster.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", errString(err), err)
}

// NewRunFailedError summarizes a failed matching run. Details carry only the cause's
// operator message; the full chain stays reachable through Unwrap.
func NewRunFailedError(runID string, err error) *StandardError {
	return newError(ErrCodeRunFailed, "Matching run failed",
		fmt.Sprintf("runId: %s, cause: %s, error: %s", runID, CodeOf(err), OperatorMessage(err)), err)
}

// OperatorMessage renders err for run records and workflow variables. Coded errors yield
// their Message only, so provider and driver payloads kept in Details stay out.
func OperatorMessage(err error) string {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Message
	}
	return err.Error()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Classification
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:                  "INVALID_INPUT",
	ErrCodeDimensionMismatch:             "EMBEDDING_DIMENSION_MISMATCH",
	ErrCodeInvalidPreference:             "INVALID_PREFERENCE",
	ErrCodeInvalidFilterFormat:           "INVALID_FILTER_FORMAT",
	ErrCodeEmbeddingGenerationFailed:     "EMBEDDING_GENERATION_FAILED",
	ErrCodeEmbeddingNotFound:             "EMBEDDING_NOT_FOUND",
	ErrCodeEntityNotFound:                "ENTITY_NOT_FOUND",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeDatabaseInsertFailed:          "DATABASE_INSERT_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
	ErrCodeDuplicateApplication:          "DUPLICATE_APPLICATION",
	ErrCodeDailyLimitReached:             "DAILY_LIMIT_REACHED",
	ErrCodeWorkflowEngineUnavailable:     "WORKFLOW_ENGINE_UNAVAILABLE",
	ErrCodeProviderNotConfigured:         "PROVIDER_NOT_CONFIGURED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeRunFailed:                     "MATCHING_RUN_FAILED",
}

// GetRetryCount returns how many times a job failing with the code should be retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeWorkflowEngineUnavailable,
		ErrCodeRunFailed:
		return 3

	case ErrCodeEmbeddingGenerationFailed,
		ErrCodeNotificationSendFailed:
		return 2

	default:
		return 0
	}
}

// GetErrorCategory maps a code to the pipeline's error taxonomy.
func GetErrorCategory(code ErrorCode) Category {
	switch code {
	case ErrCodeInvalidInput,
		ErrCodeDimensionMismatch,
		ErrCodeInvalidPreference,
		ErrCodeInvalidFilterFormat,
		ErrCodeApplicationValidationFail:
		return CategoryInput
	case ErrCodeProviderNotConfigured,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeRunFailed:
		return CategoryFatal
	}

	codeStr := string(code)
	if strings.HasPrefix(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") {
		return CategoryInput
	}
	return CategoryTransient
}

// ConvertToBPMNError converts a StandardError into its BPMN representation.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := make(map[string]interface{}, len(stdErr.Metadata)+3)
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}
	vars["originalErrorCode"] = string(stdErr.Code)
	vars["errorCategory"] = string(stdErr.Category)
	vars["timestamp"] = stdErr.Timestamp.Format(time.RFC3339)

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// AsStandardError extracts a StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsFatal reports whether err aborts a matching run.
func IsFatal(err error) bool {
	stdErr, ok := AsStandardError(err)
	return ok && GetErrorCategory(stdErr.Code) == CategoryFatal
}

// IsInputError reports whether err is an input validation failure.
func IsInputError(err error) bool {
	stdErr, ok := AsStandardError(err)
	return ok && GetErrorCategory(stdErr.Code) == CategoryInput
}

// CodeOf returns the code of the first StandardError in the chain, or "INTERNAL_ERROR".
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return "INTERNAL_ERROR"
}
