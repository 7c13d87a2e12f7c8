// Package errors provides standardized error handling for the matching
// engine and its BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeJobNotFound          ErrorCode = "JOB_NOT_FOUND"
	ErrCodeCandidateNotFound    ErrorCode = "CANDIDATE_NOT_FOUND"
	ErrCodeNoCandidates         ErrorCode = "NO_CANDIDATES"
	ErrCodeEmbeddingUnavailable ErrorCode = "EMBEDDING_UNAVAILABLE"
	ErrCodeRetrainInProgress    ErrorCode = "RETRAIN_IN_PROGRESS"
	ErrCodeWeightProfileCorrupt ErrorCode = "WEIGHT_PROFILE_CORRUPT"
	ErrCodePredictionWriteFailed ErrorCode = "PREDICTION_WRITE_FAILED"
	ErrCodeFeedbackWriteFailed   ErrorCode = "FEEDBACK_WRITE_FAILED"
	ErrCodeQueryExecutionFailed  ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeSearchQueryFailed     ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured engine error.
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

// Is lets callers match on code with errors.Is.
func (e *StandardError) Is(target error) bool {
	var t *StandardError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// CodeOf extracts the error code, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// NewInvalidInputError rejects a malformed request before any scoring runs.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewJobNotFoundError signals an unknown job id. Distinct from a server
// fault: the caller asked about something that does not exist.
func NewJobNotFoundError(jobID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobNotFound,
		Message:   "Job profile not found",
		Details:   fmt.Sprintf("jobId: %s", jobID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCandidateNotFoundError signals an unknown candidate id.
func NewCandidateNotFoundError(candidateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateNotFound,
		Message:   "Candidate profile not found",
		Details:   fmt.Sprintf("candidateId: %s", candidateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoCandidatesError is the explicit empty-result status for a legitimate
// "nothing to match" case.
func NewNoCandidatesError(jobID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoCandidates,
		Message:   "No candidates available to match",
		Details:   fmt.Sprintf("jobId: %s", jobID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingUnavailableError marks a provider timeout or failure. The
// affected component score falls back to neutral; the request is annotated
// degraded rather than failed.
func NewEmbeddingUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingUnavailable,
		Message:   "Embedding provider unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRetrainInProgressError rejects a concurrent retrain with a specific
// conflict signal.
func NewRetrainInProgressError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRetrainInProgress,
		Message:   "A retrain run is already in flight",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWeightProfileCorruptError flags a cached weight set that failed its
// invariant checks. The profile is discarded and recomputed from defaults.
func NewWeightProfileCorruptError(tenantID string, sum float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeightProfileCorrupt,
		Message:   "Cached weight profile failed invariant checks",
		Details:   fmt.Sprintf("tenantId: %s, weightSum: %.4f", tenantID, sum),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPredictionWriteFailedError surfaces a prediction persistence failure.
// Never swallowed: learning quality depends on a complete history.
func NewPredictionWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePredictionWriteFailed,
		Message:   "Failed to persist prediction",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFeedbackWriteFailedError surfaces a feedback persistence failure.
func NewFeedbackWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFeedbackWriteFailed,
		Message:   "Failed to persist feedback event",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable database error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable candidate search error.
func NewSearchQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Candidate pool search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
