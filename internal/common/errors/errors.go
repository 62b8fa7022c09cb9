// Package errors provides the service error taxonomy shared by the HTTP API
// and the BPMN job worker.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeDuplicateClient  ErrorCode = "DUPLICATE_CLIENT"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeUploadFailed     ErrorCode = "UPLOAD_FAILED"
	ErrCodeNotifyFailed     ErrorCode = "NOTIFY_FAILED"
	ErrCodeRenderFailed     ErrorCode = "RENDER_FAILED"
	ErrCodeLockFailed       ErrorCode = "LOCK_FAILED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Details)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code, so sentinels like
// ErrUploadFailed work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrBadRequest       = &StandardError{Code: ErrCodeBadRequest}
	ErrDuplicateClient  = &StandardError{Code: ErrCodeDuplicateClient}
	ErrStoreUnavailable = &StandardError{Code: ErrCodeStoreUnavailable}
	ErrUploadFailed     = &StandardError{Code: ErrCodeUploadFailed}
	ErrNotifyFailed     = &StandardError{Code: ErrCodeNotifyFailed}
	ErrRenderFailed     = &StandardError{Code: ErrCodeRenderFailed}
	ErrLockFailed       = &StandardError{Code: ErrCodeLockFailed}
)

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// NewBadRequestError reports malformed caller input.
func NewBadRequestError(message string) *StandardError {
	return newError(ErrCodeBadRequest, message, nil, false)
}

// NewDuplicateClientError reports a client name that already has folders.
func NewDuplicateClientError(clientName string) *StandardError {
	return newError(ErrCodeDuplicateClient, fmt.Sprintf("A client named %q already exists", clientName), nil, false)
}

func NewStoreUnavailableError(operation string, err error) *StandardError {
	e := newError(ErrCodeStoreUnavailable, "Document store unavailable", err, true)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

func NewUploadFailedError(fileName string, err error) *StandardError {
	e := newError(ErrCodeUploadFailed, fmt.Sprintf("Upload of %s failed", fileName), err, true)
	e.Metadata = map[string]interface{}{"file": fileName}
	return e
}

func NewNotifyFailedError(provider string, err error) *StandardError {
	e := newError(ErrCodeNotifyFailed, "Approval notification failed", err, true)
	e.Metadata = map[string]interface{}{"provider": provider}
	return e
}

func NewRenderFailedError(document string, err error) *StandardError {
	e := newError(ErrCodeRenderFailed, fmt.Sprintf("Rendering %s failed", document), err, false)
	e.Metadata = map[string]interface{}{"document": document}
	return e
}

func NewLockFailedError(key string, err error) *StandardError {
	e := newError(ErrCodeLockFailed, "Could not acquire client folder lock", err, true)
	e.Metadata = map[string]interface{}{"key": key}
	return e
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// Normalize returns err as a StandardError, wrapping foreign errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf extracts the error code, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	return Normalize(err).Code
}

// HTTPStatus maps an error code to the HTTP status returned to callers.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeDuplicateClient:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Describe returns the caller-visible description of err. With exposeDetails
// the raw provider message is echoed, otherwise only the error code.
func Describe(err error, exposeDetails bool) string {
	if exposeDetails {
		return err.Error()
	}
	return string(CodeOf(err))
}

// ==========================
// BPMN Error Integration
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

// GetRetryCount returns the job retry budget for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable, ErrCodeUploadFailed, ErrCodeNotifyFailed:
		return 3
	case ErrCodeLockFailed:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "UPLOAD"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFY"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "RENDER"):
		return "DOCUMENT"
	case code == ErrCodeBadRequest || code == ErrCodeDuplicateClient:
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
