package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

type ErrorCode string

const (
	ErrCodeConfigurationInvalid ErrorCode = "CONFIGURATION_INVALID"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeInvalidFilterFormat ErrorCode = "INVALID_FILTER_FORMAT"
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"

	ErrCodeLookupFailed ErrorCode = "LOOKUP_FAILED"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the error shape every component returns across package
// boundaries. Retryable tells the caller whether re-triggering the same
// interaction can succeed; nothing in this codebase retries automatically.
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code, so package sentinels
// such as lookup.ErrLookupFailed work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns e with key set in its metadata map.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationInvalid,
		Message:   "Invalid or missing configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func WrapConfigurationError(details string, err error) *StandardError {
	e := NewConfigurationError(fmt.Sprintf("%s: %v", details, err))
	e.cause = err
	return e
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidFilterFormatError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFilterFormat,
		Message:   "Invalid filter format",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewValidationError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLookupFailedError carries the same message for every
// failure reason; reason is kept in Metadata for logs only.
func NewLookupFailedError(identifier, reason string) *StandardError {
	err := &StandardError{
		Code:      ErrCodeLookupFailed,
		Message:   "CNES não encontrado ou erro na API.",
		Details:   fmt.Sprintf("identifier: %s", identifier),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
	return err.WithMetadata("reason", reason)
}

func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Cache store unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// As extracts the first StandardError in err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if stdErr, ok := As(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsFatal reports whether err means the process cannot serve queries until
// its configuration or credentials are fixed.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ErrCodeConfigurationInvalid, ErrCodeDatabaseConnectionFailed:
		return true
	}
	return false
}

func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeConfigurationInvalid:
		return "CONFIGURATION"
	case ErrCodeDatabaseConnectionFailed, ErrCodeQueryExecutionFailed, ErrCodeQueryTimeout:
		return "DATABASE"
	case ErrCodeInvalidFilterFormat, ErrCodeValidationFailed:
		return "VALIDATION"
	case ErrCodeLookupFailed:
		return "LOOKUP"
	case ErrCodeCacheUnavailable:
		return "CACHE"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status the dashboard API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidFilterFormat, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeLookupFailed:
		return http.StatusNotFound
	case ErrCodeQueryExecutionFailed, ErrCodeQueryTimeout:
		return http.StatusBadGateway
	case ErrCodeConfigurationInvalid, ErrCodeDatabaseConnectionFailed, ErrCodeCacheUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
