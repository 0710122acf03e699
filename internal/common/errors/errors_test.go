package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	msgs   []string
	fields []map[string]interface{}
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.msgs = append(l.msgs, msg)
	l.fields = append(l.fields, fields)
}

func TestStandardError_IsAndAs(t *testing.T) {
	sentinel := &StandardError{Code: ErrCodeLookupFailed}
	err := fmt.Errorf("lookup 123: %w", NewLookupFailedError("123", "timeout"))

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, &StandardError{Code: ErrCodeValidationFailed}))

	stdErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "timeout", stdErr.Metadata["reason"])
	assert.Equal(t, "CNES não encontrado ou erro na API.", stdErr.Message)
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDatabaseConnectionFailedError(cause)
	assert.ErrorIs(t, err, cause)

	wrapped := WrapConfigurationError("read file", cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Details, "connection refused")
}

func TestCodeOfAndFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     ErrorCode
		fatal    bool
		status   int
		category string
	}{
		{"configuration", NewConfigurationError("x"), ErrCodeConfigurationInvalid, true, http.StatusServiceUnavailable, "CONFIGURATION"},
		{"connection", NewDatabaseConnectionFailedError(errors.New("x")), ErrCodeDatabaseConnectionFailed, true, http.StatusServiceUnavailable, "DATABASE"},
		{"query", NewQueryExecutionFailedError("rows", errors.New("x")), ErrCodeQueryExecutionFailed, false, http.StatusBadGateway, "DATABASE"},
		{"timeout", NewQueryTimeoutError("rows"), ErrCodeQueryTimeout, false, http.StatusBadGateway, "DATABASE"},
		{"validation", NewValidationError("m", "d"), ErrCodeValidationFailed, false, http.StatusBadRequest, "VALIDATION"},
		{"filter", NewInvalidFilterFormatError("d"), ErrCodeInvalidFilterFormat, false, http.StatusBadRequest, "VALIDATION"},
		{"lookup", NewLookupFailedError("1", "not_found"), ErrCodeLookupFailed, false, http.StatusNotFound, "LOOKUP"},
		{"cache", NewCacheUnavailableError(errors.New("x")), ErrCodeCacheUnavailable, false, http.StatusServiceUnavailable, "CACHE"},
		{"foreign", errors.New("boom"), ErrCodeInternal, false, http.StatusInternalServerError, "OTHER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeOf(tt.err))
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.code))
			assert.Equal(t, tt.category, GetErrorCategory(tt.code))
		})
	}

	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestErrorHandler_Handle(t *testing.T) {
	log := &recordingLogger{}
	var fatal *StandardError
	h := NewErrorHandler(log, func(e *StandardError) { fatal = e })

	ctx := ContextWithRequestID(context.Background(), "req-1")

	got := h.Handle(ctx, "fetch", NewQueryTimeoutError("rows"))
	assert.Equal(t, ErrCodeQueryTimeout, got.Code)
	assert.Nil(t, fatal)

	got = h.Handle(ctx, "fetch", errors.New("boom"))
	assert.Equal(t, ErrCodeInternal, got.Code)
	assert.Nil(t, fatal)

	got = h.Handle(ctx, "fetch", NewConfigurationError("missing credentials"))
	require.NotNil(t, fatal)
	assert.Equal(t, got, fatal)

	require.Len(t, log.fields, 3)
	assert.Equal(t, "req-1", log.fields[0]["requestId"])
	assert.Equal(t, "DATABASE", log.fields[0]["errorCategory"])
	assert.Equal(t, true, log.fields[2]["fatal"])
}

func TestErrorHandler_LookupReasonLogged(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log, nil)

	h.Handle(context.Background(), "lookup", NewLookupFailedError("2077485", "http_status"))
	require.Len(t, log.fields, 1)
	assert.Equal(t, "http_status", log.fields[0]["reason"])
	_, hasRequestID := log.fields[0]["requestId"]
	assert.False(t, hasRequestID)
}
