package errors

import (
	"context"
	"time"
)

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler normalizes errors surfaced to the presentation layer, logs
// them with their category and invokes onFatal once a fatal error is seen.
type ErrorHandler struct {
	logger  Logger
	onFatal func(*StandardError)
}

func NewErrorHandler(logger Logger, onFatal func(*StandardError)) *ErrorHandler {
	return &ErrorHandler{logger: logger, onFatal: onFatal}
}

func (h *ErrorHandler) Handle(ctx context.Context, operation string, err error) *StandardError {
	stdErr := h.normalizeError(err)

	h.logError(ctx, operation, stdErr)

	if IsFatal(stdErr) && h.onFatal != nil {
		h.onFatal(stdErr)
	}
	return stdErr
}

func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

type requestIDKey struct{}

// ContextWithRequestID attaches the request id that logError reports.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

func (h *ErrorHandler) logError(ctx context.Context, operation string, stdErr *StandardError) {
	fields := map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"fatal":         IsFatal(stdErr),
	}
	if id := RequestIDFrom(ctx); id != "" {
		fields["requestId"] = id
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}
	h.logger.Error("request failed", fields)
}
