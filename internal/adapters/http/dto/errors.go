// Package dto provides Data Transfer Objects for HTTP request/response handling.
package dto

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// ErrorResponse is the envelope every error response uses.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	// Code is machine-readable, e.g. "NOT_FOUND".
	Code string `json:"code"`

	Message string `json:"message"`

	// Details holds field-level messages for validation failures.
	Details map[string]string `json:"details,omitempty"`
}

// Error codes.
const (
	ErrorCodeNotFound         = "NOT_FOUND"
	ErrorCodeConflict         = "CONFLICT"
	ErrorCodeValidation       = "VALIDATION_ERROR"
	ErrorCodeParse            = "PARSE_ERROR"
	ErrorCodeUnavailable      = "SERVICE_UNAVAILABLE"
	ErrorCodeInternal         = "INTERNAL_ERROR"
	ErrorCodeTimeout          = "TIMEOUT"
	ErrorCodeBadRequest       = "BAD_REQUEST"
	ErrorCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrorCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// ContextKeyTraceID lets callers pin the trace ID reported in errors.
const ContextKeyTraceID = "trace_id"

// NewErrorResponse creates an error response.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// NewErrorResponseWithDetails creates an error response with field details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}}
}

// WithTraceID sets the trace ID.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}

// HTTPStatusFromCode maps error codes to HTTP status codes.
func HTTPStatusFromCode(code string) int {
	switch code {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodeValidation, ErrorCodeParse, ErrorCodeBadRequest:
		return http.StatusBadRequest
	case ErrorCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrorCodeUnavailable, ErrorCodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MapDomainError maps an error to a status and envelope. Unknown errors get
// a generic message so internals do not leak.
func MapDomainError(err error) (int, *ErrorResponse) {
	var tooLarge *http.MaxBytesError

	switch {
	case err == nil:
		return http.StatusOK, nil
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, NewErrorResponse(ErrorCodePayloadTooLarge, "request body too large")
	case domain.IsValidation(err):
		resp := NewErrorResponse(ErrorCodeValidation, err.Error())

		var ve *domain.ValidationError
		if errors.As(err, &ve) && ve.Field != "" {
			resp.Error.Details = map[string]string{ve.Field: ve.Message}
		}

		return http.StatusBadRequest, resp
	case domain.IsParse(err):
		return http.StatusBadRequest, NewErrorResponse(ErrorCodeParse, err.Error())
	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())
	case domain.IsConflict(err):
		return http.StatusConflict, NewErrorResponse(ErrorCodeConflict, err.Error())
	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, "service temporarily unavailable")
	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
	}
}

// HandleError writes the envelope for err and records it on the gin context.
// Server-side failures are logged with the full error.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		ctx := c.Request.Context()
		logging.FromContext(ctx).ErrorContext(ctx, "request failed",
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}

	c.AbortWithStatusJSON(status, resp)
}

// RespondWithCode writes an envelope for an adapter-level failure that has no
// domain error behind it.
func RespondWithCode(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), NewErrorResponse(code, message).WithTraceID(GetTraceID(c)))
}

// GetTraceID returns the ID to report to the client: one pinned on the gin
// context, else the active OpenTelemetry trace, else X-Request-ID.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(ContextKeyTraceID); ok {
		if s, ok := v.(string); ok {
			return s
		}

		return ""
	}

	if c.Request == nil {
		return ""
	}

	if id := TraceID(c.Request.Context()); id != "" {
		return id
	}

	return c.GetHeader("X-Request-ID")
}

// TraceID returns the active OpenTelemetry trace ID, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}
