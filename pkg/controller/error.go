package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nimburion/bookshelf/pkg/observability/logger"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Code      string                 `json:"code,omitempty"`
	Message   string                 `json:"message,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// MapError maps err to a status code and response body. Errors that are not
// an *AppError become an opaque 500.
func MapError(ctx context.Context, err error) (int, ErrorResponse) {
	requestID := logger.RequestIDFromContext(ctx)

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, ErrorResponse{
			Error:     "internal_server_error",
			Code:      "internal.error",
			Message:   "an unexpected error occurred",
			RequestID: requestID,
		}
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = inferStatusFromCode(appErr.Code)
	}

	message := appErr.Message
	if message == "" {
		message = "an unexpected error occurred"
	}

	return status, ErrorResponse{
		Error:     errorCategory(status, appErr.Code),
		Code:      appErr.Code,
		Message:   message,
		RequestID: requestID,
		Details:   appErr.Details,
	}
}

func NewValidationError(message string, details map[string]interface{}) *AppError {
	return NewError("validation.invalid_request", nil).
		WithMessage(message).
		WithHTTPStatus(http.StatusBadRequest).
		WithDetails(details)
}

func NewNotFoundError(message string) *AppError {
	return NewError("resource.not_found", nil).
		WithMessage(message).
		WithHTTPStatus(http.StatusNotFound)
}

func NewRouteNotFoundError(method, path string) *AppError {
	return NewError("route.not_found", nil).
		WithMessage(fmt.Sprintf("no route for %s %s", method, path)).
		WithHTTPStatus(http.StatusNotFound)
}

func NewMethodNotAllowedError(method, path string) *AppError {
	return NewError("route.method_not_allowed", nil).
		WithMessage(fmt.Sprintf("method %s is not allowed on %s", method, path)).
		WithHTTPStatus(http.StatusMethodNotAllowed)
}

func NewTooManyRequestsError(message string) *AppError {
	return NewError("rate_limit.exceeded", nil).
		WithMessage(message).
		WithHTTPStatus(http.StatusTooManyRequests)
}

func NewPayloadTooLargeError(maxBytes int64) *AppError {
	return NewError("request.too_large", nil).
		WithMessage(fmt.Sprintf("request body exceeds maximum allowed size of %d bytes", maxBytes)).
		WithHTTPStatus(http.StatusRequestEntityTooLarge).
		WithDetails(map[string]interface{}{"max_bytes": maxBytes})
}

func NewTimeoutError(message string) *AppError {
	return NewError("request.timeout", nil).
		WithMessage(message).
		WithHTTPStatus(http.StatusGatewayTimeout)
}

// BindError classifies a request body decoding failure: an oversized body is
// a 413, anything else a 400.
func BindError(err error) *AppError {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return NewPayloadTooLargeError(maxBytesErr.Limit)
	}
	return NewValidationError("invalid request body", map[string]interface{}{
		"reason": err.Error(),
	})
}

// NewInternalError wraps cause; the cause is never rendered to clients.
func NewInternalError(message string, cause error) *AppError {
	return NewError("internal.error", cause).
		WithMessage(message).
		WithHTTPStatus(http.StatusInternalServerError)
}

func errorCategory(status int, code string) string {
	if strings.HasPrefix(strings.ToLower(code), "validation.") {
		return "validation_error"
	}

	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusRequestEntityTooLarge:
		return "request_too_large"
	case http.StatusGatewayTimeout:
		return "timeout"
	default:
		if status >= 500 {
			return "internal_server_error"
		}
		return "application_error"
	}
}

func inferStatusFromCode(code string) int {
	lowerCode := strings.ToLower(strings.TrimSpace(code))
	switch {
	case strings.HasPrefix(lowerCode, "validation."):
		return http.StatusBadRequest
	case strings.Contains(lowerCode, "not_found"):
		return http.StatusNotFound
	case strings.HasPrefix(lowerCode, "rate_limit."):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
