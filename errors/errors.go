package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the backend HTTP status associated with this error, if any.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// AsAppError extracts an *AppError from err's chain, or wraps err as an
// internal error when none is present.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsRetryable reports whether err carries a retryable AppError.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// --- Common Error Constructors ---

// ConnectionFailed creates a new AppError for a failed backend connection.
func ConnectionFailed(service string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("Unable to connect to %s.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// StreamClosed creates a new AppError for an event stream that ended unexpectedly.
func StreamClosed(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStreamClosed, Message: "The event stream closed unexpectedly.",
		Retryable: true,
		Details:   map[string]any{"path": path},
		Cause:     cause,
	}
}

// QueryFailed creates a new AppError for a database query failure.
func QueryFailed(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeQueryFailed, Message: fmt.Sprintf("Query at %q failed.", path),
		HTTPStatus: http.StatusBadGateway, Retryable: false,
		Details: map[string]any{"path": path}, Cause: cause,
	}
}

// QueryCanceled creates a new AppError for a server-revoked subscription.
func QueryCanceled(path string) *AppError {
	return &AppError{
		Code: ErrCodeQueryCanceled, Message: fmt.Sprintf("The subscription at %q was canceled by the server.", path),
		Retryable: false,
		Details:   map[string]any{"path": path},
	}
}

// PathNotFound creates a new AppError for a missing database path.
func PathNotFound(path string) *AppError {
	return &AppError{
		Code: ErrCodePathNotFound, Message: fmt.Sprintf("No data exists at %q.", path),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"path": path},
	}
}

// ObjectNotFound creates a new AppError for a missing storage object.
func ObjectNotFound(path string) *AppError {
	return &AppError{
		Code: ErrCodeObjectNotFound, Message: fmt.Sprintf("The object %q was not found.", path),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"object": path},
	}
}

// UploadFailed creates a new AppError for a failed upload task.
func UploadFailed(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeUploadFailed, Message: fmt.Sprintf("Upload of %q failed.", path),
		Retryable: true,
		Details:   map[string]any{"object": path}, Cause: cause,
	}
}

// UploadCanceled creates a new AppError for a canceled upload task.
func UploadCanceled(path string) *AppError {
	return &AppError{
		Code: ErrCodeUploadCanceled, Message: fmt.Sprintf("Upload of %q was canceled.", path),
		Retryable: false,
		Details:   map[string]any{"object": path},
	}
}

// ObjectTooLarge creates a new AppError for an object over the size limit.
func ObjectTooLarge(path string, size, limit int64) *AppError {
	return &AppError{
		Code: ErrCodeObjectTooLarge, Message: fmt.Sprintf("Object %q exceeds the size limit.", path),
		HTTPStatus: http.StatusRequestEntityTooLarge, Retryable: false,
		Details: map[string]any{"object": path, "size": size, "limit": limit},
	}
}

// Unauthorized creates a new AppError for unauthorized access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// Forbidden creates a new AppError for forbidden access.
func Forbidden(path string) *AppError {
	return &AppError{
		Code: ErrCodeForbidden, Message: "Permission denied for this path.",
		HTTPStatus: http.StatusForbidden, Retryable: false,
		Details: map[string]any{"path": path},
	}
}

// TokenExpired creates a new AppError for an expired auth token.
func TokenExpired() *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: "The auth token has expired.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// AuthRevoked creates a new AppError for credentials revoked mid-stream.
func AuthRevoked() *AppError {
	return &AppError{
		Code: ErrCodeAuthRevoked, Message: "The server revoked the stream credentials.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// InvalidFormat creates a new AppError for data in an unexpected encoding.
func InvalidFormat(field, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: fmt.Sprintf("Invalid format for %s: %s", field, reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new AppError for an internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for a backend service failure.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s backend returned an error.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}

// FromHTTPStatus maps a backend HTTP status to an AppError.
func FromHTTPStatus(status int, path string) *AppError {
	switch status {
	case http.StatusUnauthorized:
		return Unauthorized("")
	case http.StatusForbidden:
		return Forbidden(path)
	case http.StatusNotFound:
		return PathNotFound(path)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return Timeout(path)
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return ExternalServiceError("database", nil)
	default:
		if status >= 400 && status < 500 {
			return InvalidInput("", fmt.Sprintf("backend rejected request with status %d", status))
		}
		return New(ErrCodeExternalService, fmt.Sprintf("backend returned status %d", status), status)
	}
}
