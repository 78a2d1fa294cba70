package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the backend is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to the backend.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates an operation exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeStreamClosed indicates the event stream ended unexpectedly.
	ErrCodeStreamClosed ErrorCode = "STREAM_CLOSED"
)

// Database errors
const (
	// ErrCodeQueryFailed indicates a database query could not be executed.
	ErrCodeQueryFailed ErrorCode = "QUERY_FAILED"
	// ErrCodeQueryCanceled indicates the server revoked the query subscription.
	ErrCodeQueryCanceled ErrorCode = "QUERY_CANCELED"
	// ErrCodePathNotFound indicates no data exists at the requested path.
	ErrCodePathNotFound ErrorCode = "PATH_NOT_FOUND"
)

// Storage errors
const (
	// ErrCodeObjectNotFound indicates the storage object does not exist.
	ErrCodeObjectNotFound ErrorCode = "OBJECT_NOT_FOUND"
	// ErrCodeUploadFailed indicates an upload task failed.
	ErrCodeUploadFailed ErrorCode = "UPLOAD_FAILED"
	// ErrCodeUploadCanceled indicates an upload task was canceled.
	ErrCodeUploadCanceled ErrorCode = "UPLOAD_CANCELED"
	// ErrCodeObjectTooLarge indicates the object exceeds the size limit.
	ErrCodeObjectTooLarge ErrorCode = "OBJECT_TOO_LARGE"
)

// Auth errors
const (
	// ErrCodeUnauthorized indicates missing or failed authentication.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeForbidden indicates the caller lacks permission for the path.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	// ErrCodeTokenExpired indicates the auth token has expired.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	// ErrCodeAuthRevoked indicates the server revoked the credentials mid-stream.
	ErrCodeAuthRevoked ErrorCode = "AUTH_REVOKED"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates invalid caller input.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field has the wrong format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
	// ErrCodeExternalService indicates a backend service failure.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE"
)

// retryableCodes lists codes for which the operation may be retried.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeStreamClosed:       true,
	ErrCodeExternalService:    true,
}

// IsRetryableCode reports whether operations failing with this code
// may be retried.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
