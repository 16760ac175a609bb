package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Transport errors (retryable)
const (
	// ErrCodeNetwork indicates a transport failure or non-success HTTP status
	// while talking to a remote resource.
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates an operation did not finish within its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the client is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Provider errors
const (
	// ErrCodeProviderProtocol indicates a provider response that lacks a
	// required field.
	ErrCodeProviderProtocol ErrorCode = "PROVIDER_PROTOCOL_ERROR"
	// ErrCodeJobFailed indicates a remote job reached the FAILED state.
	ErrCodeJobFailed ErrorCode = "JOB_FAILED"
	// ErrCodeExternalService indicates an error status from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeUnsupported indicates the selected provider lacks a capability.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// ErrCodeInternal indicates an internal error.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeNetwork:            true,
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
