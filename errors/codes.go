package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Request construction errors
const (
	// ErrCodeInvalidRequest indicates the request could not be resolved into a wire request.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrCodeInvalidConfig indicates a configuration struct failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Middleware errors
const (
	// ErrCodeMiddlewarePrepare indicates a middleware failed while preparing a request.
	ErrCodeMiddlewarePrepare ErrorCode = "MIDDLEWARE_PREPARE"
	// ErrCodeMiddlewareValidation indicates a middleware rejected a received response.
	ErrCodeMiddlewareValidation ErrorCode = "MIDDLEWARE_VALIDATION"
)

// Transport errors
const (
	// ErrCodeTransport indicates an unclassified transport failure.
	ErrCodeTransport ErrorCode = "TRANSPORT"
	// ErrCodeConnectionFailed indicates the connection could not be established or was lost.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the transport gave up waiting.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCancelled indicates the caller cancelled the call.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// Response errors
const (
	// ErrCodeDecode indicates the response body could not be decoded into the target type.
	ErrCodeDecode ErrorCode = "DECODE"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
	ErrCodeTransport:        true,
	ErrCodeCancelled:        false,
}

var transportCodes = map[ErrorCode]bool{
	ErrCodeTransport:        true,
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
	ErrCodeCancelled:        true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsTransportCode returns true if the code belongs to the transport family.
func IsTransportCode(code ErrorCode) bool {
	return transportCodes[code]
}
