package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the unified pipeline error type.
type Error struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// StatusCode is the HTTP status of the response the error relates to (0 if none).
	StatusCode int `json:"status_code,omitempty"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with automatic retryable detection.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors ---

// InvalidRequest creates an error for a request that cannot be resolved.
func InvalidRequest(reason string, cause error) *Error {
	return &Error{Code: ErrCodeInvalidRequest, Message: reason, Cause: cause}
}

// InvalidConfig creates an error for a configuration that failed validation.
func InvalidConfig(reason string) *Error {
	return &Error{Code: ErrCodeInvalidConfig, Message: reason}
}

// MiddlewarePrepare creates an error for a middleware that failed in prepare.
func MiddlewarePrepare(name string, index int, cause error) *Error {
	return &Error{
		Code:    ErrCodeMiddlewarePrepare,
		Message: fmt.Sprintf("middleware %s rejected the request", name),
		Details: map[string]any{"middleware": name, "index": index},
		Cause:   cause,
	}
}

// MiddlewareValidation creates an error for a middleware that rejected a response.
func MiddlewareValidation(name string, index int, cause error) *Error {
	e := &Error{
		Code:    ErrCodeMiddlewareValidation,
		Message: fmt.Sprintf("middleware %s rejected the response", name),
		Details: map[string]any{"middleware": name, "index": index},
		Cause:   cause,
	}
	var inner statusCoder
	if stderrors.As(cause, &inner) {
		e.StatusCode = inner.HTTPStatusCode()
	}
	return e
}

// statusCoder is implemented by errors that carry the HTTP status of the
// response they reject.
type statusCoder interface {
	HTTPStatusCode() int
}

// HTTPStatusCode returns StatusCode.
func (e *Error) HTTPStatusCode() int { return e.StatusCode }

// Transport creates an unclassified transport error.
func Transport(cause error) *Error {
	return &Error{Code: ErrCodeTransport, Message: "transport failed", Retryable: true, Cause: cause}
}

// ConnectionFailed creates an error for a connection that could not be used.
func ConnectionFailed(cause error) *Error {
	return &Error{Code: ErrCodeConnectionFailed, Message: "connection failed", Retryable: true, Cause: cause}
}

// Timeout creates an error for a transport that gave up waiting.
func Timeout(cause error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: "request timed out", Retryable: true, Cause: cause}
}

// Cancelled creates an error for a call the caller cancelled.
func Cancelled(cause error) *Error {
	return &Error{Code: ErrCodeCancelled, Message: "request cancelled", Cause: cause}
}

// Decode creates an error for a body that could not be decoded.
func Decode(target string, cause error) *Error {
	return &Error{
		Code:    ErrCodeDecode,
		Message: fmt.Sprintf("could not decode response into %s", target),
		Cause:   cause,
	}
}

// --- Inspection ---

// AsError converts an error to an *Error if possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsInvalidRequest checks if an error is an invalid-request error.
func IsInvalidRequest(err error) bool { return Is(err, ErrCodeInvalidRequest) }

// IsMiddlewarePrepare checks if an error came from a middleware prepare hook.
func IsMiddlewarePrepare(err error) bool { return Is(err, ErrCodeMiddlewarePrepare) }

// IsMiddlewareValidation checks if an error came from a middleware response hook.
func IsMiddlewareValidation(err error) bool { return Is(err, ErrCodeMiddlewareValidation) }

// IsTransport checks if an error belongs to the transport family, cancellation included.
func IsTransport(err error) bool { return IsTransportCode(CodeOf(err)) }

// IsCancelled checks if an error is a cancellation.
func IsCancelled(err error) bool { return Is(err, ErrCodeCancelled) }

// IsTimeout checks if an error is a transport timeout.
func IsTimeout(err error) bool { return Is(err, ErrCodeTimeout) }

// IsDecode checks if an error is a decode error.
func IsDecode(err error) bool { return Is(err, ErrCodeDecode) }

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	return ok && e.Retryable
}
