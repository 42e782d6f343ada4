package middleware

import (
	"fmt"

	"github.com/kbukum/networkable/wire"
)

// StatusClass groups rejected status codes.
type StatusClass string

const (
	StatusClassAuth      StatusClass = "auth"
	StatusClassNotFound  StatusClass = "not_found"
	StatusClassRateLimit StatusClass = "rate_limit"
	StatusClassClient    StatusClass = "client"
	StatusClassServer    StatusClass = "server"
	StatusClassOther     StatusClass = "other"
)

// ClassifyStatus returns the class of a non-2xx status code.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code == 401 || code == 403:
		return StatusClassAuth
	case code == 404:
		return StatusClassNotFound
	case code == 429:
		return StatusClassRateLimit
	case code >= 400 && code < 500:
		return StatusClassClient
	case code >= 500:
		return StatusClassServer
	default:
		return StatusClassOther
	}
}

// StatusError is returned by the status validator for a rejected response.
type StatusError struct {
	StatusCode int
	Class      StatusClass
	// Retryable reports whether repeating the call may succeed (429 and 5xx).
	Retryable bool
	// Body is the response body of the rejected response.
	Body []byte
}

// NewStatusError classifies a rejected status code.
func NewStatusError(code int, body []byte) *StatusError {
	class := ClassifyStatus(code)
	return &StatusError{
		StatusCode: code,
		Class:      class,
		Retryable:  class == StatusClassRateLimit || class == StatusClassServer,
		Body:       body,
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s)", e.StatusCode, e.Class)
}

// HTTPStatusCode returns StatusCode.
func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

// IsSuccess accepts 2xx status codes.
func IsSuccess(code int) bool { return code >= 200 && code < 300 }

type statusValidator struct {
	Base
	accept func(int) bool
}

// ValidateStatus rejects responses whose status code accept returns false
// for. The rejection carries a *StatusError.
func ValidateStatus(accept func(int) bool) Middleware {
	if accept == nil {
		accept = IsSuccess
	}
	return &statusValidator{accept: accept}
}

// RequireSuccess rejects every non-2xx response.
func RequireSuccess() Middleware {
	return ValidateStatus(IsSuccess)
}

func (*statusValidator) Name() string { return "validate_status" }

func (v *statusValidator) DidReceiveResponse(resp *wire.Response, body []byte) error {
	if v.accept(resp.StatusCode) {
		return nil
	}
	return NewStatusError(resp.StatusCode, body)
}
