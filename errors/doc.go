// Package errors defines the failure taxonomy shared by every stage of the
// request pipeline.
//
// Each failure is an *Error carrying a machine-readable Code that tells the
// caller which stage failed:
//
//   - INVALID_REQUEST: the request could not be resolved into a wire request
//   - MIDDLEWARE_PREPARE: a middleware rejected the request before sending
//   - TRANSPORT, CONNECTION_FAILED, TIMEOUT, CANCELLED: the transport failed
//   - MIDDLEWARE_VALIDATION: a middleware rejected the received response
//   - DECODE: the response body could not be decoded
//
// Errors wrap their cause, so the standard library errors.Is and errors.As
// keep working through them (for example errors.Is(err, context.Canceled)).
package errors
