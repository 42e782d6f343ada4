// Package resilience provides the fault-tolerance primitives used by the
// networkable transports and middlewares.
//
//   - CircuitBreaker: fails fast while an upstream is unhealthy. Admission and
//     outcome are separate calls (Allow, then Success or Failure) so that the
//     two halves can live in different middleware hooks.
//   - Retry: retries an operation with exponential backoff and jitter.
//   - Bulkhead: bounds the number of calls in flight. Acquire hands back a
//     release function so a slot can outlive the call that took it, as with
//     callback-style sends.
//
// Typical wiring:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("users-api"))
//	if err := cb.Allow(); err != nil {
//	    return err
//	}
//	resp, err := send()
//	if err != nil {
//	    cb.Failure()
//	} else {
//	    cb.Success()
//	}
package resilience
