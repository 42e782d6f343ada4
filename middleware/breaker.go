package middleware

import (
	"context"

	"github.com/kbukum/networkable/resilience"
	"github.com/kbukum/networkable/wire"
)

type circuitBreaker struct {
	Base
	cb     *resilience.CircuitBreaker
	failOn func(status int) bool
}

// CircuitBreaker rejects calls in Prepare while cb is open. A transport
// failure or a response whose status failOn reports (5xx when nil) counts as
// a failure; any other response counts as a success. A call abandoned
// before either hook, through its context or its Scope, gives its admission
// back.
func CircuitBreaker(cb *resilience.CircuitBreaker, failOn func(status int) bool) Middleware {
	if failOn == nil {
		failOn = func(status int) bool { return status >= 500 }
	}
	return &circuitBreaker{cb: cb, failOn: failOn}
}

func (c *circuitBreaker) Name() string { return "circuit_breaker" }

func (c *circuitBreaker) Prepare(req *wire.Request) (*wire.Request, error) {
	if err := c.cb.Allow(); err != nil {
		return nil, err
	}
	ctx := req.Context()
	call := &inflight{}
	call.arm(ctx, c.cb.Cancel)
	return req.WithContext(context.WithValue(ctx, c, call)), nil
}

func (c *circuitBreaker) DidReceiveResponse(resp *wire.Response, _ []byte) error {
	if !inflightFrom(resp.Context(), c).settle() {
		return nil
	}
	if c.failOn(resp.StatusCode) {
		c.cb.Failure()
	} else {
		c.cb.Success()
	}
	return nil
}

func (c *circuitBreaker) DidReceiveError(_ error, req *wire.Request) {
	if inflightFrom(req.Context(), c).settle() {
		c.cb.Failure()
	}
}
