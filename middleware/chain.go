package middleware

import (
	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/wire"
)

// Chain is an ordered list of middlewares. List order is invocation order
// for every hook.
type Chain []Middleware

// Prepare folds req through every Prepare in order, each receiving the
// previous output. A nil request from a middleware keeps the current one.
// The first failure stops the fold and is returned as a MIDDLEWARE_PREPARE
// error naming the middleware and its index.
func (c Chain) Prepare(req *wire.Request) (*wire.Request, error) {
	current := req
	for i, m := range c {
		next, err := m.Prepare(current)
		if err != nil {
			return nil, errors.MiddlewarePrepare(NameOf(m), i, err)
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}

// WillSend notifies every middleware in order.
func (c Chain) WillSend(req *wire.Request) {
	for _, m := range c {
		m.WillSend(req)
	}
}

// DidReceiveResponse notifies every middleware in order and stops at the
// first one that rejects the response. The rejection is returned as a
// MIDDLEWARE_VALIDATION error naming the middleware and its index.
func (c Chain) DidReceiveResponse(resp *wire.Response, body []byte) error {
	for i, m := range c {
		if err := m.DidReceiveResponse(resp, body); err != nil {
			return errors.MiddlewareValidation(NameOf(m), i, err)
		}
	}
	return nil
}

// DidReceiveError notifies every middleware in order.
func (c Chain) DidReceiveError(err error, req *wire.Request) {
	for _, m := range c {
		m.DidReceiveError(err, req)
	}
}
