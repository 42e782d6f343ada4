package session

import (
	"context"
	"fmt"

	"github.com/kbukum/networkable/codec"
	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/request"
	"github.com/kbukum/networkable/wire"
)

// Result is the outcome of an asynchronous call.
type Result[T any] struct {
	Value    T
	Response *wire.Response
	Err      error
}

// Get returns the value and the error.
func (r Result[T]) Get() (T, error) { return r.Value, r.Err }

// CallOption tunes a single call.
type CallOption func(*callOptions)

type callOptions struct {
	decoder  codec.Decoder
	executor Executor
}

// Decoder decodes the response of this call with d.
func Decoder(d codec.Decoder) CallOption {
	return func(o *callOptions) { o.decoder = d }
}

// On delivers the callback of this call through e.
func On(e Executor) CallOption {
	return func(o *callOptions) { o.executor = e }
}

func (s *Session) callOptions(opts []CallOption) callOptions {
	o := callOptions{decoder: s.decoder, executor: s.executor}
	for _, opt := range opts {
		opt(&o)
	}
	if o.decoder == nil {
		o.decoder = codec.JSON
	}
	return o
}

func (o callOptions) deliver(fn func()) {
	if o.executor == nil {
		fn()
		return
	}
	o.executor.Execute(fn)
}

// Do executes r and decodes the response body into a T. It blocks until the
// call completes or ctx ends; cancelling ctx while the transport is working
// yields a CANCELLED error and no response hook runs.
//
// An empty body decodes to the zero T. Decode failures are DECODE errors and
// are not reported to middlewares.
func Do[T any](ctx context.Context, s *Session, r request.Request, opts ...CallOption) (T, error) {
	o := s.callOptions(opts)
	_, body, err := s.exec(ctx, r)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](o.decoder, body)
}

// DoAsync executes r and delivers the decoded result to done. It returns
// without waiting for the network. done is called exactly once: through the
// call's executor when one is set with On or WithExecutor, otherwise on the
// transport's goroutine. A call that fails before reaching the transport is
// delivered before DoAsync returns unless an executor defers it.
func DoAsync[T any](ctx context.Context, s *Session, r request.Request, done func(Result[T]), opts ...CallOption) {
	o := s.callOptions(opts)
	s.execAsync(ctx, r, func(resp *wire.Response, body []byte, err error) {
		res := Result[T]{Response: resp, Err: err}
		if err == nil {
			res.Value, res.Err = decode[T](o.decoder, body)
		}
		o.deliver(func() { done(res) })
	})
}

func decode[T any](d codec.Decoder, body []byte) (T, error) {
	var v T
	if len(body) == 0 {
		return v, nil
	}
	if err := d.Decode(body, &v); err != nil {
		var zero T
		return zero, errors.Decode(fmt.Sprintf("%T", v), err)
	}
	return v, nil
}
