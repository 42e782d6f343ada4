package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"

	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/wire"
)

// Callback receives the outcome of an asynchronous send. Exactly one of
// resp and err is non-nil.
type Callback func(resp *wire.Response, body []byte, err error)

// Sender is the blocking half of a Transport.
type Sender interface {
	Send(ctx context.Context, req *wire.Request) (*wire.Response, []byte, error)
}

// Transport executes wire requests. SendAsync returns immediately and calls
// done exactly once, on a goroutine owned by the transport.
type Transport interface {
	Sender
	SendAsync(ctx context.Context, req *wire.Request, done Callback)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, req *wire.Request) (*wire.Response, []byte, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, req *wire.Request) (*wire.Response, []byte, error) {
	return f(ctx, req)
}

// IdleCloser is implemented by transports that keep pooled connections.
type IdleCloser interface {
	CloseIdleConnections()
}

// CloseIdle closes idle connections of t when it keeps any.
func CloseIdle(t any) {
	if c, ok := t.(IdleCloser); ok {
		c.CloseIdleConnections()
	}
}

// classify maps a failed exchange to the transport error family. A context
// that has ended wins over whatever error the network reported.
func classify(ctx context.Context, err error) *errors.Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Cancelled(ctxErr)
	}
	if e, ok := errors.AsError(err); ok && errors.IsTransport(e) {
		return e
	}
	var ne net.Error
	if stderrors.As(err, &ne) && ne.Timeout() {
		return errors.Timeout(err)
	}
	return errors.ConnectionFailed(err)
}

// recovered turns a panic value raised by a sender into a transport error.
func recovered(v any) error {
	return errors.Transport(fmt.Errorf("transport panic: %v", v))
}
