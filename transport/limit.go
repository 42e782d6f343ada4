package transport

import (
	"context"
	stderrors "errors"

	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/resilience"
	"github.com/kbukum/networkable/wire"
)

// Limited bounds the number of exchanges in flight on the wrapped transport.
type Limited struct {
	next     Transport
	bulkhead *resilience.Bulkhead
}

// Limit wraps next with a bulkhead. A send that cannot get a slot fails with
// a TRANSPORT error, or CANCELLED if its context ends while waiting. A slot
// taken by SendAsync is held until the callback runs.
func Limit(next Transport, cfg resilience.BulkheadConfig) *Limited {
	return &Limited{next: next, bulkhead: resilience.NewBulkhead(cfg)}
}

func (l *Limited) acquire(ctx context.Context) (func(), error) {
	release, err := l.bulkhead.Acquire(ctx)
	if err == nil {
		return release, nil
	}
	if stderrors.Is(err, resilience.ErrBulkheadFull) || stderrors.Is(err, resilience.ErrBulkheadTimeout) {
		return nil, errors.Transport(err).WithDetail("in_use", l.bulkhead.InUse())
	}
	return nil, classify(ctx, err)
}

// Send waits for a slot and forwards to the wrapped transport.
func (l *Limited) Send(ctx context.Context, req *wire.Request) (*wire.Response, []byte, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer release()
	return l.next.Send(ctx, req)
}

// SendAsync waits for a slot on a new goroutine, then forwards to the
// wrapped transport's SendAsync.
func (l *Limited) SendAsync(ctx context.Context, req *wire.Request, done Callback) {
	go func() {
		release, err := l.acquire(ctx)
		if err != nil {
			done(nil, nil, err)
			return
		}
		l.next.SendAsync(ctx, req, func(resp *wire.Response, body []byte, err error) {
			release()
			done(resp, body, err)
		})
	}()
}

// InUse returns the number of exchanges holding a slot.
func (l *Limited) InUse() int { return l.bulkhead.InUse() }

// CloseIdleConnections forwards to the wrapped transport.
func (l *Limited) CloseIdleConnections() { CloseIdle(l.next) }
