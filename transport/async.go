package transport

import (
	"context"

	"github.com/kbukum/networkable/wire"
)

type async struct {
	Sender
}

// Async gives s a callback form that runs each send on its own goroutine. A
// panic inside s is reported to the callback as a TRANSPORT error. If s
// already is a Transport it is returned unchanged.
func Async(s Sender) Transport {
	if t, ok := s.(Transport); ok {
		return t
	}
	return &async{Sender: s}
}

func (a *async) SendAsync(ctx context.Context, req *wire.Request, done Callback) {
	goSend(ctx, a.Sender, req, done)
}

func (a *async) CloseIdleConnections() { CloseIdle(a.Sender) }

// goSend runs s.Send on a new goroutine and hands the outcome to done.
func goSend(ctx context.Context, s Sender, req *wire.Request, done Callback) {
	go func() {
		resp, body, err := safeSend(ctx, s, req)
		done(resp, body, err)
	}()
}

func safeSend(ctx context.Context, s Sender, req *wire.Request) (resp *wire.Response, body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, body, err = nil, nil, recovered(r)
		}
	}()
	return s.Send(ctx, req)
}
