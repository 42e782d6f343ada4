package middleware

import (
	"context"

	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/observability"
	"github.com/kbukum/networkable/wire"
)

type metrics struct {
	Base
	m *observability.ClientMetrics
}

// Metrics records OpenTelemetry request metrics. A request counts as in
// flight from WillSend until its response or transport error; a call
// abandoned through its context or its Scope is recorded with the CANCELLED
// code.
func Metrics(m *observability.ClientMetrics) Middleware {
	return &metrics{m: m}
}

func (*metrics) Name() string { return "metrics" }

func (mw *metrics) Prepare(req *wire.Request) (*wire.Request, error) {
	ctx, _ := observability.StartExchange(req.Context(), req.Method, req.URL.Host)
	return req.WithContext(context.WithValue(ctx, mw, &inflight{})), nil
}

func (mw *metrics) WillSend(req *wire.Request) {
	ctx := req.Context()
	ex := observability.ExchangeFromContext(ctx)
	call := inflightFrom(ctx, mw)
	if ex == nil || call == nil {
		return
	}
	mw.m.RecordStart(ctx, ex.Method, ex.Host)
	call.arm(ctx, func() {
		mw.m.RecordEnd(context.WithoutCancel(ctx), ex.Method, ex.Host, 0, string(errors.ErrCodeCancelled), ex.Elapsed())
	})
}

func (mw *metrics) DidReceiveResponse(resp *wire.Response, _ []byte) error {
	ctx := resp.Context()
	ex := observability.ExchangeFromContext(ctx)
	if ex == nil || !inflightFrom(ctx, mw).settle() {
		return nil
	}
	mw.m.RecordEnd(ctx, ex.Method, ex.Host, resp.StatusCode, "", ex.Elapsed())
	return nil
}

func (mw *metrics) DidReceiveError(err error, req *wire.Request) {
	ctx := req.Context()
	ex := observability.ExchangeFromContext(ctx)
	if ex == nil || !inflightFrom(ctx, mw).settle() {
		return
	}
	mw.m.RecordEnd(ctx, ex.Method, ex.Host, 0, string(errors.CodeOf(err)), ex.Elapsed())
}
