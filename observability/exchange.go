package observability

import (
	"context"
	"time"
)

// Exchange is the per-call record shared by the middlewares that time an
// outbound request. It lives in the wire request's context from the first
// Prepare that asks for it until the call completes.
type Exchange struct {
	Method string
	Host   string
	Start  time.Time
}

type exchangeKey struct{}

// StartExchange returns the Exchange already stored in ctx, or stores a new
// one starting now.
func StartExchange(ctx context.Context, method, host string) (context.Context, *Exchange) {
	if ex := ExchangeFromContext(ctx); ex != nil {
		return ctx, ex
	}
	ex := &Exchange{Method: method, Host: host, Start: time.Now()}
	return context.WithValue(ctx, exchangeKey{}, ex), ex
}

// ExchangeFromContext returns the Exchange stored in ctx, or nil.
func ExchangeFromContext(ctx context.Context) *Exchange {
	ex, _ := ctx.Value(exchangeKey{}).(*Exchange)
	return ex
}

// Elapsed returns the time since the exchange started.
func (e *Exchange) Elapsed() time.Duration {
	return time.Since(e.Start)
}
