package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/observability"
	"github.com/kbukum/networkable/wire"
)

type tracing struct {
	Base
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

type tracedCall struct {
	inflight
	span trace.Span
}

// Tracing starts a client span per call in Prepare and injects its context
// into the request header. The span ends with the response or the transport
// error; a call abandoned through its context or its Scope ends it as
// cancelled. Nil
// arguments use the global tracer provider and propagator.
func Tracing(tracer trace.Tracer, propagator propagation.TextMapPropagator) Middleware {
	if tracer == nil {
		tracer = observability.Tracer(observability.InstrumentationName)
	}
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}
	return &tracing{tracer: tracer, propagator: propagator}
}

func (*tracing) Name() string { return "tracing" }

func (t *tracing) Prepare(req *wire.Request) (*wire.Request, error) {
	ctx, span := t.tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.Method),
			semconv.URLFull(req.URL.Redacted()),
			semconv.ServerAddress(req.URL.Hostname()),
			semconv.HTTPRequestBodySize(len(req.Body)),
		),
	)

	out := req.Clone()
	t.propagator.Inject(ctx, propagation.HeaderCarrier(out.Header))

	call := &tracedCall{span: span}
	call.arm(ctx, func() {
		span.SetStatus(codes.Error, "cancelled")
		span.End()
	})
	return out.WithContext(context.WithValue(ctx, t, call)), nil
}

func (t *tracing) call(ctx context.Context) *tracedCall {
	c, _ := ctx.Value(t).(*tracedCall)
	if c == nil || !c.settle() {
		return nil
	}
	return c
}

func (t *tracing) WillSend(req *wire.Request) {
	trace.SpanFromContext(req.Context()).AddEvent("send")
}

func (t *tracing) DidReceiveResponse(resp *wire.Response, body []byte) error {
	c := t.call(resp.Context())
	if c == nil {
		return nil
	}
	c.span.SetAttributes(
		semconv.HTTPResponseStatusCode(resp.StatusCode),
		semconv.HTTPResponseBodySize(len(body)),
	)
	if resp.StatusCode >= 400 {
		c.span.SetStatus(codes.Error, resp.Status)
	}
	c.span.End()
	return nil
}

func (t *tracing) DidReceiveError(err error, req *wire.Request) {
	c := t.call(req.Context())
	if c == nil {
		return
	}
	c.span.RecordError(err)
	c.span.SetAttributes(attribute.String(observability.AttrErrorCode, string(errors.CodeOf(err))))
	c.span.SetStatus(codes.Error, err.Error())
	c.span.End()
}
