package middleware

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/observability"
	"github.com/kbukum/networkable/wire"
)

// DefaultPrometheusNamespace prefixes the collector names.
const DefaultPrometheusNamespace = "networkable"

type promMetrics struct {
	Base
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

// Prometheus records request counts, durations and in-flight requests as
// Prometheus collectors registered on reg. The "code" label is the status
// code, or the error code of a transport failure. Calls abandoned through
// their context or their Scope are counted as CANCELLED. Collectors already
// registered by an earlier call are reused, so several sessions can share
// one registry.
func Prometheus(reg prometheus.Registerer, namespace string) (Middleware, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultPrometheusNamespace
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Completed outbound HTTP requests.",
	}, []string{"method", "host", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Duration of outbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "host", "code"})
	inFlight := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "requests_in_flight",
		Help:      "Outbound HTTP requests waiting for a response.",
	}, []string{"method", "host"})

	var err error
	m := &promMetrics{}
	if m.requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if m.inFlight, err = register(reg, inFlight); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (*promMetrics) Name() string { return "prometheus" }

func (p *promMetrics) Prepare(req *wire.Request) (*wire.Request, error) {
	ctx, _ := observability.StartExchange(req.Context(), req.Method, req.URL.Host)
	return req.WithContext(context.WithValue(ctx, p, &inflight{})), nil
}

func (p *promMetrics) WillSend(req *wire.Request) {
	ctx := req.Context()
	ex := observability.ExchangeFromContext(ctx)
	call := inflightFrom(ctx, p)
	if ex == nil || call == nil {
		return
	}
	p.inFlight.WithLabelValues(ex.Method, ex.Host).Inc()
	call.arm(ctx, func() {
		p.observe(ex, string(errors.ErrCodeCancelled))
	})
}

func (p *promMetrics) observe(ex *observability.Exchange, code string) {
	p.inFlight.WithLabelValues(ex.Method, ex.Host).Dec()
	p.requests.WithLabelValues(ex.Method, ex.Host, code).Inc()
	p.duration.WithLabelValues(ex.Method, ex.Host, code).Observe(ex.Elapsed().Seconds())
}

func (p *promMetrics) DidReceiveResponse(resp *wire.Response, _ []byte) error {
	ctx := resp.Context()
	ex := observability.ExchangeFromContext(ctx)
	if ex != nil && inflightFrom(ctx, p).settle() {
		p.observe(ex, strconv.Itoa(resp.StatusCode))
	}
	return nil
}

func (p *promMetrics) DidReceiveError(err error, req *wire.Request) {
	ctx := req.Context()
	ex := observability.ExchangeFromContext(ctx)
	if ex != nil && inflightFrom(ctx, p).settle() {
		p.observe(ex, string(errors.CodeOf(err)))
	}
}
