package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/logger"
	"github.com/kbukum/networkable/observability"
	"github.com/kbukum/networkable/wire"
)

// exchange runs one call through m the way a session does.
func exchange(t *testing.T, m Middleware, req *wire.Request, status int, transportErr error) *wire.Request {
	t.Helper()
	prepared, err := Chain{m}.Prepare(req)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	m.WillSend(prepared)
	if transportErr != nil {
		m.DidReceiveError(transportErr, prepared)
		return prepared
	}
	if err := m.DidReceiveResponse(respond(prepared, status), []byte(`{"id":1}`)); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	return prepared
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	m := Logging(log)

	req := newRequest(t, http.MethodGet, "https://user:pw@api.test/users/1")
	req = req.WithContext(logger.ContextWithRequestID(context.Background(), "rid-1"))
	exchange(t, m, req, 404, nil)

	lines := logLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	sent, done := lines[0], lines[1]
	if sent["level"] != "debug" || sent["message"] != "sending request" {
		t.Errorf("unexpected send line %v", sent)
	}
	if strings.Contains(sent[logger.FieldURL].(string), "pw") {
		t.Errorf("password leaked into %v", sent[logger.FieldURL])
	}
	if done["level"] != "warn" || done[logger.FieldStatusCode] != float64(404) {
		t.Errorf("unexpected completion line %v", done)
	}
	if done[logger.FieldRequestID] != "rid-1" || done[logger.FieldBytes] != "8 B" {
		t.Errorf("expected request id and body size, got %v", done)
	}
	if _, ok := done[logger.FieldDuration]; !ok {
		t.Error("expected a duration field")
	}
}

func TestLogging_TransportError(t *testing.T) {
	var buf bytes.Buffer
	m := Logging(logger.NewWithWriter(&logger.Config{Level: "info", Format: "json"}, "test", &buf))

	exchange(t, m, newRequest(t, http.MethodPost, "https://api.test/"), 0, errors.Timeout(nil))

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line at info, got %d", len(lines))
	}
	if lines[0]["level"] != "error" || lines[0][logger.FieldErrorCode] != "TIMEOUT" {
		t.Errorf("unexpected line %v", lines[0])
	}
}

func newRecordingTracing() (Middleware, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return Tracing(tp.Tracer("test"), propagation.TraceContext{}), rec
}

func TestTracing(t *testing.T) {
	m, rec := newRecordingTracing()

	prepared := exchange(t, m, newRequest(t, http.MethodGet, "https://api.test/users/1"), 503, nil)
	if prepared.Header.Get("Traceparent") == "" {
		t.Error("expected trace context injected into the header")
	}

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "HTTP GET" {
		t.Errorf("unexpected span name %q", span.Name())
	}
	if span.Status().Code != codes.Error {
		t.Errorf("expected error status for 503, got %v", span.Status())
	}
	var status int64
	for _, kv := range span.Attributes() {
		if kv.Key == "http.response.status_code" {
			status = kv.Value.AsInt64()
		}
	}
	if status != 503 {
		t.Errorf("expected status attribute 503, got %d", status)
	}
}

func TestTracing_TransportErrorAndAbandon(t *testing.T) {
	m, rec := newRecordingTracing()

	exchange(t, m, newRequest(t, http.MethodGet, "https://api.test/"), 0, errors.ConnectionFailed(nil))
	if got := len(rec.Ended()); got != 1 {
		t.Fatalf("expected span ended by the error hook, got %d", got)
	}
	if len(rec.Ended()[0].Events()) == 0 {
		t.Error("expected the recorded error event")
	}

	ctx, cancel := context.WithCancel(context.Background())
	prepared, err := m.Prepare(newRequest(t, http.MethodGet, "https://api.test/").WithContext(ctx))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancel()
	// A response arriving after the call was abandoned must not end the span again.
	_ = m.DidReceiveResponse(respond(prepared, 200), nil)

	deadline := time.Now().Add(2 * time.Second)
	for len(rec.Ended()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := len(rec.Ended()); got != 2 {
		t.Fatalf("expected abandoned span ended once, got %d", got)
	}
	if rec.Ended()[1].Status().Description != "cancelled" {
		t.Errorf("unexpected status %v", rec.Ended()[1].Status())
	}
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	cm, err := observability.NewClientMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := Metrics(cm)

	exchange(t, m, newRequest(t, http.MethodGet, "https://api.test/"), 200, nil)
	exchange(t, m, newRequest(t, http.MethodGet, "https://api.test/"), 0, errors.Timeout(nil))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if data, ok := metric.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[metric.Name] += dp.Value
				}
			}
		}
	}
	if sums[observability.MetricRequests] != 2 {
		t.Errorf("expected 2 requests, got %d", sums[observability.MetricRequests])
	}
	if sums[observability.MetricErrors] != 1 {
		t.Errorf("expected 1 error, got %d", sums[observability.MetricErrors])
	}
	if sums[observability.MetricActiveRequests] != 0 {
		t.Errorf("expected no active requests, got %d", sums[observability.MetricActiveRequests])
	}
}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := Prometheus(reg, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A second session on the same registry shares the collectors.
	m2, err := Prometheus(reg, "test")
	if err != nil {
		t.Fatalf("expected collectors reused, got %v", err)
	}

	exchange(t, m, newRequest(t, http.MethodGet, "https://api.test/"), 200, nil)
	exchange(t, m2, newRequest(t, http.MethodGet, "https://api.test/"), 200, nil)
	exchange(t, m, newRequest(t, http.MethodGet, "https://api.test/"), 0, errors.ConnectionFailed(nil))

	pm := m.(*promMetrics)
	if got := testutil.ToFloat64(pm.requests.WithLabelValues("GET", "api.test", "200")); got != 2 {
		t.Errorf("expected 2 ok requests, got %v", got)
	}
	if got := testutil.ToFloat64(pm.requests.WithLabelValues("GET", "api.test", "CONNECTION_FAILED")); got != 1 {
		t.Errorf("expected 1 failed request, got %v", got)
	}
	if got := testutil.ToFloat64(pm.inFlight.WithLabelValues("GET", "api.test")); got != 0 {
		t.Errorf("expected nothing in flight, got %v", got)
	}
	if n := testutil.CollectAndCount(pm.duration); n != 2 {
		t.Errorf("expected 2 duration series, got %d", n)
	}
}

func TestScope_ReleasesRejectedCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := Prometheus(reg, "scoped")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pm := m.(*promMetrics)
	chain := Chain{RequireSuccess(), m}

	ctx, release := Scope(context.Background())
	prepared, err := chain.Prepare(newRequest(t, http.MethodGet, "https://api.test/").WithContext(ctx))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chain.WillSend(prepared)
	if err := chain.DidReceiveResponse(respond(prepared, http.StatusNotFound), nil); err == nil {
		t.Fatal("expected the response to be rejected")
	}
	if got := testutil.ToFloat64(pm.inFlight.WithLabelValues("GET", "api.test")); got != 1 {
		t.Fatalf("expected the rejected call still in flight before release, got %v", got)
	}

	release()
	if got := testutil.ToFloat64(pm.inFlight.WithLabelValues("GET", "api.test")); got != 0 {
		t.Errorf("expected nothing in flight after release, got %v", got)
	}
	if got := testutil.ToFloat64(pm.requests.WithLabelValues("GET", "api.test", "CANCELLED")); got != 1 {
		t.Errorf("expected the abandoned call counted once, got %v", got)
	}

	// Outcome hooks after release and a second release change nothing.
	_ = m.DidReceiveResponse(respond(prepared, http.StatusOK), nil)
	release()
	if n := testutil.CollectAndCount(pm.requests); n != 1 {
		t.Errorf("expected a single request series, got %d", n)
	}
}

func TestScope_SettledCallIsKept(t *testing.T) {
	m, rec := newRecordingTracing()

	ctx, release := Scope(context.Background())
	exchange(t, m, newRequest(t, http.MethodGet, "https://api.test/").WithContext(ctx), 200, nil)
	release()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected one span, got %d", len(ended))
	}
	if ended[0].Status().Code == codes.Error {
		t.Errorf("a completed call must not be abandoned, got %v", ended[0].Status())
	}
}
