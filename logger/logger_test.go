package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

func jsonLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: level, Format: "json"}, "svc", &buf)
	return l, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", lines[len(lines)-1], err)
	}
	return m
}

func TestNewWithWriter_JSON(t *testing.T) {
	l, buf := jsonLogger(t, "info")
	l.Info("hello", Fields("method", "GET", "status_code", 200))

	e := lastEntry(t, buf)
	if e["message"] != "hello" {
		t.Errorf("expected message hello, got %v", e["message"])
	}
	if e["service"] != "svc" {
		t.Errorf("expected service field, got %v", e["service"])
	}
	if e["method"] != "GET" || e["status_code"] != float64(200) {
		t.Errorf("unexpected fields %v", e)
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := jsonLogger(t, "warn")
	l.Debug("dropped")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected nothing below warn, got %q", buf.String())
	}
	l.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected warn entry, got %q", buf.String())
	}
	if l.Enabled(zerolog.DebugLevel) {
		t.Error("debug should not be enabled")
	}
	if !l.Enabled(zerolog.ErrorLevel) {
		t.Error("error should be enabled")
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := jsonLogger(t, "nope")
	l.Debug("dropped")
	l.Info("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWithComponentAndFields(t *testing.T) {
	l, buf := jsonLogger(t, "debug")
	l.WithComponent("session").
		WithFields(map[string]interface{}{"phase": "prepare"}).
		WithError(errors.New("boom")).
		Debug("failed")

	e := lastEntry(t, buf)
	if e["component"] != "session" || e["phase"] != "prepare" || e["error"] != "boom" {
		t.Errorf("unexpected entry %v", e)
	}
}

func TestWithContext(t *testing.T) {
	l, buf := jsonLogger(t, "info")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = ContextWithRequestID(ctx, "req-1")

	l.WithContext(ctx).Info("traced")

	e := lastEntry(t, buf)
	if e["trace_id"] != traceID.String() || e["span_id"] != spanID.String() {
		t.Errorf("expected trace fields, got %v", e)
	}
	if e["request_id"] != "req-1" {
		t.Errorf("expected request id, got %v", e["request_id"])
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("ignored")
	l.WithComponent("x").Error("ignored")
	if l.Enabled(zerolog.ErrorLevel) {
		t.Error("nop logger should not be enabled")
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "users", &buf)
	l.Info("ready", Fields("method", "GET"))
	out := buf.String()
	if !strings.Contains(out, "[USE][INF]") {
		t.Errorf("expected service and level tags, got %q", out)
	}
	if !strings.Contains(out, "method:GET") {
		t.Errorf("expected field, got %q", out)
	}
}

func TestConfig(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stderr" || !cfg.Timestamp {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad level", Config{Level: "loud", Format: "json"}},
		{"bad format", Config{Level: "info", Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFields(t *testing.T) {
	f := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(f) != 2 || f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields %v", f)
	}

	ef := ErrorFields("transport", errors.New("refused"))
	if ef[FieldPhase] != "transport" || ef[FieldError] != "refused" {
		t.Errorf("unexpected error fields %v", ef)
	}

	df := MergeWithDuration(nil, 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("unexpected duration %v", df[FieldDuration])
	}
}

func TestNamedLoggers(t *testing.T) {
	l, buf := jsonLogger(t, "info")
	Register("test-registry", l)
	Get("test-registry").Info("from registry")
	if !strings.Contains(buf.String(), "from registry") {
		t.Errorf("expected registered logger to be returned, got %q", buf.String())
	}

	if Get("unregistered") == nil {
		t.Error("expected fallback logger")
	}
}

func TestGlobalLogger(t *testing.T) {
	prev := globalLogger
	defer func() { globalLogger = prev }()

	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected nop fallback")
	}

	l, buf := jsonLogger(t, "info")
	SetGlobalLogger(l)
	Get("anything").Info("global")
	e := lastEntry(t, buf)
	if e["component"] != "anything" {
		t.Errorf("expected component tag, got %v", e)
	}
}
