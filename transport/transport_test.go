package transport

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/resilience"
	"github.com/kbukum/networkable/security"
	"github.com/kbukum/networkable/security/tlstest"
	"github.com/kbukum/networkable/wire"
)

func wireRequest(t *testing.T, method, rawURL string, body []byte) *wire.Request {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return &wire.Request{Method: method, URL: u, Header: make(http.Header), Body: body}
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Proto", r.Proto)
		w.Header().Set("X-Echo", r.Header.Get("X-Echo"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// blockingServer holds every request until the client goes away or the test
// ends.
func blockingServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	return srv
}

func newHTTP(t *testing.T, cfg Config) *HTTP {
	t.Helper()
	tr, err := NewHTTP(cfg)
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	t.Cleanup(tr.CloseIdleConnections)
	return tr
}

func TestHTTP_Send(t *testing.T) {
	srv := echoServer(t)
	tr := newHTTP(t, Config{})

	tests := []struct {
		method string
		body   []byte
	}{
		{http.MethodPost, []byte(`{"name":"ada"}`)},
		{http.MethodGet, nil},
		{"PURGE", nil},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req := wireRequest(t, tt.method, srv.URL+"/users", tt.body)
			req.Header.Set("X-Echo", "hello")

			resp, body, err := tr.Send(context.Background(), req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.StatusCode != http.StatusCreated || resp.Status != "201 Created" {
				t.Errorf("unexpected status %d %q", resp.StatusCode, resp.Status)
			}
			if resp.Header.Get("X-Method") != tt.method || resp.Header.Get("X-Echo") != "hello" {
				t.Errorf("request not forwarded as built: %v", resp.Header)
			}
			if string(body) != string(tt.body) {
				t.Errorf("expected body %q, got %q", tt.body, body)
			}
			if resp.Request != req {
				t.Error("expected the response to point back at the sent request")
			}
			if resp.URL.String() != srv.URL+"/users" {
				t.Errorf("unexpected url %s", resp.URL)
			}
		})
	}
}

func TestHTTP_ConnectionFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, _, err := newHTTP(t, Config{}).Send(context.Background(), wireRequest(t, http.MethodGet, addr, nil))
	if !errors.Is(err, errors.ErrCodeConnectionFailed) {
		t.Fatalf("expected CONNECTION_FAILED, got %v", err)
	}
	if !errors.IsTransport(err) || errors.IsCancelled(err) {
		t.Error("expected a non-cancellation transport error")
	}
}

func TestHTTP_Timeout(t *testing.T) {
	srv := blockingServer(t)
	tr := newHTTP(t, Config{Timeout: 50 * time.Millisecond})

	_, _, err := tr.Send(context.Background(), wireRequest(t, http.MethodGet, srv.URL, nil))
	if !errors.IsTimeout(err) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if !errors.IsRetryable(err) {
		t.Error("expected timeouts to be retryable")
	}
}

func TestHTTP_Cancelled(t *testing.T) {
	srv := blockingServer(t)
	tr := newHTTP(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, _, err := tr.Send(ctx, wireRequest(t, http.MethodGet, srv.URL, nil))
	if !errors.IsCancelled(err) {
		t.Fatalf("expected CANCELLED, got %v", err)
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Error("expected context.Canceled in the chain")
	}
}

func TestHTTP_RetriesDroppedConnections(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	t.Cleanup(srv.Close)

	tr := newHTTP(t, Config{Retry: &resilience.RetryConfig{MaxAttempts: 5, InitialBackoff: time.Millisecond}})
	_, body, err := tr.Send(context.Background(), wireRequest(t, http.MethodGet, srv.URL, nil))
	if err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if string(body) != "ok" || calls.Load() < 3 {
		t.Errorf("expected success after dropped connections, body %q after %d calls", body, calls.Load())
	}
}

func TestHTTP_RetryGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	var retries int
	tr := newHTTP(t, Config{Retry: &resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		OnRetry:        func(int, error, time.Duration) { retries++ },
	}})
	_, _, err := tr.Send(context.Background(), wireRequest(t, http.MethodGet, addr, nil))
	if !errors.Is(err, errors.ErrCodeConnectionFailed) {
		t.Fatalf("expected CONNECTION_FAILED, got %v", err)
	}
	if retries != 2 {
		t.Errorf("expected 2 retries, got %d", retries)
	}
}

func TestHTTP_TLS(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "secure")
	}))
	srv.TLS = certs.ServerConfig()
	srv.StartTLS()
	t.Cleanup(srv.Close)

	tr := newHTTP(t, Config{TLS: &security.TLSConfig{CAFile: certs.CAFile}})
	_, body, err := tr.Send(context.Background(), wireRequest(t, http.MethodGet, srv.URL, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "secure" {
		t.Errorf("unexpected body %q", body)
	}

	_, _, err = newHTTP(t, Config{}).Send(context.Background(), wireRequest(t, http.MethodGet, srv.URL, nil))
	if !errors.Is(err, errors.ErrCodeConnectionFailed) {
		t.Errorf("expected an unknown CA to fail the connection, got %v", err)
	}
}

func TestHTTP_H2C(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Proto", r.Proto)
	})
	srv := httptest.NewServer(h2c.NewHandler(handler, &http2.Server{}))
	t.Cleanup(srv.Close)

	tr := newHTTP(t, Config{H2C: true})
	resp, _, err := tr.Send(context.Background(), wireRequest(t, http.MethodGet, srv.URL, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Header.Get("X-Proto") != "HTTP/2.0" {
		t.Errorf("expected HTTP/2 on the server, got %q", resp.Header.Get("X-Proto"))
	}
}

func TestHTTP_SendAsync(t *testing.T) {
	srv := echoServer(t)
	tr := newHTTP(t, Config{})

	got := make(chan error, 1)
	tr.SendAsync(context.Background(), wireRequest(t, http.MethodPut, srv.URL, []byte("x")),
		func(resp *wire.Response, body []byte, err error) {
			if err == nil && (resp.StatusCode != http.StatusCreated || string(body) != "x") {
				err = stderrors.New("unexpected response")
			}
			got <- err
		})

	select {
	case err := <-got:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("callback never ran")
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Kind != KindHTTP || cfg.Timeout != defaultTimeout || cfg.MaxIdleConnsPerHost != defaultMaxIdleConnsPerHost {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	invalid := []Config{
		{Kind: "carrier-pigeon"},
		{Kind: KindFastHTTP, H2C: true},
		{H2C: true, TLS: &security.TLSConfig{SkipVerify: true}},
		{TLS: &security.TLSConfig{CertFile: "client.pem"}},
		{MaxConcurrent: -1},
	}
	for _, c := range invalid {
		if _, err := New(c); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("expected INVALID_CONFIG for %+v, got %v", c, err)
		}
	}
}

func TestNew(t *testing.T) {
	tr, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tr.(*HTTP); !ok {
		t.Errorf("expected *HTTP, got %T", tr)
	}

	tr, err = New(Config{Kind: KindFastHTTP, MaxConcurrent: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l, ok := tr.(*Limited); !ok {
		t.Errorf("expected *Limited, got %T", tr)
	} else if _, ok := l.next.(*FastHTTP); !ok {
		t.Errorf("expected *FastHTTP inside the limit, got %T", l.next)
	}
}
