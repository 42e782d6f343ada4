package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kbukum/networkable/component"
	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/middleware"
	"github.com/kbukum/networkable/request"
	"github.com/kbukum/networkable/resilience"
	"github.com/kbukum/networkable/transport"
)

// headerServer records request headers and answers {"id":42}, or the
// status named by the "status" query parameter.
func headerServer(t *testing.T) (*httptest.Server, func() http.Header) {
	t.Helper()
	var (
		mu   sync.Mutex
		last http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		last = r.Header.Clone()
		mu.Unlock()
		switch r.URL.Query().Get("status") {
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
			return
		case "404":
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() http.Header {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestNewFromConfig(t *testing.T) {
	srv, seen := headerServer(t)
	s, err := NewFromConfig(Config{
		BaseURL:        srv.URL + "/v1",
		Headers:        map[string]string{"x-team": "core"},
		UserAgent:      "tests/1.0",
		RequestID:      true,
		Auth:           middleware.BearerAuth("secret"),
		ValidateStatus: true,
	})
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}

	got, err := Do[user](context.Background(), s, request.GET("/users/42"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 42 {
		t.Errorf("expected id 42, got %d", got.ID)
	}

	h := seen()
	checks := map[string]string{
		"User-Agent":    "tests/1.0",
		"X-Team":        "core",
		"Authorization": "Bearer secret",
	}
	for k, want := range checks {
		if h.Get(k) != want {
			t.Errorf("header %s: expected %q, got %q", k, want, h.Get(k))
		}
	}
	if h.Get(middleware.DefaultRequestIDHeader) == "" {
		t.Error("expected a request id header")
	}

	_, err = Do[user](context.Background(), s, request.GET("/users/1", request.WithQuery("status", "404")))
	if !errors.IsMiddlewareValidation(err) {
		t.Errorf("expected MIDDLEWARE_VALIDATION for 404, got %v", err)
	}
}

func TestNewFromConfig_MiddlewareOrder(t *testing.T) {
	s, err := NewFromConfig(Config{
		RequestID:      true,
		Auth:           middleware.BearerAuth("t"),
		RateLimit:      &middleware.RateLimitConfig{RequestsPerSecond: 100},
		CircuitBreaker: &resilience.CircuitBreakerConfig{},
		Tracing:        true,
		Logging:        true,
		Metrics:        true,
		Prometheus:     &PrometheusConfig{Namespace: "test"},
		ValidateStatus: true,
		Registerer:     prometheus.NewRegistry(),
	}, WithMiddleware(&middleware.Funcs{Label: "custom"}))
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}

	var names []string
	for _, m := range s.Middlewares() {
		names = append(names, middleware.NameOf(m))
	}
	want := []string{
		"request_id", "auth", "rate_limit", "circuit_breaker", "tracing",
		"logging", "metrics", "prometheus", "validate_status", "custom",
	}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("middleware order\n got: %v\nwant: %v", names, want)
	}
}

func TestNewFromConfig_JWT(t *testing.T) {
	srv, seen := headerServer(t)
	s, err := NewFromConfig(Config{
		BaseURL: srv.URL,
		JWT:     &middleware.JWTConfig{Secret: "k", Issuer: "tests"},
	})
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if _, _, err := s.Fetch(context.Background(), request.GET("/")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth := seen().Get("Authorization"); !strings.HasPrefix(auth, "Bearer ey") {
		t.Errorf("expected a signed bearer token, got %q", auth)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"bad base url", Config{BaseURL: "not a url"}, "base_url"},
		{"bad transport", Config{Transport: transport.Config{Kind: "carrier-pigeon"}}, "transport"},
		{"bearer without token", Config{Auth: &middleware.AuthConfig{Type: middleware.AuthBearer}}, "auth"},
		{"jwt without secret", Config{JWT: &middleware.JWTConfig{}}, "jwt"},
		{"auth and jwt", Config{Auth: middleware.BearerAuth("t"), JWT: &middleware.JWTConfig{Secret: "k"}}, "jwt"},
		{"negative rate", Config{RateLimit: &middleware.RateLimitConfig{RequestsPerSecond: -1}}, "rate_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromConfig(tt.cfg)
			if errors.CodeOf(err) != errors.ErrCodeInvalidConfig {
				t.Fatalf("expected INVALID_CONFIG, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("expected %q in %v", tt.field, err)
			}
		})
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{CircuitBreaker: &resilience.CircuitBreakerConfig{}}
	cfg.ApplyDefaults()
	if cfg.Name != "http" || cfg.CircuitBreaker.Name != "http" {
		t.Errorf("expected default names, got %q and %q", cfg.Name, cfg.CircuitBreaker.Name)
	}
	if !strings.HasPrefix(cfg.UserAgent, "networkable/") {
		t.Errorf("unexpected user agent %q", cfg.UserAgent)
	}
	if cfg.Transport.Kind != transport.KindHTTP || cfg.Transport.Timeout != 30*time.Second {
		t.Errorf("unexpected transport defaults %+v", cfg.Transport)
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	srv, _ := headerServer(t)
	c := NewComponent(Config{
		Name:           "users",
		BaseURL:        srv.URL,
		CircuitBreaker: &resilience.CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Hour},
	})
	ctx := context.Background()

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy || h.Name != "users" {
		t.Errorf("expected healthy after start, got %+v", h)
	}
	if d := c.Describe(); d.Type != "http-session" || !strings.Contains(d.Details, srv.URL) {
		t.Errorf("unexpected description %+v", d)
	}

	if _, _, err := c.Session().Fetch(ctx, request.GET("/", request.WithQuery("status", "500"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy with the breaker open, got %+v", h)
	}
	_, _, err := c.Session().Fetch(ctx, request.GET("/"))
	if !errors.IsMiddlewarePrepare(err) {
		t.Errorf("expected the open breaker to reject in prepare, got %v", err)
	}

	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Session() != nil {
		t.Error("expected no session after stop")
	}
}

func TestComponent_StartRejectsInvalidConfig(t *testing.T) {
	c := NewComponent(Config{BaseURL: "::"})
	if err := c.Start(context.Background()); errors.CodeOf(err) != errors.ErrCodeInvalidConfig {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
	if c.Session() != nil {
		t.Error("expected no session")
	}
}
