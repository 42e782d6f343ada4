package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/wire"
)

func newRequest(t *testing.T, method, rawURL string) *wire.Request {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return &wire.Request{Method: method, URL: u, Header: make(http.Header)}
}

func respond(req *wire.Request, status int) *wire.Response {
	return &wire.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     make(http.Header),
		URL:        req.URL,
		Request:    req,
	}
}

// tracer records hook calls as "label:hook".
type tracer struct {
	label      string
	log        *[]string
	prepareErr error
	respErr    error
	setHeader  bool
}

func (r *tracer) Name() string { return r.label }

func (r *tracer) Prepare(req *wire.Request) (*wire.Request, error) {
	*r.log = append(*r.log, r.label+":prepare")
	if r.prepareErr != nil {
		return nil, r.prepareErr
	}
	if !r.setHeader {
		return req, nil
	}
	out := req.Clone()
	out.Header.Add("X-Seen", r.label)
	return out, nil
}

func (r *tracer) WillSend(*wire.Request) {
	*r.log = append(*r.log, r.label+":willSend")
}

func (r *tracer) DidReceiveResponse(*wire.Response, []byte) error {
	*r.log = append(*r.log, r.label+":didReceiveResponse")
	return r.respErr
}

func (r *tracer) DidReceiveError(error, *wire.Request) {
	*r.log = append(*r.log, r.label+":didReceiveError")
}

func TestChain_PrepareFoldsInOrder(t *testing.T) {
	var log []string
	chain := Chain{
		&tracer{label: "a", log: &log, setHeader: true},
		&tracer{label: "b", log: &log, setHeader: true},
		&tracer{label: "c", log: &log, setHeader: true},
	}
	in := newRequest(t, http.MethodGet, "https://api.test/users/1")

	out, err := chain.Prepare(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(out.Header.Values("X-Seen"), ","); got != "a,b,c" {
		t.Errorf("expected each prepare to see the previous output, got %q", got)
	}
	if len(in.Header.Values("X-Seen")) != 0 {
		t.Error("input request was modified")
	}
	if got := strings.Join(log, ","); got != "a:prepare,b:prepare,c:prepare" {
		t.Errorf("unexpected order %s", got)
	}
}

func TestChain_PrepareNilKeepsRequest(t *testing.T) {
	nilReturner := &Funcs{OnPrepare: func(*wire.Request) (*wire.Request, error) { return nil, nil }}
	in := newRequest(t, http.MethodGet, "https://api.test/")

	out, err := Chain{nilReturner}.Prepare(in)
	if err != nil || out != in {
		t.Errorf("expected the input request back, got %v, %v", out, err)
	}
}

func TestChain_PrepareStopsAtFailure(t *testing.T) {
	var log []string
	boom := stderrors.New("body not allowed")
	chain := Chain{
		&tracer{label: "a", log: &log},
		&tracer{label: "b", log: &log, prepareErr: boom},
		&tracer{label: "c", log: &log},
	}

	out, err := chain.Prepare(newRequest(t, http.MethodPost, "https://api.test/"))
	if out != nil {
		t.Error("expected nil request on failure")
	}
	if !errors.IsMiddlewarePrepare(err) {
		t.Fatalf("expected MIDDLEWARE_PREPARE, got %v", err)
	}
	if !stderrors.Is(err, boom) {
		t.Error("expected the cause to be wrapped")
	}
	e, _ := errors.AsError(err)
	if e.Details["middleware"] != "b" || e.Details["index"] != 1 {
		t.Errorf("unexpected details %v", e.Details)
	}
	if got := strings.Join(log, ","); got != "a:prepare,b:prepare" {
		t.Errorf("later prepares must not run, got %s", got)
	}
}

func TestChain_FanOuts(t *testing.T) {
	var log []string
	chain := Chain{&tracer{label: "a", log: &log}, &tracer{label: "b", log: &log}}
	req := newRequest(t, http.MethodGet, "https://api.test/")

	chain.WillSend(req)
	chain.DidReceiveError(errors.ConnectionFailed(nil), req)

	want := "a:willSend,b:willSend,a:didReceiveError,b:didReceiveError"
	if got := strings.Join(log, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestChain_DidReceiveResponseStopsAtRejection(t *testing.T) {
	var log []string
	chain := Chain{
		&tracer{label: "a", log: &log},
		&tracer{label: "b", log: &log, respErr: NewStatusError(404, nil)},
		&tracer{label: "c", log: &log},
	}
	req := newRequest(t, http.MethodGet, "https://api.test/")

	err := chain.DidReceiveResponse(respond(req, 404), nil)
	if !errors.IsMiddlewareValidation(err) {
		t.Fatalf("expected MIDDLEWARE_VALIDATION, got %v", err)
	}
	e, _ := errors.AsError(err)
	if e.StatusCode != 404 {
		t.Errorf("expected status 404 carried over, got %d", e.StatusCode)
	}
	if e.Details["index"] != 1 {
		t.Errorf("unexpected details %v", e.Details)
	}
	if got := strings.Join(log, ","); got != "a:didReceiveResponse,b:didReceiveResponse" {
		t.Errorf("later response hooks must not run, got %s", got)
	}
}

func TestNameOf(t *testing.T) {
	if got := NameOf(&Funcs{Label: "custom"}); got != "custom" {
		t.Errorf("expected custom, got %s", got)
	}
	if got := NameOf(&Funcs{}); got != "*middleware.Funcs" {
		t.Errorf("expected type name fallback, got %s", got)
	}
	if got := NameOf(RequireSuccess()); got != "validate_status" {
		t.Errorf("expected validate_status, got %s", got)
	}
}

func TestBase_NoOps(t *testing.T) {
	var b Base
	req := newRequest(t, http.MethodGet, "https://api.test/")
	if out, err := b.Prepare(req); out != req || err != nil {
		t.Error("expected passthrough prepare")
	}
	b.WillSend(req)
	b.DidReceiveError(context.Canceled, req)
	if err := b.DidReceiveResponse(respond(req, 500), nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
