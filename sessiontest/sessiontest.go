// Package sessiontest provides doubles for testing code built on sessions:
// a middleware that records every hook call and a scripted transport.
//
//	log := &sessiontest.Log{}
//	s := session.New(b, sessiontest.Respond(200, `{"id":1}`),
//	    session.WithMiddleware(sessiontest.NewRecorder("a", log)))
//	...
//	// log.Entries() == []string{"a:prepare", "a:willSend", "a:didReceiveResponse"}
package sessiontest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/middleware"
	"github.com/kbukum/networkable/transport"
	"github.com/kbukum/networkable/wire"
)

var (
	_ middleware.Middleware = (*Recorder)(nil)
	_ transport.Transport   = (*Transport)(nil)
)

// Hook names as they appear in a Log.
const (
	HookPrepare            = "prepare"
	HookWillSend           = "willSend"
	HookDidReceiveResponse = "didReceiveResponse"
	HookDidReceiveError    = "didReceiveError"
)

// Log is an ordered, concurrency-safe list of "label:hook" entries shared by
// recorders.
type Log struct {
	mu      sync.Mutex
	entries []string
}

func (l *Log) add(entry string) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (l *Log) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Count returns how many entries name hook, across all labels.
func (l *Log) Count(hook string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if strings.HasSuffix(e, ":"+hook) {
			n++
		}
	}
	return n
}

// Reset clears the log.
func (l *Log) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

// Recorder is a middleware that writes every hook call to Log. Its hooks can
// be scripted to fail.
type Recorder struct {
	Label string
	Log   *Log

	// PrepareErr, when set, is returned by Prepare.
	PrepareErr error
	// ResponseErr, when set, is returned by DidReceiveResponse.
	ResponseErr error
	// Mutate, when set, produces Prepare's output from a clone of its input.
	Mutate func(*wire.Request)

	mu       sync.Mutex
	lastErr  error
	lastResp *wire.Response
}

// NewRecorder returns a Recorder writing to log.
func NewRecorder(label string, log *Log) *Recorder {
	return &Recorder{Label: label, Log: log}
}

// Name returns Label.
func (r *Recorder) Name() string { return r.Label }

func (r *Recorder) record(hook string) {
	if r.Log != nil {
		r.Log.add(r.Label + ":" + hook)
	}
}

func (r *Recorder) Prepare(req *wire.Request) (*wire.Request, error) {
	r.record(HookPrepare)
	if r.PrepareErr != nil {
		return nil, r.PrepareErr
	}
	if r.Mutate == nil {
		return req, nil
	}
	out := req.Clone()
	r.Mutate(out)
	return out, nil
}

func (r *Recorder) WillSend(*wire.Request) {
	r.record(HookWillSend)
}

func (r *Recorder) DidReceiveResponse(resp *wire.Response, _ []byte) error {
	r.record(HookDidReceiveResponse)
	r.mu.Lock()
	r.lastResp = resp
	r.mu.Unlock()
	return r.ResponseErr
}

func (r *Recorder) DidReceiveError(err error, _ *wire.Request) {
	r.record(HookDidReceiveError)
	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()
}

// LastError returns the error passed to the latest DidReceiveError.
func (r *Recorder) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// LastResponse returns the response passed to the latest DidReceiveResponse.
func (r *Recorder) LastResponse() *wire.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastResp
}

// Transport is a deterministic transport double. It answers every send with
// the same scripted outcome and remembers the requests it saw.
type Transport struct {
	// Status, Header and Body make up the response.
	Status int
	Header http.Header
	Body   []byte
	// Err, when set, fails every send.
	Err error
	// Block makes every send wait for its context to end.
	Block bool
	// IgnoreCancel makes a blocked send return the scripted outcome after its
	// context ends instead of a CANCELLED error.
	IgnoreCancel bool

	mu       sync.Mutex
	requests []*wire.Request
	started  chan struct{}
}

// Respond returns a Transport answering status and body.
func Respond(status int, body string) *Transport {
	return &Transport{Status: status, Body: []byte(body)}
}

// Fail returns a Transport failing every send with err.
func Fail(err error) *Transport {
	return &Transport{Err: err}
}

// Hang returns a Transport whose sends block until their context ends.
func Hang() *Transport {
	return &Transport{Block: true}
}

// Started is closed once the first send has reached the transport.
func (t *Transport) Started() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started == nil {
		t.started = make(chan struct{})
	}
	return t.started
}

func (t *Transport) enter(req *wire.Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req)
	if t.started == nil {
		t.started = make(chan struct{})
	}
	select {
	case <-t.started:
	default:
		close(t.started)
	}
}

// Send returns the scripted outcome.
func (t *Transport) Send(ctx context.Context, req *wire.Request) (*wire.Response, []byte, error) {
	t.enter(req)
	if t.Block {
		<-ctx.Done()
		if !t.IgnoreCancel {
			return nil, nil, errors.Cancelled(ctx.Err())
		}
	}
	if t.Err != nil {
		return nil, nil, t.Err
	}

	status := t.Status
	if status == 0 {
		status = http.StatusOK
	}
	header := t.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	resp := &wire.Response{
		StatusCode: status,
		Status:     strconv.Itoa(status) + " " + http.StatusText(status),
		Proto:      "HTTP/1.1",
		Header:     header,
		URL:        req.URL,
		Request:    req,
	}
	return resp, append([]byte(nil), t.Body...), nil
}

// SendAsync runs Send on a new goroutine.
func (t *Transport) SendAsync(ctx context.Context, req *wire.Request, done transport.Callback) {
	go func() {
		resp, body, err := t.Send(ctx, req)
		done(resp, body, err)
	}()
}

// Calls returns the number of sends.
func (t *Transport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

// Requests returns the requests sent so far.
func (t *Transport) Requests() []*wire.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*wire.Request(nil), t.requests...)
}

// LastRequest returns the latest request, or nil.
func (t *Transport) LastRequest() *wire.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return nil
	}
	return t.requests[len(t.requests)-1]
}
