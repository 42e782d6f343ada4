package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/kbukum/networkable/wire"
)

// FastHTTP sends wire requests with a valyala/fasthttp client. fasthttp has
// no context support, so each exchange races the caller's context; an
// abandoned exchange finishes in the background and its result is dropped.
type FastHTTP struct {
	client  *fasthttp.Client
	timeout time.Duration
}

// NewFastHTTP builds a FastHTTP transport from cfg.
func NewFastHTTP(cfg Config) (*FastHTTP, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}

	return &FastHTTP{
		client: &fasthttp.Client{
			TLSConfig:                tlsCfg,
			MaxConnsPerHost:          cfg.MaxIdleConnsPerHost,
			NoDefaultUserAgentHeader: true,
		},
		timeout: cfg.Timeout,
	}, nil
}

// Send performs the exchange and copies the response out of fasthttp's
// pooled buffers.
func (t *FastHTTP) Send(ctx context.Context, req *wire.Request) (*wire.Response, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, classify(ctx, err)
	}

	freq := fasthttp.AcquireRequest()
	fresp := fasthttp.AcquireResponse()
	release := func() {
		fasthttp.ReleaseRequest(freq)
		fasthttp.ReleaseResponse(fresp)
	}

	freq.SetRequestURI(req.URL.String())
	freq.Header.SetMethod(req.Method)
	for k, vs := range req.Header {
		for _, v := range vs {
			freq.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		freq.SetBody(req.Body)
	}

	done := make(chan error, 1)
	go func() { done <- t.client.DoTimeout(freq, fresp, t.timeout) }()

	select {
	case <-ctx.Done():
		go func() {
			<-done
			release()
		}()
		return nil, nil, classify(ctx, ctx.Err())
	case err := <-done:
		defer release()
		if err != nil {
			return nil, nil, classify(ctx, err)
		}
		return t.response(req, fresp), append([]byte(nil), fresp.Body()...), nil
	}
}

// SendAsync runs Send on a new goroutine.
func (t *FastHTTP) SendAsync(ctx context.Context, req *wire.Request, done Callback) {
	goSend(ctx, t, req, done)
}

// CloseIdleConnections closes pooled connections that are not in use.
func (t *FastHTTP) CloseIdleConnections() { t.client.CloseIdleConnections() }

func (t *FastHTTP) response(req *wire.Request, fresp *fasthttp.Response) *wire.Response {
	header := make(http.Header)
	for k, v := range fresp.Header.All() {
		header.Add(string(k), string(v))
	}
	code := fresp.StatusCode()
	msg := string(fresp.Header.StatusMessage())
	if msg == "" {
		msg = http.StatusText(code)
	}
	return &wire.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, msg),
		Proto:      "HTTP/1.1",
		Header:     header,
		URL:        req.URL,
		Request:    req,
	}
}
