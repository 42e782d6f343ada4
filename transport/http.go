package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"

	"golang.org/x/net/http2"

	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/resilience"
	"github.com/kbukum/networkable/wire"
)

type exchange struct {
	resp *wire.Response
	body []byte
}

// HTTP sends wire requests with a net/http client.
type HTTP struct {
	client *http.Client
	retry  *resilience.RetryConfig
}

// NewHTTP builds an HTTP transport from cfg. The client uses a clone of
// http.DefaultTransport, or an x/net/http2 transport dialing cleartext TCP
// when H2C is set.
func NewHTTP(cfg Config) (*HTTP, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}

	var rt http.RoundTripper
	if cfg.H2C {
		rt = h2cTransport()
	} else {
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
		if tlsCfg != nil {
			base.TLSClientConfig = tlsCfg
		}
		rt = base
	}

	return &HTTP{
		client: &http.Client{Transport: rt, Timeout: cfg.Timeout},
		retry:  cfg.Retry,
	}, nil
}

// NewHTTPWithClient wraps an existing client. retry may be nil.
func NewHTTPWithClient(client *http.Client, retry *resilience.RetryConfig) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{client: client, retry: retry}
}

func h2cTransport() *http2.Transport {
	var d net.Dialer
	return &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			return d.DialContext(ctx, network, addr)
		},
	}
}

// Client returns the underlying client.
func (t *HTTP) Client() *http.Client { return t.client }

// Send performs the exchange and reads the whole response body.
func (t *HTTP) Send(ctx context.Context, req *wire.Request) (*wire.Response, []byte, error) {
	if t.retry == nil {
		ex, err := t.once(ctx, req)
		if err != nil {
			return nil, nil, err
		}
		return ex.resp, ex.body, nil
	}

	ex, err := resilience.Retry(ctx, *t.retry, func() (exchange, error) {
		return t.once(ctx, req)
	})
	if err != nil {
		return nil, nil, classify(ctx, err)
	}
	return ex.resp, ex.body, nil
}

// SendAsync runs Send on a new goroutine.
func (t *HTTP) SendAsync(ctx context.Context, req *wire.Request, done Callback) {
	goSend(ctx, t, req, done)
}

// CloseIdleConnections closes pooled connections that are not in use.
func (t *HTTP) CloseIdleConnections() { t.client.CloseIdleConnections() }

func (t *HTTP) once(ctx context.Context, req *wire.Request) (exchange, error) {
	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return exchange{}, errors.ConnectionFailed(fmt.Errorf("create request: %w", err))
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return exchange{}, classify(ctx, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return exchange{}, classify(ctx, fmt.Errorf("read response body: %w", err))
	}

	resp := wire.NewResponse(httpResp)
	resp.Request = req
	if resp.URL == nil {
		resp.URL = req.URL
	}
	return exchange{resp: resp, body: body}, nil
}
