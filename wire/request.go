// Package wire holds the resolved, ready-to-transmit form of an HTTP call and
// the metadata of the response it produced.
package wire

import (
	"context"
	"net/http"
	"net/url"
)

// Request is a fully resolved HTTP request: absolute URL, method, header and
// body bytes. It is produced once per send by the builder and then threaded
// through every middleware's Prepare hook.
//
// Middlewares that change a Request should work on a Clone so the version
// they received stays untouched.
type Request struct {
	// Method is the HTTP method. Any token is allowed, not only the standard verbs.
	Method string
	// URL is the absolute request URL.
	URL *url.URL
	// Header holds the request header fields.
	Header http.Header
	// Body is the encoded request body (nil for no body).
	Body []byte

	ctx context.Context
}

// Context returns the request's context. It is never nil.
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// HasContext reports whether a context was set with WithContext.
func (r *Request) HasContext() bool { return r.ctx != nil }

// WithContext returns a shallow copy of r with its context changed to ctx.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("wire: nil context")
	}
	r2 := *r
	r2.ctx = ctx
	return &r2
}

// Clone returns a deep copy of r. The context is carried over unchanged.
func (r *Request) Clone() *Request {
	r2 := *r
	if r.URL != nil {
		u := *r.URL
		if r.URL.User != nil {
			u.User = cloneUserinfo(r.URL.User)
		}
		r2.URL = &u
	}
	r2.Header = r.Header.Clone()
	if r2.Header == nil {
		r2.Header = make(http.Header)
	}
	if r.Body != nil {
		r2.Body = append([]byte(nil), r.Body...)
	}
	return &r2
}

// HTTPRequest converts r into a *http.Request bound to ctx.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL.String(), bodyReader(r.Body))
	if err != nil {
		return nil, err
	}
	req.Header = r.Header.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	return req, nil
}

func cloneUserinfo(u *url.Userinfo) *url.Userinfo {
	if p, ok := u.Password(); ok {
		return url.UserPassword(u.Username(), p)
	}
	return url.User(u.Username())
}
