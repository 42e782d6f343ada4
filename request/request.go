package request

import (
	"net/url"
	"strings"
)

// Method is an HTTP method. It is deliberately an open string type: custom
// verbs such as "PURGE" or "PROPFIND" are as valid as the standard ones.
type Method string

// Standard HTTP methods.
const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
	MethodPatch   Method = "PATCH"
)

// String returns the method token.
func (m Method) String() string { return string(m) }

// QueryItem is a single query parameter.
type QueryItem struct {
	Key   string
	Value string
}

// Query is an ordered list of query parameters. Order is preserved on the
// wire and repeated keys are allowed.
type Query []QueryItem

// Encode renders q in "k=v&k2=v2" form, keeping the declared order.
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, item := range q {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(item.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(item.Value))
	}
	return sb.String()
}

// Get returns the first value for key, or "".
func (q Query) Get(key string) string {
	for _, item := range q {
		if item.Key == key {
			return item.Value
		}
	}
	return ""
}

// Request is an abstract description of an HTTP call.
//
// A Request is immutable once constructed: options are applied by the
// constructors, and the With methods return modified copies.
type Request struct {
	// Method is the HTTP method.
	Method Method
	// Path is resolved against the builder's base URL. An absolute URL is used as-is.
	Path string
	// Query holds the ordered query parameters.
	Query Query
	// Headers are request-specific headers. Keys are case-insensitive.
	Headers map[string]string
	// Body is the request payload. Accepts []byte, string, io.Reader,
	// codec.Multipart, or any value the builder's encoder can encode. Nil
	// means no body.
	Body any
}

// Option configures a Request under construction.
type Option func(*Request)

// New creates a request with an arbitrary method.
func New(method Method, path string, opts ...Option) Request {
	r := Request{Method: method, Path: path}
	for _, opt := range opts {
		if opt != nil {
			opt(&r)
		}
	}
	return r
}

// GET creates a GET request.
func GET(path string, opts ...Option) Request { return New(MethodGet, path, opts...) }

// HEAD creates a HEAD request.
func HEAD(path string, opts ...Option) Request { return New(MethodHead, path, opts...) }

// POST creates a POST request.
func POST(path string, opts ...Option) Request { return New(MethodPost, path, opts...) }

// PUT creates a PUT request.
func PUT(path string, opts ...Option) Request { return New(MethodPut, path, opts...) }

// DELETE creates a DELETE request.
func DELETE(path string, opts ...Option) Request { return New(MethodDelete, path, opts...) }

// CONNECT creates a CONNECT request.
func CONNECT(path string, opts ...Option) Request { return New(MethodConnect, path, opts...) }

// OPTIONS creates an OPTIONS request.
func OPTIONS(path string, opts ...Option) Request { return New(MethodOptions, path, opts...) }

// TRACE creates a TRACE request.
func TRACE(path string, opts ...Option) Request { return New(MethodTrace, path, opts...) }

// PATCH creates a PATCH request.
func PATCH(path string, opts ...Option) Request { return New(MethodPatch, path, opts...) }

// WithHeader sets a header on the request.
func WithHeader(key, value string) Option {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithHeaders sets several headers on the request.
func WithHeaders(headers map[string]string) Option {
	return func(r *Request) {
		for k, v := range headers {
			WithHeader(k, v)(r)
		}
	}
}

// WithQuery appends a query parameter.
func WithQuery(key, value string) Option {
	return func(r *Request) {
		r.Query = append(r.Query, QueryItem{Key: key, Value: value})
	}
}

// WithBody sets the request payload.
func WithBody(body any) Option {
	return func(r *Request) {
		r.Body = body
	}
}

// With returns a copy of r with opts applied. The receiver is not modified.
func (r Request) With(opts ...Option) Request {
	cp := r.clone()
	for _, opt := range opts {
		if opt != nil {
			opt(&cp)
		}
	}
	return cp
}

func (r Request) clone() Request {
	cp := r
	if r.Query != nil {
		cp.Query = append(Query(nil), r.Query...)
	}
	if r.Headers != nil {
		cp.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			cp.Headers[k] = v
		}
	}
	return cp
}
