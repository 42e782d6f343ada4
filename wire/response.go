package wire

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
)

// Response is the metadata of a received HTTP response. The body travels
// separately as raw bytes.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Status is the status line text, e.g. "200 OK".
	Status string
	// Proto is the protocol version, e.g. "HTTP/1.1".
	Proto string
	// Header holds the response header fields.
	Header http.Header
	// URL is the URL that produced the response.
	URL *url.URL
	// Request is the wire request that was sent. Transports set it so that
	// response hooks can reach the request's context.
	Request *Request
}

// NewResponse copies the metadata of resp. The caller sets Request.
func NewResponse(resp *http.Response) *Response {
	r := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Proto:      resp.Proto,
		Header:     resp.Header.Clone(),
	}
	if resp.Request != nil {
		r.URL = resp.Request.URL
	}
	return r
}

// Context returns the context of the originating request, or
// context.Background when none is attached.
func (r *Response) Context() context.Context {
	if r.Request != nil {
		return r.Request.Context()
	}
	return context.Background()
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

func bodyReader(b []byte) io.Reader {
	if b == nil {
		return nil
	}
	return bytes.NewReader(b)
}
