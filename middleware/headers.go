package middleware

import (
	"net/http"

	"github.com/kbukum/networkable/wire"
)

type headers struct {
	Base
	values    http.Header
	overwrite bool
}

// Headers sets static header fields on every request, replacing existing
// values.
func Headers(values map[string]string) Middleware {
	return &headers{values: toHeader(values), overwrite: true}
}

// DefaultHeaders sets static header fields only where the request does not
// already carry the field.
func DefaultHeaders(values map[string]string) Middleware {
	return &headers{values: toHeader(values)}
}

func toHeader(values map[string]string) http.Header {
	h := make(http.Header, len(values))
	for k, v := range values {
		h.Set(k, v)
	}
	return h
}

func (*headers) Name() string { return "headers" }

func (h *headers) Prepare(req *wire.Request) (*wire.Request, error) {
	if len(h.values) == 0 {
		return req, nil
	}
	out := req.Clone()
	for k, vs := range h.values {
		if !h.overwrite && out.Header.Get(k) != "" {
			continue
		}
		out.Header[k] = append([]string(nil), vs...)
	}
	return out, nil
}
