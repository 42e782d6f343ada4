package middleware

import (
	"github.com/google/uuid"

	"github.com/kbukum/networkable/logger"
	"github.com/kbukum/networkable/wire"
)

// DefaultRequestIDHeader is the header RequestID writes.
const DefaultRequestIDHeader = "X-Request-ID"

type requestID struct {
	Base
	header string
	newID  func() string
}

// RequestID tags every request with a UUID in header (X-Request-ID when
// empty), keeping an ID the request already carries. The ID is also stored in
// the request context so later log lines include it.
func RequestID(header string) Middleware {
	if header == "" {
		header = DefaultRequestIDHeader
	}
	return &requestID{header: header, newID: uuid.NewString}
}

func (*requestID) Name() string { return "request_id" }

func (r *requestID) Prepare(req *wire.Request) (*wire.Request, error) {
	id := req.Header.Get(r.header)
	out := req
	if id == "" {
		id = r.newID()
		out = req.Clone()
		out.Header.Set(r.header, id)
	}
	return out.WithContext(logger.ContextWithRequestID(out.Context(), id)), nil
}
