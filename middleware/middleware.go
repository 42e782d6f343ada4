package middleware

import (
	"fmt"

	"github.com/kbukum/networkable/wire"
)

// Middleware observes and transforms the calls of a session. Hooks run
// synchronously on the calling goroutine; a hook that needs asynchronous work
// blocks until it is done. Implementations shared by concurrent calls
// synchronize their own state.
type Middleware interface {
	// Prepare returns the request the next middleware receives. Returning
	// an error aborts the call before anything is sent. Implementations that
	// change the request work on req.Clone().
	Prepare(req *wire.Request) (*wire.Request, error)

	// WillSend is called after every Prepare succeeded, right before the
	// transport runs.
	WillSend(req *wire.Request)

	// DidReceiveResponse is called after the transport returned a response.
	// Returning an error rejects the response and stops the hook chain.
	DidReceiveResponse(resp *wire.Response, body []byte) error

	// DidReceiveError is called when the transport failed.
	DidReceiveError(err error, req *wire.Request)
}

// Namer is implemented by middlewares that report a name for logs and
// errors.
type Namer interface {
	Name() string
}

// NameOf returns m's name, or its dynamic type when it has none.
func NameOf(m Middleware) string {
	if n, ok := m.(Namer); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%T", m)
}

// Base implements every hook as a no-op. Embed it and override the hooks
// you need.
type Base struct{}

func (Base) Prepare(req *wire.Request) (*wire.Request, error) { return req, nil }
func (Base) WillSend(*wire.Request)                           {}
func (Base) DidReceiveResponse(*wire.Response, []byte) error  { return nil }
func (Base) DidReceiveError(error, *wire.Request)             {}

// Funcs builds a Middleware from optional functions. Nil functions behave
// like Base.
type Funcs struct {
	Label      string
	OnPrepare  func(req *wire.Request) (*wire.Request, error)
	OnWillSend func(req *wire.Request)
	OnResponse func(resp *wire.Response, body []byte) error
	OnError    func(err error, req *wire.Request)
}

var _ Middleware = (*Funcs)(nil)

// Name returns Label.
func (f *Funcs) Name() string { return f.Label }

// Prepare calls OnPrepare.
func (f *Funcs) Prepare(req *wire.Request) (*wire.Request, error) {
	if f.OnPrepare == nil {
		return req, nil
	}
	return f.OnPrepare(req)
}

// WillSend calls OnWillSend.
func (f *Funcs) WillSend(req *wire.Request) {
	if f.OnWillSend != nil {
		f.OnWillSend(req)
	}
}

// DidReceiveResponse calls OnResponse.
func (f *Funcs) DidReceiveResponse(resp *wire.Response, body []byte) error {
	if f.OnResponse == nil {
		return nil
	}
	return f.OnResponse(resp, body)
}

// DidReceiveError calls OnError.
func (f *Funcs) DidReceiveError(err error, req *wire.Request) {
	if f.OnError != nil {
		f.OnError(err, req)
	}
}
