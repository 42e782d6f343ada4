package session

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/kbukum/networkable/codec"
	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/logger"
	"github.com/kbukum/networkable/middleware"
	"github.com/kbukum/networkable/request"
	"github.com/kbukum/networkable/transport"
	"github.com/kbukum/networkable/wire"
)

// Builder resolves abstract requests into wire requests. *builder.Builder
// implements it.
type Builder interface {
	Build(req request.Request) (*wire.Request, error)
}

// Session executes requests: it builds them, runs them through its
// middlewares and sends them over its transport.
//
// A Session is immutable after New and safe for concurrent use. Concurrent
// calls share no state beyond the middlewares themselves.
type Session struct {
	builder     Builder
	middlewares middleware.Chain
	transport   transport.Transport
	decoder     codec.Decoder
	executor    Executor
	log         *logger.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithMiddleware appends middlewares. Their order is the hook invocation order.
func WithMiddleware(m ...middleware.Middleware) Option {
	return func(s *Session) { s.middlewares = append(s.middlewares, m...) }
}

// WithDecoder sets the default response decoder. Defaults to codec.JSON.
func WithDecoder(d codec.Decoder) Option {
	return func(s *Session) { s.decoder = d }
}

// WithExecutor sets the default executor for callback delivery. Without one,
// callbacks run on the transport's goroutine.
func WithExecutor(e Executor) Option {
	return func(s *Session) { s.executor = e }
}

// WithLogger sets the logger for the session's debug output. Defaults to a
// no-op logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New creates a Session. A Sender without a callback form is given one with
// transport.Async.
func New(b Builder, t transport.Sender, opts ...Option) *Session {
	s := &Session{
		builder:   b,
		transport: transport.Async(t),
		decoder:   codec.JSON,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.middlewares = append(middleware.Chain(nil), s.middlewares...)
	s.log = s.log.WithComponent("session")
	return s
}

// Middlewares returns a copy of the middleware list.
func (s *Session) Middlewares() []middleware.Middleware {
	return append([]middleware.Middleware(nil), s.middlewares...)
}

// Transport returns the session's transport.
func (s *Session) Transport() transport.Transport { return s.transport }

// start builds and prepares req under callCtx, then notifies willSend.
// Failures returned here happened before any network activity; only prepare
// hooks up to the failing one have run. A prepared request that lost its
// context is bound to callCtx again so cancellation still reaches the
// transport.
func (s *Session) start(ctx, callCtx context.Context, r request.Request) (*wire.Request, error) {
	built, err := s.builder.Build(r)
	if err != nil {
		if !errors.IsInvalidRequest(err) {
			err = errors.InvalidRequest("build request", err)
		}
		s.log.Debug("build failed", logger.Fields(
			logger.FieldMethod, string(r.Method),
			"path", r.Path,
			logger.FieldError, err.Error(),
		))
		return nil, err
	}

	prepared, err := s.middlewares.Prepare(built.WithContext(callCtx))
	if err != nil {
		s.log.WithContext(ctx).Debug("prepare failed", logger.Fields(
			logger.FieldMethod, built.Method,
			logger.FieldURL, built.URL.Redacted(),
			logger.FieldError, err.Error(),
		))
		return nil, err
	}

	if !prepared.HasContext() {
		prepared = prepared.WithContext(callCtx)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}

	s.middlewares.WillSend(prepared)
	s.log.WithContext(ctx).Debug("request sent", logger.Fields(
		logger.FieldMethod, prepared.Method,
		logger.FieldURL, prepared.URL.Redacted(),
	))
	return prepared, nil
}

// finish turns the transport outcome into the call outcome and runs the
// matching notification hooks. A call whose context ended, or whose
// transport reported a cancellation, notifies nobody.
func (s *Session) finish(ctx context.Context, req *wire.Request, resp *wire.Response, body []byte, err error, began time.Time) (*wire.Response, []byte, error) {
	log := s.log.WithContext(ctx)

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Debug("request cancelled", logger.MergeWithDuration(nil, time.Since(began)))
		return nil, nil, errors.Cancelled(ctxErr)
	}

	if err == nil && resp == nil {
		err = errors.Transport(stderrors.New("transport returned neither a response nor an error"))
	}
	if err != nil {
		if !errors.IsTransport(err) {
			err = errors.Transport(err)
		}
		if errors.IsCancelled(err) {
			log.Debug("request cancelled by transport", logger.MergeWithDuration(nil, time.Since(began)))
			return nil, nil, err
		}
		s.middlewares.DidReceiveError(err, req)
		log.Debug("transport failed", logger.MergeWithDuration(logger.Fields(
			logger.FieldErrorCode, string(errors.CodeOf(err)),
			logger.FieldError, err.Error(),
		), time.Since(began)))
		return nil, nil, err
	}

	if resp.Request == nil {
		resp.Request = req
	}
	if err := s.middlewares.DidReceiveResponse(resp, body); err != nil {
		log.Debug("response rejected", logger.Fields(
			logger.FieldStatusCode, resp.StatusCode,
			logger.FieldError, err.Error(),
		))
		return nil, nil, err
	}

	log.Debug("response received", logger.MergeWithDuration(logger.Fields(
		logger.FieldStatusCode, resp.StatusCode,
		logger.FieldBytes, len(body),
	), time.Since(began)))
	return resp, body, nil
}

// exec runs one call to completion on the calling goroutine.
func (s *Session) exec(ctx context.Context, r request.Request) (*wire.Response, []byte, error) {
	began := time.Now()
	callCtx, release := middleware.Scope(ctx)
	defer release()

	req, err := s.start(ctx, callCtx, r)
	if err != nil {
		return nil, nil, err
	}
	resp, body, err := s.transport.Send(req.Context(), req)
	return s.finish(ctx, req, resp, body, err, began)
}

// execAsync runs one call with the transport's callback form. done runs on
// the transport's goroutine, or on the calling goroutine before execAsync
// returns when the call fails before reaching the transport.
func (s *Session) execAsync(ctx context.Context, r request.Request, done transport.Callback) {
	began := time.Now()
	callCtx, release := middleware.Scope(ctx)

	req, err := s.start(ctx, callCtx, r)
	if err != nil {
		release()
		done(nil, nil, err)
		return
	}
	s.transport.SendAsync(req.Context(), req, func(resp *wire.Response, body []byte, err error) {
		resp, body, err = s.finish(ctx, req, resp, body, err, began)
		release()
		done(resp, body, err)
	})
}

// Fetch executes r and returns the response and its raw body without
// decoding.
func (s *Session) Fetch(ctx context.Context, r request.Request) (*wire.Response, []byte, error) {
	return s.exec(ctx, r)
}

// FetchAsync is the callback form of Fetch. done is dispatched through the
// first executor among opts, the session's executor, or run directly.
func (s *Session) FetchAsync(ctx context.Context, r request.Request, done transport.Callback, opts ...CallOption) {
	o := s.callOptions(opts)
	s.execAsync(ctx, r, func(resp *wire.Response, body []byte, err error) {
		o.deliver(func() { done(resp, body, err) })
	})
}
