package middleware

import (
	"github.com/dustin/go-humanize"

	"github.com/kbukum/networkable/errors"
	"github.com/kbukum/networkable/logger"
	"github.com/kbukum/networkable/observability"
	"github.com/kbukum/networkable/wire"
)

type logging struct {
	Base
	log *logger.Logger
}

// Logging writes one line when a request is sent and one when it completes.
// Completed exchanges log at info, warn for 4xx and error for 5xx and
// transport failures. A nil log uses the "http" logger.
func Logging(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.Get("http")
	}
	return &logging{log: log}
}

func (*logging) Name() string { return "logging" }

func (l *logging) Prepare(req *wire.Request) (*wire.Request, error) {
	ctx, _ := observability.StartExchange(req.Context(), req.Method, req.URL.Host)
	return req.WithContext(ctx), nil
}

func (l *logging) WillSend(req *wire.Request) {
	l.log.WithContext(req.Context()).Debug("sending request", logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldURL, req.URL.Redacted(),
		logger.FieldBytes, humanize.Bytes(uint64(len(req.Body))),
	))
}

func (l *logging) DidReceiveResponse(resp *wire.Response, body []byte) error {
	ctx := resp.Context()
	fields := logger.Fields(
		logger.FieldStatusCode, resp.StatusCode,
		logger.FieldBytes, humanize.Bytes(uint64(len(body))),
	)
	if resp.Request != nil {
		fields[logger.FieldMethod] = resp.Request.Method
		fields[logger.FieldURL] = resp.Request.URL.Redacted()
	}
	if ex := observability.ExchangeFromContext(ctx); ex != nil {
		fields = logger.MergeWithDuration(fields, ex.Elapsed())
	}

	log := l.log.WithContext(ctx)
	switch {
	case resp.StatusCode >= 500:
		log.Error("request completed", fields)
	case resp.StatusCode >= 400:
		log.Warn("request completed", fields)
	default:
		log.Info("request completed", fields)
	}
	return nil
}

func (l *logging) DidReceiveError(err error, req *wire.Request) {
	ctx := req.Context()
	fields := logger.ErrorFields("transport", err)
	fields[logger.FieldMethod] = req.Method
	fields[logger.FieldURL] = req.URL.Redacted()
	if code := errors.CodeOf(err); code != "" {
		fields[logger.FieldErrorCode] = string(code)
	}
	if ex := observability.ExchangeFromContext(ctx); ex != nil {
		fields = logger.MergeWithDuration(fields, ex.Elapsed())
	}
	l.log.WithContext(ctx).Error("request failed", fields)
}
