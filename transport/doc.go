// Package transport executes wire requests over the network.
//
// A Transport has a blocking form, Send, and a callback form, SendAsync.
// Both report failures as *errors.Error values from the transport family:
//
//   - CANCELLED when the caller's context ended before the exchange completed
//   - TIMEOUT when the transport gave up waiting
//   - CONNECTION_FAILED for any other network failure
//
// Implementations:
//
//   - HTTP wraps net/http, with TLS, optional cleartext HTTP/2 (h2c) and
//     optional retries of retryable failures.
//   - FastHTTP wraps github.com/valyala/fasthttp.
//   - Limit bounds the number of exchanges in flight with a bulkhead.
//   - Async gives any blocking Sender a callback form.
//
// New picks and wires an implementation from a Config:
//
//	t, err := transport.New(transport.Config{Kind: transport.KindHTTP, Timeout: 10 * time.Second})
//	resp, body, err := t.Send(ctx, wireReq)
package transport
