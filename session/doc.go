// Package session executes abstract requests through a middleware chain and
// a transport.
//
// Every call runs the same sequence:
//
//  1. The builder resolves the request into a wire request. A failure is an
//     INVALID_REQUEST error and no middleware hook runs.
//  2. Prepare runs on every middleware in order, each receiving the previous
//     output. A failure is a MIDDLEWARE_PREPARE error and nothing else runs.
//  3. WillSend runs on every middleware in order.
//  4. The transport sends the request. If the caller's context ends first
//     the call fails with CANCELLED and neither response hook runs.
//  5. A transport failure runs DidReceiveError on every middleware and is
//     returned. A response runs DidReceiveResponse on every middleware until
//     one rejects it with a MIDDLEWARE_VALIDATION error.
//  6. The body is decoded into the caller's type. A failure is a DECODE
//     error that no middleware sees.
//
// Do runs the sequence on the calling goroutine and returns the decoded
// value. DoAsync hands the same outcome to a callback, optionally through an
// Executor such as a Queue. Fetch and FetchAsync skip decoding.
//
//	b, _ := builder.New(builder.Config{BaseURL: "https://api.test"})
//	t, _ := transport.New(transport.Config{})
//	s := session.New(b, t, session.WithMiddleware(middleware.RequireSuccess()))
//
//	user, err := session.Do[User](ctx, s, request.GET("/users/1"))
//
// NewFromConfig builds the same wiring from a Config, and Component manages
// a session as part of an application lifecycle.
package session
