// Package middleware defines the four-hook contract through which a session
// lets ordered components observe and transform every call:
//
//  1. Prepare transforms the wire request before anything is sent and may
//     abort the call.
//  2. WillSend is notified once the whole prepare chain succeeded, right
//     before the transport runs.
//  3. DidReceiveResponse observes a response the transport produced and may
//     reject it.
//  4. DidReceiveError is notified when the transport itself failed.
//
// Embed Base to implement only the hooks a middleware needs. Chain runs the
// hooks of an ordered list with the session's stop and fan-out rules.
//
// Stock middlewares cover request IDs, static headers, authentication, JWT
// bearer tokens, rate limiting, circuit breaking, logging, tracing, metrics
// and status validation.
package middleware
