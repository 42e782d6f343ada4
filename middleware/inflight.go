package middleware

import (
	"context"
	"sync"
	"sync/atomic"
)

// inflight tracks one call from the hook that opened it until its outcome.
// If the request context ends first, or the call's scope is released before
// an outcome hook ran, the abandon function runs instead and the outcome
// hooks find the call already settled.
type inflight struct {
	settled atomic.Bool
	abandon func()
	stop    func() bool
}

// arm registers onAbandon against ctx and the scope ctx carries, if any.
func (f *inflight) arm(ctx context.Context, onAbandon func()) {
	f.abandon = onAbandon
	f.stop = context.AfterFunc(ctx, f.release)
	if s, ok := ctx.Value(scopeKey{}).(*scope); ok {
		s.add(f)
	}
}

// settle reports whether the caller owns the outcome: true exactly once for
// an armed call that has not been abandoned.
func (f *inflight) settle() bool {
	if f == nil || f.abandon == nil || !f.settled.CompareAndSwap(false, true) {
		return false
	}
	f.stop()
	return true
}

// release abandons the call unless it is already settled.
func (f *inflight) release() {
	if !f.settled.CompareAndSwap(false, true) {
		return
	}
	f.stop()
	f.abandon()
}

// inflightFrom returns the call stored in ctx under key, or nil.
func inflightFrom(ctx context.Context, key any) *inflight {
	f, _ := ctx.Value(key).(*inflight)
	return f
}

type scopeKey struct{}

type scope struct {
	mu       sync.Mutex
	calls    []*inflight
	released bool
}

func (s *scope) add(f *inflight) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		f.release()
		return
	}
	s.calls = append(s.calls, f)
	s.mu.Unlock()
}

func (s *scope) release() {
	s.mu.Lock()
	calls := s.calls
	s.calls, s.released = nil, true
	s.mu.Unlock()
	for _, f := range calls {
		f.release()
	}
}

// Scope returns a context for one call and a release function. Calls that
// middlewares open under the returned context and whose outcome hooks never
// run are abandoned by release, synchronously. That happens when a later
// Prepare fails or an earlier middleware rejects the response. The Session
// wraps every call in a scope and releases it once the call has finished.
func Scope(ctx context.Context) (context.Context, func()) {
	s := &scope{}
	return context.WithValue(ctx, scopeKey{}, s), s.release
}
