package session

import "sync"

// Executor runs callback deliveries.
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

// Execute calls f(fn).
func (f ExecutorFunc) Execute(fn func()) { f(fn) }

// Inline runs callbacks on the goroutine that completes the call.
var Inline Executor = ExecutorFunc(func(fn func()) { fn() })

// Queue runs callbacks one at a time, in submission order, on a single
// goroutine it owns.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
}

// NewQueue starts a Queue.
func NewQueue() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Execute enqueues fn. It never blocks. After Close, fn runs on the calling
// goroutine so that no delivery is lost.
func (q *Queue) Execute(fn func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		fn()
		return
	}
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
	q.cond.Signal()
}

// Close stops accepting work, runs what is already queued and waits for the
// queue goroutine to exit. It is safe to call more than once, but not from
// a queued callback.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		fn()
	}
}
