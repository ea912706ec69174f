package event

import (
	"context"
	"sync"
)

// Handler processes a single message. Handlers run on the drain loop
// goroutine, one at a time, in publish order.
type Handler func(Message)

// PanicHandler is called when a subscriber panics. The drain loop
// continues with the next message.
type PanicHandler func(msg Message, recovered any)

// Queue is an unbounded, ordered, single-consumer message queue.
// Publish is safe from any goroutine and never blocks; delivery happens
// on one goroutine started by Start.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  []Message
	handlers []Handler

	running    bool
	closed     bool
	delivering bool

	panicHandler PanicHandler

	wg sync.WaitGroup
}

// Option configures a Queue.
type Option func(*Queue)

// WithPanicHandler sets the handler invoked when a subscriber panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(q *Queue) {
		q.panicHandler = h
	}
}

// New creates a new queue. Call Start to begin delivery.
func New(opts ...Option) *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// Subscribe registers a handler for every message. Handlers are invoked
// in subscription order. Subscribe before Start; later subscriptions see
// only messages published after they are registered.
func (q *Queue) Subscribe(h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, h)
}

// Publish appends a message to the queue. It never blocks on delivery.
func (q *Queue) Publish(msg Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.pending = append(q.pending, msg)
	q.cond.Broadcast()
	return nil
}

// Start launches the drain loop.
func (q *Queue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.running {
		return ErrAlreadyRunning
	}

	q.running = true
	q.wg.Add(1)
	go q.drainLoop()
	return nil
}

// Stop shuts down the drain loop. Messages still pending when Stop is
// called are discarded. Stop waits for the in-flight handler to return
// or the context to expire.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync blocks until every message published before the call has been
// delivered. It is primarily a test and quiescence hook.
func (q *Queue) Sync() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.running && !q.closed && (len(q.pending) > 0 || q.delivering) {
		q.cond.Wait()
	}
}

// Pending returns the number of undelivered messages.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// IsRunning reports whether the drain loop is active.
func (q *Queue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running && !q.closed
}

// drainLoop delivers messages one at a time, in order.
func (q *Queue) drainLoop() {
	defer q.wg.Done()

	q.mu.Lock()
	for {
		for !q.closed && len(q.pending) == 0 {
			q.cond.Wait()
		}
		if q.closed {
			q.running = false
			q.cond.Broadcast()
			q.mu.Unlock()
			return
		}

		msg := q.pending[0]
		q.pending = q.pending[1:]
		q.delivering = true
		handlers := q.handlers
		q.mu.Unlock()

		for _, h := range handlers {
			q.deliver(h, msg)
		}

		q.mu.Lock()
		q.delivering = false
		q.cond.Broadcast()
	}
}

// deliver invokes one handler with panic isolation.
func (q *Queue) deliver(h Handler, msg Message) {
	defer func() {
		if r := recover(); r != nil && q.panicHandler != nil {
			q.panicHandler(msg, r)
		}
	}()

	h(msg)
}
