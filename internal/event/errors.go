package event

import "errors"

// Queue errors.
var (
	// ErrQueueClosed indicates the queue has been stopped.
	ErrQueueClosed = errors.New("event queue closed")

	// ErrAlreadyRunning indicates Start was called on a running queue.
	ErrAlreadyRunning = errors.New("event queue already running")

	// ErrNotRunning indicates the queue drain loop is not running.
	ErrNotRunning = errors.New("event queue not running")
)
