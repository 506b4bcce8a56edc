package event

import "errors"

var (
	// ErrPublishTimeout is returned by Publish on a block-with-timeout queue
	// whose backlog did not clear within the configured wait.
	ErrPublishTimeout = errors.New("publish timed out")

	// ErrUnknownQueue is returned when the queue name does not match any
	// configured queue.
	ErrUnknownQueue = errors.New("unknown queue")

	// ErrAlreadyStarted is returned by Start on a bus that is not stopped.
	ErrAlreadyStarted = errors.New("bus already started")
)
