package taskq

import "errors"

var (
	// ErrCanceled settles the future of a task whose Cancel succeeded.
	ErrCanceled = errors.New("taskq: task canceled")

	// ErrQueueNotFound settles the future of a task scheduled onto a
	// queue id with no registry entry.
	ErrQueueNotFound = errors.New("taskq: queue not found")
)
