// Package middleware provides composable middleware for queue job
// execution. Middleware wraps job runs synchronously and can modify
// execution (recover from panics, log, add tracing, record metrics).
package middleware

import (
	"github.com/xraph/taskq/queue"
)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, tracing) executes as:
//
//	logging → recover → tracing → job
func Chain(mws ...queue.Middleware) queue.Middleware {
	return func(j queue.Job, next queue.Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func() error { return mw(j, prev) }
		}
		return h()
	}
}
