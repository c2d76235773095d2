package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/taskq/queue"
)

// Recover returns middleware that recovers from panics in the job
// function, converting them to errors and logging a stack trace. Task
// jobs capture their own panics into the task future; Recover protects
// queues that run raw enqueued functions.
func Recover(logger *slog.Logger) queue.Middleware {
	return func(j queue.Job, next queue.Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("job panicked",
					slog.String("job_id", j.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in job %s: %v", j.ID, r)
			}
		}()
		return next()
	}
}
