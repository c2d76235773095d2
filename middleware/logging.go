package middleware

import (
	"log/slog"
	"time"

	"github.com/xraph/taskq/queue"
)

// Logging returns middleware that logs job start and completion.
func Logging(logger *slog.Logger) queue.Middleware {
	return func(j queue.Job, next queue.Handler) error {
		logger.Info("job started",
			slog.String("job_id", j.ID.String()),
			slog.Uint64("queue_id", uint64(j.ID.QueueID())),
		)

		start := time.Now()
		err := next()
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("job failed",
				slog.String("job_id", j.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("job completed",
				slog.String("job_id", j.ID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
