package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/taskq/queue"
)

// tracerName is the instrumentation scope name for taskq tracing.
const tracerName = "github.com/xraph/taskq"

// Tracing returns middleware that wraps job execution in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through with zero
// overhead.
//
// Span attributes include: taskq.job.id, taskq.queue.id, taskq.job.seq.
// On error, the span status is set to codes.Error with the error message.
func Tracing() queue.Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) queue.Middleware {
	return func(j queue.Job, next queue.Handler) error {
		_, span := tracer.Start(context.Background(), "taskq.job.run",
			trace.WithAttributes(
				attribute.String("taskq.job.id", j.ID.String()),
				attribute.Int64("taskq.queue.id", int64(j.ID.QueueID())),
				attribute.Int64("taskq.job.seq", int64(j.ID.Seq())),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
