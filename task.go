package taskq

import (
	"context"

	"github.com/xraph/taskq/future"
	"github.com/xraph/taskq/id"
)

// Void is the result type of tasks that produce no value.
type Void struct{}

// Task is a handle to a future value and the work that produces it.
// Tasks are small values holding a shared reference to their work node;
// copy them freely.
type Task[T any] struct {
	w *work[T]
}

// New submits fn to the queue registered under queueID and returns a task
// handle for its result. The task is scheduled immediately; if no queue
// is registered under queueID, the task fails with ErrQueueNotFound.
func New[T any](queueID uint32, fn func() T) Task[T] {
	w := newWork(queueID, func() (T, error) { return fn(), nil })
	w.Schedule()
	return Task[T]{w: w}
}

// Do submits a function that produces no value.
func Do(queueID uint32, fn func()) Task[Void] {
	return New(queueID, func() Void {
		fn()
		return Void{}
	})
}

// Get blocks until the task settles and returns its value. A task whose
// function panicked reports the panic as an error here; a canceled task
// reports ErrCanceled; a task aimed at an unregistered queue reports
// ErrQueueNotFound.
func (t Task[T]) Get() (T, error) {
	return t.w.fut.Get()
}

// GetContext is Get bounded by a context.
func (t Task[T]) GetContext(ctx context.Context) (T, error) {
	return t.w.fut.GetContext(ctx)
}

// Wait blocks until the task settles, without extracting the value.
func (t Task[T]) Wait() {
	t.w.fut.Wait()
}

// Future returns the task's shared future for external composition.
func (t Task[T]) Future() future.Future[T] {
	return t.w.fut
}

// Cancel moves the task to Canceled if it has not started running, and
// removes its pending job from the queue when still enqueued. It returns
// true iff the task ends up canceled; a task already running or completed
// is unaffected and Cancel returns false.
func (t Task[T]) Cancel() bool {
	return t.w.Cancel()
}

// IsCanceled reports whether the task was canceled.
func (t Task[T]) IsCanceled() bool {
	return t.w.isCanceled()
}

// QueueID returns the id of the queue this task was scheduled on.
func (t Task[T]) QueueID() uint32 {
	return t.w.QueueID()
}

// JobID returns the queue job id, or id.Nil before scheduling and after
// cancellation. A nonzero JobID always encodes QueueID in its high bits.
func (t Task[T]) JobID() id.JobID {
	return t.w.JobID()
}

// AddCompletionHandler registers fn to run once when the task completes,
// receiving this task handle. If the task has already completed, fn runs
// synchronously on the calling goroutine and the returned token is 0,
// which is not removable. Valid tokens start at 1. Handlers registered on
// a task that ends up canceled never run.
func (t Task[T]) AddCompletionHandler(fn func(Task[T])) uint32 {
	return t.w.addCompletionHandler(func() { fn(t) })
}

// RemoveCompletionHandler removes a registered handler and reports
// whether it was still present. Removal racing a completion resolves
// either way: true means the handler will not run, false means it ran
// (or never existed).
func (t Task[T]) RemoveCompletionHandler(token uint32) bool {
	return t.w.removeCompletionHandler(token)
}
