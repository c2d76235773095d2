package taskq

// Then schedules fn on t's queue once t completes, passing t's result,
// and returns a task for fn's result. If t has already completed, the
// continuation is scheduled immediately. A failed antecedent fails the
// continuation with the same error without invoking fn; a canceled
// antecedent fails it with ErrCanceled.
func Then[T, U any](t Task[T], fn func(T) U) Task[U] {
	return ThenOn(t, t.QueueID(), fn)
}

// ThenOn is Then with an explicit target queue.
func ThenOn[T, U any](t Task[T], queueID uint32, fn func(T) U) Task[U] {
	fut := t.w.fut
	w := newWork(queueID, func() (U, error) {
		// The successor is scheduled strictly after the antecedent's
		// promise settles, so this never blocks.
		v, err := fut.Get()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	})
	if !t.w.addNext(w) {
		w.promise.Reject(ErrCanceled)
	}
	return Task[U]{w: w}
}

// ThenDo schedules fn on t's queue once t completes, ignoring t's result.
func ThenDo[T any](t Task[T], fn func()) Task[Void] {
	return ThenDoOn(t, t.QueueID(), fn)
}

// ThenDoOn is ThenDo with an explicit target queue.
func ThenDoOn[T any](t Task[T], queueID uint32, fn func()) Task[Void] {
	return ThenOn(t, queueID, func(T) Void {
		fn()
		return Void{}
	})
}
