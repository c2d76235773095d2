package taskq

import "sync"

// WhenAny returns a task, scheduled on queueID, whose result is the
// non-empty subset of inputs that had completed by the time at least one
// did (at least one, up to all).
//
// The combinator occupies a worker on its target queue for the duration
// of the wait. Route combinators to a queue that is not producing the
// inputs: a pool with fewer workers than concurrent combinator waits
// plus dependent tasks deadlocks.
func WhenAny[T any](queueID uint32, tasks ...Task[T]) Task[[]Task[T]] {
	return waitSome(queueID, tasks, 1)
}

// WhenAll returns a task, scheduled on queueID, whose result is all
// inputs in completion order. Same worker-occupancy caveat as WhenAny.
func WhenAll[T any](queueID uint32, tasks ...Task[T]) Task[[]Task[T]] {
	return waitSome(queueID, tasks, len(tasks))
}

// Any is WhenAny over two tasks, targeting a's queue.
func Any[T any](a, b Task[T]) Task[[]Task[T]] {
	return WhenAny(a.QueueID(), a, b)
}

// All is WhenAll over two tasks, targeting a's queue.
func All[T any](a, b Task[T]) Task[[]Task[T]] {
	return WhenAll(a.QueueID(), a, b)
}

// waitSome is the shared combinator body: register a completion handler
// on every input, wait on a local condition variable until want inputs
// have fired, unregister the remaining handlers, and return the inputs
// completed so far.
func waitSome[T any](queueID uint32, tasks []Task[T], want int) Task[[]Task[T]] {
	inputs := make([]Task[T], len(tasks))
	copy(inputs, tasks)
	if want > len(inputs) {
		want = len(inputs)
	}

	return New(queueID, func() []Task[T] {
		var mu sync.Mutex
		cond := sync.NewCond(&mu)
		var completed []Task[T]

		onComplete := func(t Task[T]) {
			mu.Lock()
			completed = append(completed, t)
			mu.Unlock()
			cond.Signal()
		}

		// A handler added to an already-completed input fires
		// synchronously here, before the wait below.
		tokens := make([]uint32, len(inputs))
		for i, t := range inputs {
			tokens[i] = t.AddCompletionHandler(onComplete)
		}

		mu.Lock()
		for len(completed) < want {
			cond.Wait()
		}
		mu.Unlock()

		for i, t := range inputs {
			t.RemoveCompletionHandler(tokens[i])
		}

		mu.Lock()
		out := make([]Task[T], len(completed))
		copy(out, completed)
		mu.Unlock()
		return out
	})
}
