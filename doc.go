// Package taskq is an asynchronous task runtime built on named,
// process-registered work queues.
//
// A Task wraps a computation submitted to a queue, gives callers a handle
// to its eventual result, supports cancellation, and composes into
// continuation chains. WhenAny and WhenAll fan a collection of tasks into
// a single task whose result is the set of completed inputs.
//
// # Quick start
//
//	pool := queue.NewPoolWithID(444, 4)
//	queue.Register(pool)
//
//	t := taskq.New(444, func() int { return 444 })
//	doubled := taskq.Then(t, func(x int) int { return 2 * x })
//	v, err := doubled.Get()
//
// Tasks route through the process-wide queue registry, so a task only
// needs the 32-bit id of its target queue. Job ids expose the owning
// queue in their high 32 bits; see the id package.
//
// Internally each task owns a five-state machine
// (Waiting → Scheduled → Running → Completed, with Cancel accepted from
// Waiting and Scheduled only). A started job is never preempted: a cancel
// that loses the race against a worker leaves the dequeued closure to run,
// but the machine rejects RunStart from Canceled, so the wrapped function
// is not invoked.
package taskq
