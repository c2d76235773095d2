package taskq

import (
	"fmt"
	"sync/atomic"

	"github.com/xraph/taskq/fsm"
	"github.com/xraph/taskq/future"
	"github.com/xraph/taskq/id"
	"github.com/xraph/taskq/queue"
)

// workState enumerates the work-node state machine.
type workState uint8

const (
	stateWaiting workState = iota
	stateScheduled
	stateRunning
	stateCompleted
	stateCanceled
)

func (s workState) String() string {
	switch s {
	case stateWaiting:
		return "waiting"
	case stateScheduled:
		return "scheduled"
	case stateRunning:
		return "running"
	case stateCompleted:
		return "completed"
	case stateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// transition enumerates the events that drive a work node.
type transition uint8

const (
	transSchedule transition = iota
	transRunStart
	transRunEnd
	transCancel
)

// Schedulable is the capability a work node exposes to its antecedent, so
// that successors with heterogeneous result types can be held in one list.
type Schedulable interface {
	Schedule() bool
	Cancel() bool
	QueueID() uint32
	JobID() id.JobID
}

// work owns a task's state machine, promise, successor list, and
// completion-handler table.
type work[T any] struct {
	queueID uint32
	machine *fsm.Machine[workState, transition]

	promise *future.Promise[T]
	fut     future.Future[T]

	compute func() (T, error)

	// jobID is written by the Schedule effect and cleared on Cancel;
	// both run outside the machine lock, hence atomic.
	jobID atomic.Uint64

	// next, handlers, and nextToken are guarded by the machine mutex
	// via machine.Sync.
	next      []Schedulable
	handlers  map[uint32]func()
	nextToken uint32
}

// newWork builds a work node targeting queueID and installs the five-state
// transition table. The node is returned in Waiting; callers fire Schedule.
func newWork[T any](queueID uint32, compute func() (T, error)) *work[T] {
	p := future.NewPromise[T]()
	w := &work[T]{
		queueID:   queueID,
		machine:   fsm.New[workState, transition](stateWaiting),
		promise:   p,
		fut:       p.Future(),
		compute:   compute,
		handlers:  make(map[uint32]func()),
		nextToken: 1, // 0 is the "already fired" sentinel
	}

	// Waiting --Schedule--> Scheduled: put the job on the queue. The
	// enqueued closure holds a strong reference to w, so the node stays
	// alive until the job runs or is canceled.
	w.machine.AddTransition(stateWaiting, stateScheduled, transSchedule, func(_, _ workState, _ transition) {
		jobID := queue.Enqueue(queueID, func() {
			w.machine.Execute(transRunStart)
			w.machine.Execute(transRunEnd)
		})
		w.jobID.Store(uint64(jobID))
		if jobID.IsNil() {
			// No queue registered under this id. Fail the future rather
			// than leave callers blocked forever, and cancel the node so
			// continuations attached later fail promptly too.
			w.promise.Reject(ErrQueueNotFound)
			w.machine.Execute(transCancel)
		}
	})

	// Scheduled --RunStart--> Running: invoke the wrapped function and
	// settle the promise.
	w.machine.AddTransition(stateScheduled, stateRunning, transRunStart, func(_, _ workState, _ transition) {
		w.runCompute()
	})

	// Running --RunEnd--> Completed: completion handlers fire first,
	// then successors are scheduled, so a handler observing completion
	// sees the same view a continuation will.
	w.machine.AddTransition(stateRunning, stateCompleted, transRunEnd, func(_, _ workState, _ transition) {
		w.notifyCompletionHandlers()
		w.scheduleNext()
	})

	// {Waiting, Scheduled} --Cancel--> Canceled: best-effort removal of
	// the pending job, and a prompt ErrCanceled for anyone waiting.
	// Successors already attached are canceled too, so their futures
	// settle with ErrCanceled instead of never being scheduled.
	cancelEffect := func(_, _ workState, _ transition) {
		if jobID := id.JobID(w.jobID.Load()); !jobID.IsNil() {
			queue.Cancel(jobID)
		}
		w.jobID.Store(0)
		w.promise.Reject(ErrCanceled)

		var successors []Schedulable
		w.machine.Sync(func(workState) {
			successors = w.next
			w.next = nil
		})
		for _, next := range successors {
			next.Cancel()
		}
	}
	w.machine.AddTransition(stateWaiting, stateCanceled, transCancel, cancelEffect)
	w.machine.AddTransition(stateScheduled, stateCanceled, transCancel, cancelEffect)

	return w
}

// runCompute runs the wrapped function and settles the promise exactly
// once. A panic escaping the user function is captured as the failure.
func (w *work[T]) runCompute() {
	defer func() {
		if r := recover(); r != nil {
			w.promise.Reject(fmt.Errorf("taskq: panic in task function: %v", r))
		}
	}()

	v, err := w.compute()
	if err != nil {
		w.promise.Reject(err)
		return
	}
	w.promise.Resolve(v)
}

// Schedule fires the Schedule transition. True iff the node ended up
// Scheduled.
func (w *work[T]) Schedule() bool {
	return w.machine.Execute(transSchedule) == stateScheduled
}

// Cancel fires the Cancel transition. True iff the node ended up
// Canceled; a node that is Running or Completed is unaffected.
func (w *work[T]) Cancel() bool {
	return w.machine.Execute(transCancel) == stateCanceled
}

// QueueID returns the queue this node targets.
func (w *work[T]) QueueID() uint32 { return w.queueID }

// JobID returns the queue job id, or id.Nil before scheduling and after
// cancellation.
func (w *work[T]) JobID() id.JobID { return id.JobID(w.jobID.Load()) }

func (w *work[T]) isCanceled() bool {
	return w.machine.Current() == stateCanceled
}

// addNext appends a successor, or schedules it immediately when this node
// has already completed. Returns false iff this node was canceled, in
// which case the successor will never be scheduled by this node.
func (w *work[T]) addNext(next Schedulable) bool {
	added := false
	scheduleNow := false
	w.machine.Sync(func(cur workState) {
		switch cur {
		case stateCompleted:
			scheduleNow = true
			added = true
		case stateCanceled:
			// canceled nodes never fire successors
		default:
			w.next = append(w.next, next)
			added = true
		}
	})
	if scheduleNow {
		next.Schedule()
	}
	return added
}

// addCompletionHandler registers fn, or invokes it synchronously on the
// calling goroutine when the node has already completed. The returned
// token is 0 in the already-fired case and is not removable; valid tokens
// start at 1.
func (w *work[T]) addCompletionHandler(fn func()) uint32 {
	var token uint32
	callNow := false
	w.machine.Sync(func(cur workState) {
		if cur == stateCompleted {
			callNow = true
			return
		}
		token = w.nextToken
		w.nextToken++
		w.handlers[token] = fn
	})
	if callNow {
		fn()
	}
	return token
}

// removeCompletionHandler erases the entry for token if still present.
// False means the handler already fired, was removed, or never existed.
func (w *work[T]) removeCompletionHandler(token uint32) bool {
	removed := false
	w.machine.Sync(func(workState) {
		if _, ok := w.handlers[token]; ok {
			delete(w.handlers, token)
			removed = true
		}
	})
	return removed
}

// notifyCompletionHandlers snapshots and clears the handler table, then
// invokes each handler outside the lock, in undefined order.
func (w *work[T]) notifyCompletionHandlers() {
	var snapshot []func()
	w.machine.Sync(func(workState) {
		for _, fn := range w.handlers {
			snapshot = append(snapshot, fn)
		}
		clear(w.handlers)
	})
	for _, fn := range snapshot {
		fn()
	}
}

// scheduleNext snapshots and clears the successor list, then schedules
// each successor in registration order, outside the lock.
func (w *work[T]) scheduleNext() {
	var snapshot []Schedulable
	w.machine.Sync(func(workState) {
		snapshot = w.next
		w.next = nil
	})
	for _, next := range snapshot {
		next.Schedule()
	}
}
