package queue

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/xraph/taskq/id"
)

// Job is a unit of work held by a queue. The queue treats the function as
// opaque; the id is the only routing information.
type Job struct {
	ID id.JobID

	fn func()
}

// Handler is the terminal function that executes a job.
type Handler func() error

// Middleware wraps job execution with cross-cutting logic. A middleware
// must call next to continue the chain unless it short-circuits.
type Middleware func(j Job, next Handler) error

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the structured logger used to report job failures.
// Queues without a logger stay silent.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// WithMiddleware appends middleware applied around every job this queue
// runs, outermost first in the order given.
func WithMiddleware(mws ...Middleware) Option {
	return func(q *Queue) { q.mws = append(q.mws, mws...) }
}

// Queue is an ordered FIFO of jobs. Structural operations are guarded by
// one mutex, which is never held while a job function runs.
type Queue struct {
	queueID uint32

	mu      sync.Mutex
	jobs    []Job
	nextSeq uint32

	// notify, when set, is called after a job has been appended and the
	// mutex released. Pool points it at its condition variable.
	notify func()

	mws    []Middleware
	logger *slog.Logger

	executed atomic.Uint64
	canceled atomic.Uint64
}

// New creates a queue with an id from the process-global allocator.
func New(opts ...Option) *Queue {
	return NewWithID(id.NextQueueID(), opts...)
}

// NewWithID creates a queue with a caller-supplied id. Ids must be unique
// across the process for cancel routing to be unambiguous.
func NewWithID(queueID uint32, opts ...Option) *Queue {
	q := &Queue{queueID: queueID, nextSeq: 1}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// ID returns the queue id.
func (q *Queue) ID() uint32 { return q.queueID }

// Enqueue appends fn to the FIFO and returns the new job's id. Sequence
// numbers are 32 bits wide and skip 0 on wrap, so a queue is good for
// roughly 4 billion jobs before ids repeat.
func (q *Queue) Enqueue(fn func()) id.JobID {
	q.mu.Lock()
	seq := q.nextSeq
	q.nextSeq++
	if q.nextSeq == 0 {
		q.nextSeq = 1
	}
	jobID := id.NewJobID(q.queueID, seq)
	q.jobs = append(q.jobs, Job{ID: jobID, fn: fn})
	q.mu.Unlock()

	if q.notify != nil {
		q.notify()
	}
	return jobID
}

// Cancel removes the first pending job with the given id and returns true
// iff one was removed. A jobID whose queue bits do not match this queue is
// rejected outright. A job already handed to RunNext can no longer be
// canceled here.
func (q *Queue) Cancel(jobID id.JobID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if jobID.QueueID() != q.queueID {
		return false
	}
	for i, j := range q.jobs {
		if j.ID == jobID {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			q.canceled.Add(1)
			return true
		}
	}
	return false
}

// Empty reports whether the FIFO is empty.
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs) == 0
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// RunNext pops the head job and runs it on the calling goroutine,
// returning true iff a job ran. The mutex is released before the job
// function is invoked.
func (q *Queue) RunNext() bool {
	q.mu.Lock()
	if len(q.jobs) == 0 {
		q.mu.Unlock()
		return false
	}
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	q.mu.Unlock()

	q.run(j)
	return true
}

// run applies the middleware chain around the job function and reports
// failures to the logger.
func (q *Queue) run(j Job) {
	h := Handler(func() error {
		j.fn()
		return nil
	})
	for i := len(q.mws) - 1; i >= 0; i-- {
		mw := q.mws[i]
		next := h
		h = func() error { return mw(j, next) }
	}

	err := h()
	q.executed.Add(1)
	if err != nil && q.logger != nil {
		q.logger.Error("job failed",
			slog.String("job_id", j.ID.String()),
			slog.Uint64("queue_id", uint64(q.queueID)),
			slog.String("error", err.Error()),
		)
	}
}

// Stats is a point-in-time snapshot of queue activity.
type Stats struct {
	QueueID  uint32
	Depth    int
	Workers  int
	Running  bool
	Executed uint64
	Canceled uint64
}

// Stats returns a snapshot of the queue. Workers and Running stay zero
// for a caller-driven queue; Pool fills them in.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	depth := len(q.jobs)
	q.mu.Unlock()

	return Stats{
		QueueID:  q.queueID,
		Depth:    depth,
		Executed: q.executed.Load(),
		Canceled: q.canceled.Load(),
	}
}
