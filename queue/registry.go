package queue

import (
	"sync"

	"github.com/xraph/taskq/id"
)

// Target is the registry's view of a queue: just enough surface to route
// enqueues and cancellations. Both *Queue and *Pool satisfy it.
type Target interface {
	ID() uint32
	Enqueue(fn func()) id.JobID
	Cancel(jobID id.JobID) bool
}

// Registry maps queue ids to queues. Its lock is distinct from any
// queue's internal lock and is never held while calling into a queue.
type Registry struct {
	mu     sync.Mutex
	queues map[uint32]Target
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{queues: make(map[uint32]Target)}
}

// Register inserts q under its id. A queue already registered with the
// same id is overwritten; callers are responsible for id uniqueness.
func (r *Registry) Register(q Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[q.ID()] = q
}

// Unregister removes the entry for queueID and returns true iff one
// existed. It does not stop the queue.
func (r *Registry) Unregister(queueID uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.queues[queueID]; !ok {
		return false
	}
	delete(r.queues, queueID)
	return true
}

// Lookup returns the queue registered under queueID.
func (r *Registry) Lookup(queueID uint32) (Target, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[queueID]
	return q, ok
}

// Enqueue routes fn to the queue registered under queueID and returns the
// new job id, or id.Nil when no queue has that id.
func (r *Registry) Enqueue(queueID uint32, fn func()) id.JobID {
	q, ok := r.Lookup(queueID)
	if !ok {
		return id.Nil
	}
	return q.Enqueue(fn)
}

// Cancel routes a cancellation to the owning queue encoded in jobID.
// It returns false for id.Nil, for an unknown queue, and for a job no
// longer pending.
func (r *Registry) Cancel(jobID id.JobID) bool {
	q, ok := r.Lookup(jobID.QueueID())
	if !ok {
		return false
	}
	return q.Cancel(jobID)
}

// defaultRegistry is the process-wide registry behind the package-level
// functions. The task layer schedules through it.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds q to the process-wide registry.
func Register(q Target) { defaultRegistry.Register(q) }

// Unregister removes queueID from the process-wide registry.
func Unregister(queueID uint32) bool { return defaultRegistry.Unregister(queueID) }

// Enqueue routes fn to a queue in the process-wide registry.
func Enqueue(queueID uint32, fn func()) id.JobID { return defaultRegistry.Enqueue(queueID, fn) }

// Cancel routes a cancellation through the process-wide registry.
func Cancel(jobID id.JobID) bool { return defaultRegistry.Cancel(jobID) }
