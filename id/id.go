// Package id defines identity types for taskq entities.
//
// Job identifiers pack the owning queue id into the high 32 bits and a
// per-queue sequence number into the low 32 bits, so a JobID alone carries
// enough routing information to cancel the job through the queue registry.
// Worker identifiers are TypeIDs ("wkr_..."), used to tag log lines from
// pool worker goroutines.
package id

import (
	"fmt"
	"sync/atomic"

	"go.jetify.com/typeid/v2"
)

// JobID identifies a job within a registered queue. The high 32 bits are
// the queue id, the low 32 bits a sequence number starting at 1. The zero
// value means "no job".
type JobID uint64

// Nil is the reserved "no job" JobID.
const Nil JobID = 0

// NewJobID composes a JobID from a queue id and a sequence number.
func NewJobID(queueID, seq uint32) JobID {
	return JobID(uint64(queueID)<<32 | uint64(seq))
}

// QueueID returns the owning queue id encoded in the high 32 bits.
func (j JobID) QueueID() uint32 { return uint32(j >> 32) }

// Seq returns the per-queue sequence number encoded in the low 32 bits.
func (j JobID) Seq() uint32 { return uint32(j) }

// IsNil reports whether this is the reserved zero JobID.
func (j JobID) IsNil() bool { return j == Nil }

// String returns a log-friendly form, "job_<queue>_<seq>". The numeric
// encoding itself is stable API; String is only for humans.
func (j JobID) String() string {
	if j.IsNil() {
		return "job_nil"
	}
	return fmt.Sprintf("job_%d_%d", j.QueueID(), j.Seq())
}

var nextQueueID atomic.Uint32

// NextQueueID allocates a queue id from the process-global counter.
// Callers that pick their own ids are responsible for keeping them unique
// across the process; a collision makes cancel routing ambiguous.
func NextQueueID() uint32 {
	return nextQueueID.Add(1)
}

// WorkerID identifies a pool worker goroutine. It wraps a TypeID with the
// "wkr" prefix.
type WorkerID struct {
	inner typeid.TypeID
	valid bool
}

// NewWorkerID generates a new globally unique worker id.
func NewWorkerID() WorkerID {
	tid, err := typeid.Generate("wkr")
	if err != nil {
		panic(fmt.Sprintf("id: generate worker id: %v", err))
	}
	return WorkerID{inner: tid, valid: true}
}

// String returns the full TypeID string ("wkr_..."), or "" for the zero value.
func (w WorkerID) String() string {
	if !w.valid {
		return ""
	}
	return w.inner.String()
}

// IsNil reports whether this WorkerID is the zero value.
func (w WorkerID) IsNil() bool { return !w.valid }
