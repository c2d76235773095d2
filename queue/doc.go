// Package queue implements named, process-registered work queues.
//
// A Queue is an ordered FIFO of jobs, each tagged with a 64-bit job id
// that encodes the owning queue in its high 32 bits. A plain Queue is
// drained by its caller via RunNext; a Pool owns worker goroutines that
// block on a condition variable and drain jobs until Stop.
//
// Queues become addressable by registering them in a Registry. The
// package-level Register, Unregister, Enqueue, and Cancel functions
// operate on the process-wide default registry, which is what the task
// layer schedules through.
package queue
