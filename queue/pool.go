package queue

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/xraph/taskq/id"
)

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the structured logger for worker lifecycle events
// and job failures.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = l
		p.Queue.logger = l
	}
}

// WithPoolMiddleware appends middleware applied around every job the pool
// runs, outermost first in the order given.
func WithPoolMiddleware(mws ...Middleware) PoolOption {
	return func(p *Pool) { p.Queue.mws = append(p.Queue.mws, mws...) }
}

// WithRateLimit caps sustained job dispatch at perSecond with the given
// burst. Zero or negative perSecond disables limiting; a burst below 1 is
// raised to 1.
func WithRateLimit(perSecond float64, burst int) PoolOption {
	return func(p *Pool) {
		if perSecond <= 0 {
			p.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// Pool is a queue drained by a fixed set of worker goroutines. Workers
// block on a condition variable while the queue is empty and drain jobs
// until Stop.
type Pool struct {
	*Queue

	cond       *sync.Cond // signalled on Queue.mu: new job or shutdown
	running    bool       // guarded by Queue.mu
	wg         sync.WaitGroup
	numWorkers int

	limiter *rate.Limiter
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewPool creates a pool with an allocated queue id and starts numWorkers
// worker goroutines.
func NewPool(numWorkers int, opts ...PoolOption) *Pool {
	return NewPoolWithID(id.NextQueueID(), numWorkers, opts...)
}

// NewPoolWithID creates a pool with a caller-supplied queue id and starts
// numWorkers worker goroutines.
func NewPoolWithID(queueID uint32, numWorkers int, opts ...PoolOption) *Pool {
	p := &Pool{
		Queue:      NewWithID(queueID),
		running:    true,
		numWorkers: numWorkers,
		logger:     slog.Default(),
	}
	p.Queue.logger = p.logger
	p.cond = sync.NewCond(&p.Queue.mu)
	p.ctx, p.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(p)
	}
	p.Queue.notify = p.newJobAdded

	p.logger.Info("pool starting",
		slog.Uint64("queue_id", uint64(queueID)),
		slog.Int("workers", numWorkers),
	)

	for range numWorkers {
		p.wg.Add(1)
		go p.run(id.NewWorkerID())
	}
	return p
}

// Stop shuts the pool down: no further jobs run, all workers are joined,
// and jobs still in the FIFO are discarded without being invoked. A
// worker that is inside a job finishes it before Stop returns. Stop is
// idempotent and safe to call from multiple goroutines.
func (p *Pool) Stop() {
	p.Queue.mu.Lock()
	if !p.running {
		p.Queue.mu.Unlock()
		return
	}
	p.running = false
	p.cond.Broadcast()
	p.Queue.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	p.Queue.mu.Lock()
	discarded := len(p.Queue.jobs)
	p.Queue.jobs = nil
	p.Queue.mu.Unlock()

	p.logger.Info("pool stopped",
		slog.Uint64("queue_id", uint64(p.ID())),
		slog.Int("discarded", discarded),
	)
}

// Stats returns a snapshot including worker count and running state.
func (p *Pool) Stats() Stats {
	s := p.Queue.Stats()
	s.Workers = p.numWorkers
	s.Running = p.stillRunning()
	return s
}

// newJobAdded wakes a single idle worker.
func (p *Pool) newJobAdded() {
	p.cond.Signal()
}

// run is the worker loop: wait until there is work, then drain the FIFO.
func (p *Pool) run(workerID id.WorkerID) {
	defer p.wg.Done()

	p.logger.Debug("worker started",
		slog.String("worker_id", workerID.String()),
		slog.Uint64("queue_id", uint64(p.ID())),
	)

	for {
		p.Queue.mu.Lock()
		for p.running && len(p.Queue.jobs) == 0 {
			p.cond.Wait()
		}
		if !p.running {
			p.Queue.mu.Unlock()
			break
		}
		p.Queue.mu.Unlock()

		for p.stillRunning() {
			if p.limiter != nil {
				if err := p.limiter.Wait(p.ctx); err != nil {
					break
				}
			}
			if !p.RunNext() {
				break
			}
		}
	}

	p.logger.Debug("worker stopped",
		slog.String("worker_id", workerID.String()),
		slog.Uint64("queue_id", uint64(p.ID())),
	)
}

func (p *Pool) stillRunning() bool {
	p.Queue.mu.Lock()
	defer p.Queue.mu.Unlock()
	return p.running
}
