// Package prometheus exports taskq queue activity as Prometheus metrics.
package prometheus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/taskq/queue"
)

// StatsProvider yields point-in-time queue stats. Both *queue.Queue and
// *queue.Pool qualify.
type StatsProvider interface {
	Stats() queue.Stats
}

// SnapshotPoller periodically exports queue Stats() snapshots into
// Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	queuesMu sync.RWMutex
	queues   map[string]StatsProvider

	depth    *prom.GaugeVec
	workers  *prom.GaugeVec
	running  *prom.GaugeVec
	executed *prom.GaugeVec
	canceled *prom.GaugeVec

	stateMu sync.Mutex
	active  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its
// collectors with reg (the default registerer when nil).
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	depth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskq",
		Name:      "queue_depth",
		Help:      "Number of pending jobs per queue.",
	}, []string{"queue"})
	workers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskq",
		Name:      "queue_workers",
		Help:      "Worker count per queue (0 for caller-driven queues).",
	}, []string{"queue"})
	running := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskq",
		Name:      "queue_running",
		Help:      "Pool running state (1=running, 0=stopped).",
	}, []string{"queue"})
	executed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskq",
		Name:      "queue_executed_total",
		Help:      "Executed job count snapshot per queue.",
	}, []string{"queue"})
	canceled := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskq",
		Name:      "queue_canceled_total",
		Help:      "Canceled job count snapshot per queue.",
	}, []string{"queue"})

	var err error
	if depth, err = registerCollector(reg, depth); err != nil {
		return nil, err
	}
	if workers, err = registerCollector(reg, workers); err != nil {
		return nil, err
	}
	if running, err = registerCollector(reg, running); err != nil {
		return nil, err
	}
	if executed, err = registerCollector(reg, executed); err != nil {
		return nil, err
	}
	if canceled, err = registerCollector(reg, canceled); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval: interval,
		queues:   make(map[string]StatsProvider),
		depth:    depth,
		workers:  workers,
		running:  running,
		executed: executed,
		canceled: canceled,
	}, nil
}

// AddQueue adds or replaces a stats provider under the given label.
func (p *SnapshotPoller) AddQueue(name string, provider StatsProvider) {
	if p == nil || provider == nil {
		return
	}
	if name == "" {
		name = "queue"
	}
	p.queuesMu.Lock()
	p.queues[name] = provider
	p.queuesMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.active {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.active = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.active {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.active = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.queuesMu.RLock()
	defer p.queuesMu.RUnlock()

	for name, provider := range p.queues {
		s := provider.Stats()
		p.depth.WithLabelValues(name).Set(float64(s.Depth))
		p.workers.WithLabelValues(name).Set(float64(s.Workers))
		p.executed.WithLabelValues(name).Set(float64(s.Executed))
		p.canceled.WithLabelValues(name).Set(float64(s.Canceled))
		if s.Running {
			p.running.WithLabelValues(name).Set(1)
		} else {
			p.running.WithLabelValues(name).Set(0)
		}
	}
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
