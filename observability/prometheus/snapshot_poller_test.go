package prometheus

import (
	"context"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xraph/taskq/queue"
)

func TestSnapshotPoller_CollectOnce(t *testing.T) {
	reg := prom.NewRegistry()
	p, err := NewSnapshotPoller(reg, time.Second)
	if err != nil {
		t.Fatalf("NewSnapshotPoller: %v", err)
	}

	q := queue.NewWithID(12)
	p.AddQueue("work", q)

	jobID := q.Enqueue(func() {})
	q.Enqueue(func() {})
	q.Cancel(jobID)

	p.collectOnce()

	if got := testutil.ToFloat64(p.depth.WithLabelValues("work")); got != 1 {
		t.Errorf("queue_depth = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.canceled.WithLabelValues("work")); got != 1 {
		t.Errorf("queue_canceled_total = %v, want 1", got)
	}

	q.RunNext()
	p.collectOnce()

	if got := testutil.ToFloat64(p.depth.WithLabelValues("work")); got != 0 {
		t.Errorf("queue_depth after drain = %v, want 0", got)
	}
	if got := testutil.ToFloat64(p.executed.WithLabelValues("work")); got != 1 {
		t.Errorf("queue_executed_total = %v, want 1", got)
	}
}

func TestSnapshotPoller_RegisterTwiceSafe(t *testing.T) {
	reg := prom.NewRegistry()
	if _, err := NewSnapshotPoller(reg, time.Second); err != nil {
		t.Fatalf("first NewSnapshotPoller: %v", err)
	}
	// Re-registering against the same registerer reuses the existing
	// collectors instead of failing.
	if _, err := NewSnapshotPoller(reg, time.Second); err != nil {
		t.Fatalf("second NewSnapshotPoller: %v", err)
	}
}

func TestSnapshotPoller_StartStop(t *testing.T) {
	reg := prom.NewRegistry()
	p, err := NewSnapshotPoller(reg, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller: %v", err)
	}

	q := queue.NewWithID(13)
	q.Enqueue(func() {})
	p.AddQueue("work", q)

	p.Start(context.Background())
	// Idempotent start.
	p.Start(context.Background())

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(p.depth.WithLabelValues("work")) == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if got := testutil.ToFloat64(p.depth.WithLabelValues("work")); got != 1 {
		t.Fatalf("poller never exported queue_depth=1, got %v", got)
	}

	p.Stop()
	p.Stop()
}

func TestSnapshotPoller_PoolStats(t *testing.T) {
	reg := prom.NewRegistry()
	p, err := NewSnapshotPoller(reg, time.Second)
	if err != nil {
		t.Fatalf("NewSnapshotPoller: %v", err)
	}

	pool := queue.NewPool(2)
	defer pool.Stop()
	p.AddQueue("pool", pool)

	p.collectOnce()

	if got := testutil.ToFloat64(p.workers.WithLabelValues("pool")); got != 2 {
		t.Errorf("queue_workers = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.running.WithLabelValues("pool")); got != 1 {
		t.Errorf("queue_running = %v, want 1", got)
	}

	pool.Stop()
	p.collectOnce()
	if got := testutil.ToFloat64(p.running.WithLabelValues("pool")); got != 0 {
		t.Errorf("queue_running after Stop = %v, want 0", got)
	}
}
