package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestResolve_Get(t *testing.T) {
	p := NewPromise[int]()
	f := p.Future()

	if !p.Resolve(42) {
		t.Fatal("first Resolve should report settled")
	}

	v, err := f.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("Get() = %d, want 42", v)
	}
}

func TestReject_Get(t *testing.T) {
	p := NewPromise[string]()
	boom := errors.New("boom")

	if !p.Reject(boom) {
		t.Fatal("first Reject should report settled")
	}

	v, err := p.Future().Get()
	if !errors.Is(err, boom) {
		t.Fatalf("Get() error = %v, want %v", err, boom)
	}
	if v != "" {
		t.Fatalf("Get() value = %q, want zero value", v)
	}
}

func TestSettle_FirstWins(t *testing.T) {
	p := NewPromise[int]()

	if !p.Resolve(1) {
		t.Fatal("first Resolve should win")
	}
	if p.Resolve(2) {
		t.Fatal("second Resolve should be a no-op")
	}
	if p.Reject(errors.New("late")) {
		t.Fatal("Reject after Resolve should be a no-op")
	}

	v, err := p.Future().Get()
	if err != nil || v != 1 {
		t.Fatalf("Get() = (%d, %v), want (1, nil)", v, err)
	}
}

func TestGet_BlocksUntilSettled(t *testing.T) {
	p := NewPromise[int]()
	f := p.Future()

	got := make(chan int)
	go func() {
		v, _ := f.Get()
		got <- v
	}()

	select {
	case v := <-got:
		t.Fatalf("Get() returned %d before settle", v)
	case <-time.After(20 * time.Millisecond):
	}

	p.Resolve(7)
	if v := <-got; v != 7 {
		t.Fatalf("Get() = %d, want 7", v)
	}
}

func TestGet_ManyWaiters(t *testing.T) {
	p := NewPromise[int]()
	f := p.Future()

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = f.Get()
		}()
	}

	p.Resolve(99)
	wg.Wait()

	for i, v := range results {
		if v != 99 {
			t.Fatalf("waiter %d saw %d, want 99", i, v)
		}
	}
}

func TestGetContext_Timeout(t *testing.T) {
	p := NewPromise[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Future().GetContext(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("GetContext error = %v, want deadline exceeded", err)
	}
}

func TestTryGet(t *testing.T) {
	p := NewPromise[int]()
	f := p.Future()

	if _, _, ok := f.TryGet(); ok {
		t.Fatal("TryGet should report unsettled")
	}

	p.Resolve(5)
	v, err, ok := f.TryGet()
	if !ok || err != nil || v != 5 {
		t.Fatalf("TryGet = (%d, %v, %t), want (5, nil, true)", v, err, ok)
	}
}

func TestDone_ClosedOnSettle(t *testing.T) {
	p := NewPromise[int]()
	f := p.Future()

	select {
	case <-f.Done():
		t.Fatal("Done closed before settle")
	default:
	}

	p.Reject(errors.New("x"))

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after settle")
	}
}
