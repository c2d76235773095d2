// Package fsm provides the small table-driven state machine that the task
// runtime uses to coordinate scheduling, execution, and cancellation.
//
// A Machine holds a current state and a table of
// (state, transition) → (next state, side effect) entries guarded by one
// mutex, so at most one transition executes at a time. Side effects run
// after the mutex is released by default: effects commonly re-enter the
// machine or call user code, and running them outside the lock removes the
// simplest class of deadlocks. Register a transition with Synchronous()
// to run its effect under the lock instead.
package fsm

import "sync"

// Effect is a transition side effect. It receives the source state, the
// state transitioned to, and the transition that fired.
type Effect[S, T comparable] func(from, to S, trans T)

// TransitionOption configures a single transition entry.
type TransitionOption func(*transitionOpts)

type transitionOpts struct {
	synchronous bool
}

// Synchronous makes the side effect run while the machine mutex is held.
// A synchronous effect must not re-enter the machine.
func Synchronous() TransitionOption {
	return func(o *transitionOpts) { o.synchronous = true }
}

type transitionKey[S, T comparable] struct {
	from  S
	trans T
}

type transitionEntry[S, T comparable] struct {
	to          S
	effect      Effect[S, T]
	synchronous bool
}

// Machine is a table-driven state machine. The zero value is not usable;
// construct one with New.
type Machine[S, T comparable] struct {
	mu          sync.Mutex
	current     S
	transitions map[transitionKey[S, T]]transitionEntry[S, T]
}

// New creates a Machine in the given initial state.
func New[S, T comparable](initial S) *Machine[S, T] {
	return &Machine[S, T]{
		current:     initial,
		transitions: make(map[transitionKey[S, T]]transitionEntry[S, T]),
	}
}

// AddTransition installs an edge from → to fired by trans. A duplicate
// (from, trans) pair is rejected and returns false; the existing entry is
// kept. A nil effect is allowed.
func (m *Machine[S, T]) AddTransition(from, to S, trans T, effect Effect[S, T], opts ...TransitionOption) bool {
	var o transitionOpts
	for _, opt := range opts {
		opt(&o)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := transitionKey[S, T]{from: from, trans: trans}
	if _, ok := m.transitions[key]; ok {
		return false
	}
	m.transitions[key] = transitionEntry[S, T]{to: to, effect: effect, synchronous: o.synchronous}
	return true
}

// Execute atomically looks up (current, trans). If no entry matches, the
// current state is returned unchanged and no effect runs. Otherwise the
// state advances and the side effect fires — under the lock when the
// transition was registered Synchronous, after release otherwise.
// Execute returns the state the machine ended up in.
func (m *Machine[S, T]) Execute(trans T) S {
	m.mu.Lock()

	key := transitionKey[S, T]{from: m.current, trans: trans}
	entry, ok := m.transitions[key]
	if !ok {
		cur := m.current
		m.mu.Unlock()
		return cur
	}

	from := m.current
	m.current = entry.to

	if entry.synchronous {
		if entry.effect != nil {
			entry.effect(from, entry.to, trans)
		}
		m.mu.Unlock()
		return entry.to
	}
	m.mu.Unlock()

	if entry.effect != nil {
		entry.effect(from, entry.to, trans)
	}
	return entry.to
}

// Current returns the current state.
func (m *Machine[S, T]) Current() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Sync runs fn while the machine mutex is held, passing the current
// state. Callers use it to couple their own bookkeeping to a state
// observation (the task work node's append-or-fire decisions). fn must
// not call Execute, AddTransition, Current, or Sync on the same machine.
func (m *Machine[S, T]) Sync(fn func(current S)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.current)
}
