package weft

import (
	"sync"
	"sync/atomic"
	"time"
)

// Memo is a cached derived computation. It is both a subscriber (of the
// signals and memos its compute function reads) and a source (to its
// own dependents), which is what lets derived values chain.
//
// The compute function runs eagerly once at construction inside a
// tracking context, recording every source it reads. After that it only
// re-runs when a read finds the memo stale: writes push Check/Dirty
// marks down the graph, and UpdateIfNecessary pulls freshness back up,
// so a memo recomputes at most once per settle no matter how many of
// its transitive sources changed.
//
// A recomputation that produces a value equal to the previous one stops
// propagation: the memo's own subscribers are never marked dirty. This
// is the core glitch-avoidance optimization.
//
// Memos must be pure with respect to tracked reads: feeding an
// untracked value into the result breaks the freshness invariant, and
// the graph cannot detect it. That is a caller responsibility.
type Memo[T any] struct {
	id      uint64
	subs    subscriberSet
	sources sourceSet

	// compute derives the memo's value from its sources.
	compute func() T

	// value is the cached computed value, valid while state is Clean.
	value       T
	initialized bool
	valueMu     sync.RWMutex

	state atomicState

	// equal is the equality function for the propagation cut-off.
	equal func(T, T) bool

	// computing guards against re-entrant computation (circular
	// dependency), which is a programmer error.
	computing atomic.Bool

	disposed atomic.Bool
}

// NewMemo creates a memo and eagerly runs its compute function once,
// recording the initial source set and seeding the cache Clean. The
// memo is owned by the current Owner if one is active.
func NewMemo[T any](compute func() T) *Memo[T] {
	m := &Memo[T]{
		id:      nextID(),
		compute: compute,
	}

	if owner := getCurrentOwner(); owner != nil {
		owner.adopt(m)
	}

	statMemosCreated.Add(1)
	m.recompute()
	return m
}

// ID returns the unique identifier for this memo.
func (m *Memo[T]) ID() uint64 {
	return m.id
}

// State returns the memo's current freshness state.
func (m *Memo[T]) State() NodeState {
	return m.state.get()
}

// Get returns the memo's value, recomputing first if the memo is
// stale, and records a dependency edge to the current subscriber.
// The returned value is never stale: a memo read in Check or Dirty
// state is brought up to date before the read completes.
func (m *Memo[T]) Get() T {
	// Update before attaching the edge: if this read triggers a
	// recompute, the marks it pushes must not include the reader that
	// is about to consume the fresh value.
	m.UpdateIfNecessary()
	registerRead(m)

	m.valueMu.RLock()
	value := m.value
	m.valueMu.RUnlock()
	return value
}

// TryGet returns the memo's value, or reports false if the memo's
// owner has been disposed.
func (m *Memo[T]) TryGet() (T, bool) {
	if m.disposed.Load() {
		var zero T
		return zero, false
	}
	return m.Get(), true
}

// Peek returns the memo's value without recording a dependency edge.
// Still brings the value up to date first.
func (m *Memo[T]) Peek() T {
	m.UpdateIfNecessary()

	m.valueMu.RLock()
	value := m.value
	m.valueMu.RUnlock()
	return value
}

// With runs f against the memo's up-to-date value and records a
// dependency edge.
func (m *Memo[T]) With(f func(T)) {
	m.UpdateIfNecessary()
	registerRead(m)

	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	f(m.value)
}

// Track records a dependency edge without reading the value.
func (m *Memo[T]) Track() {
	registerRead(m)
}

// WithEquals configures a custom equality function for the propagation
// cut-off.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	m.equal = fn
	return m
}

// MarkDirty invalidates the memo outright and flags its subscribers
// Check. Implements Subscriber; called when a direct source changed.
func (m *Memo[T]) MarkDirty() {
	if m.disposed.Load() {
		return
	}

	if m.state.raise(StateDirty) == StateClean {
		m.subs.markCheck()
	}
}

// MarkCheck flags the memo as possibly stale and propagates Check to
// its subscribers. No-op if the memo is already Check or Dirty, which
// is what bounds diamond propagation to one visit per node.
func (m *Memo[T]) MarkCheck() {
	if m.disposed.Load() {
		return
	}

	if m.state.compareAndSwap(StateClean, StateCheck) {
		m.subs.markCheck()
	}
}

// UpdateIfNecessary implements the pull half of propagation. A Check
// memo polls its own sources; if one of them recomputes to a new value
// it marks this memo Dirty, forcing a recompute. If none changed, the
// memo demotes itself to Clean without recomputing. Reports whether the
// memo's value actually changed.
func (m *Memo[T]) UpdateIfNecessary() bool {
	if m.disposed.Load() {
		return false
	}

	if m.computing.Load() {
		if sub := getCurrentSubscriber(); sub != nil && sub.ID() == m.id {
			panic("weft: memo computation re-entered; circular dependency between memos")
		}
		// A concurrent reader mid-recompute takes the cached value; the
		// in-flight run settles the state.
		return false
	}

	switch m.state.get() {
	case StateClean:
		return false

	case StateCheck:
		for _, src := range m.sources.snapshot() {
			src.UpdateIfNecessary()
			if m.state.get() == StateDirty {
				// A source recomputed to a new value and dirtied us;
				// polling further sources would be wasted work.
				break
			}
		}

		// Settle Check back to Clean. A mark that lands after the poll
		// wins this race and leaves the state raised instead of being
		// absorbed by a blind store.
		if m.state.compareAndSwap(StateCheck, StateClean) {
			return false
		}
		if m.state.get() != StateDirty {
			// Another reader settled the state concurrently.
			return false
		}
	}

	return m.recompute()
}

// recompute re-runs the compute function inside a tracking context,
// rebuilding the source set from scratch, and reports whether the value
// changed. On change, subscribers already flagged Check are promoted to
// Dirty so their own polls see the change.
func (m *Memo[T]) recompute() bool {
	if m.computing.Swap(true) {
		panic("weft: memo computation re-entered; circular dependency between memos")
	}
	defer m.computing.Store(false)

	// Consume the mark before computing, the way the effect scheduler
	// does. A write that lands while the compute runs re-raises the
	// state, so the next read recomputes instead of trusting a value
	// derived from stale input.
	m.state.set(StateClean)

	// Dependencies may differ run to run; drop the old edges first.
	m.sources.clear(m)

	start := time.Now()
	var next T
	WithSubscriber(m, func() {
		next = m.compute()
	})

	m.valueMu.Lock()
	changed := !m.initialized || !m.equals(m.value, next)
	m.value = next
	m.initialized = true
	m.valueMu.Unlock()

	statMemoRecomputes.Add(1)
	currentObserver().MemoRecompute(m.id, changed, time.Since(start))

	// Equal value: propagation stops here, subscribers stay Check and
	// will demote themselves when they poll.
	if changed {
		m.subs.markDirty()
	}
	return changed
}

// recordSource implements Subscriber.
func (m *Memo[T]) recordSource(src Source) {
	m.sources.record(src)
}

func (m *Memo[T]) attachSubscriber(sub Subscriber) {
	if m.disposed.Load() {
		return
	}
	m.subs.attach(sub)
}

func (m *Memo[T]) detachSubscriber(sub Subscriber) {
	m.subs.detach(sub)
}

// disposeNode detaches the memo from the graph in both directions.
func (m *Memo[T]) disposeNode() {
	if m.disposed.Swap(true) {
		return
	}
	m.sources.clear(m)
	m.subs.clear()
	m.compute = nil
}

func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}

var (
	_ Source     = (*Memo[int])(nil)
	_ Subscriber = (*Memo[int])(nil)
)
