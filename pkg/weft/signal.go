package weft

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Signal is a reactive value container: a leaf source in the graph.
// Reading a Signal's value during a tracked context (memo computation
// or effect execution) automatically records a dependency edge, so the
// reader is marked stale when the value changes. A signal is never a
// subscriber; it has no sources of its own.
type Signal[T any] struct {
	id   uint64
	subs subscriberSet

	// value is the current signal value.
	value T

	// mu protects the value. Reads take the lock only long enough to
	// copy the value out, so readers never block writers indefinitely.
	// Writing from inside the value's own With callback would deadlock
	// and is a programming error.
	mu sync.RWMutex

	// equal decides whether a write actually changed the value.
	// If nil, uses default equality checking.
	equal func(T, T) bool

	disposed atomic.Bool
}

// NewSignal creates a new signal with the given initial value, owned by
// the current Owner if one is active.
func NewSignal[T any](initial T) *Signal[T] {
	s := &Signal[T]{
		id:    nextID(),
		value: initial,
	}

	if owner := getCurrentOwner(); owner != nil {
		owner.adopt(s)
	}

	statSignalsCreated.Add(1)
	return s
}

// CreateSignal creates a signal and splits it into a read handle and a
// write handle sharing the same underlying cell. Handing out only one
// side restricts a collaborator to that capability.
func CreateSignal[T any](initial T) (*ReadSignal[T], *WriteSignal[T]) {
	s := NewSignal(initial)
	return &ReadSignal[T]{s: s}, &WriteSignal[T]{s: s}
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.id
}

// Get returns the current value and records a dependency edge to the
// subscriber currently tracking, if any.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	// Track after releasing the value lock to prevent deadlock.
	registerRead(s)

	return value
}

// TryGet returns the current value, or reports false if the signal's
// owner has been disposed.
func (s *Signal[T]) TryGet() (T, bool) {
	if s.disposed.Load() {
		var zero T
		return zero, false
	}
	return s.Get(), true
}

// Peek returns the current value without recording a dependency edge.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// With runs f against the current value under the read lock and records
// a dependency edge. Writing the signal from inside f deadlocks; that
// is a programming error, not a recoverable condition.
func (s *Signal[T]) With(f func(T)) {
	registerRead(s)

	s.mu.RLock()
	defer s.mu.RUnlock()
	f(s.value)
}

// TryWith runs f against the current value like With, or reports false
// without calling f if the signal's owner has been disposed.
func (s *Signal[T]) TryWith(f func(T)) bool {
	if s.disposed.Load() {
		return false
	}
	s.With(f)
	return true
}

// WithUntracked runs f against the current value without recording an
// edge.
func (s *Signal[T]) WithUntracked(f func(T)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f(s.value)
}

// Track records a dependency edge without reading the value. Used by
// consumers that only care that something changed, not what it is.
func (s *Signal[T]) Track() {
	registerRead(s)
}

// Set replaces the signal's value and marks subscribers dirty if it
// actually changed. Writes to a disposed signal are dropped.
func (s *Signal[T]) Set(value T) {
	if s.disposed.Load() {
		return
	}

	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.notifyWrite()
	}
}

// SetUntracked replaces the value without marking anything dirty.
// Subscribers will not observe the change until something else
// invalidates them. Used for diagnostic or non-reactive updates.
func (s *Signal[T]) SetUntracked(value T) {
	if s.disposed.Load() {
		return
	}

	s.mu.Lock()
	s.value = value
	s.mu.Unlock()
}

// Update atomically reads and replaces the signal's value, marking
// subscribers dirty if the result differs from the previous value.
func (s *Signal[T]) Update(fn func(T) T) {
	if s.disposed.Load() {
		return
	}

	s.mu.Lock()
	oldValue := s.value
	newValue := fn(oldValue)
	changed := !s.equals(oldValue, newValue)
	if changed {
		s.value = newValue
	}
	s.mu.Unlock()

	if changed {
		s.notifyWrite()
	}
}

// WithEquals configures a custom equality function, for types where
// reflect.DeepEqual is too expensive or has the wrong semantics.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// notifyWrite pushes dirty marks to subscribers and, outside a batch,
// settles the graph so pending effects run.
func (s *Signal[T]) notifyWrite() {
	statSignalWrites.Add(1)
	currentObserver().SignalWrite(s.id)

	s.subs.markDirty()
	if getBatchDepth() == 0 {
		settle()
	}
}

// UpdateIfNecessary implements Source. A signal is never stale at read
// time; its changes were pushed eagerly at write time.
func (s *Signal[T]) UpdateIfNecessary() bool {
	return false
}

func (s *Signal[T]) attachSubscriber(sub Subscriber) {
	if s.disposed.Load() {
		return
	}
	s.subs.attach(sub)
}

func (s *Signal[T]) detachSubscriber(sub Subscriber) {
	s.subs.detach(sub)
}

// disposeNode detaches the signal from the graph. Dangling edges from
// subscribers fail soft: attach is refused and writes are dropped.
func (s *Signal[T]) disposeNode() {
	if s.disposed.Swap(true) {
		return
	}
	s.subs.clear()
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

var _ Source = (*Signal[int])(nil)

// ReadSignal is the read capability of a split signal.
type ReadSignal[T any] struct {
	s *Signal[T]
}

// Get returns the current value and records a dependency edge.
func (r *ReadSignal[T]) Get() T { return r.s.Get() }

// TryGet returns the current value, or false after disposal.
func (r *ReadSignal[T]) TryGet() (T, bool) { return r.s.TryGet() }

// Peek returns the current value without recording an edge.
func (r *ReadSignal[T]) Peek() T { return r.s.Peek() }

// With runs f against the current value and records an edge.
func (r *ReadSignal[T]) With(f func(T)) { r.s.With(f) }

// TryWith runs f against the current value, or reports false after
// disposal.
func (r *ReadSignal[T]) TryWith(f func(T)) bool { return r.s.TryWith(f) }

// WithUntracked runs f against the current value without an edge.
func (r *ReadSignal[T]) WithUntracked(f func(T)) { r.s.WithUntracked(f) }

// Track records a dependency edge without reading the value.
func (r *ReadSignal[T]) Track() { r.s.Track() }

// ID returns the underlying signal's identifier.
func (r *ReadSignal[T]) ID() uint64 { return r.s.ID() }

// WriteSignal is the write capability of a split signal.
type WriteSignal[T any] struct {
	s *Signal[T]
}

// Set replaces the value and marks subscribers dirty if it changed.
func (w *WriteSignal[T]) Set(value T) { w.s.Set(value) }

// SetUntracked replaces the value without marking anything dirty.
func (w *WriteSignal[T]) SetUntracked(value T) { w.s.SetUntracked(value) }

// Update atomically reads and replaces the value.
func (w *WriteSignal[T]) Update(fn func(T) T) { w.s.Update(fn) }

// ID returns the underlying signal's identifier.
func (w *WriteSignal[T]) ID() uint64 { return w.s.ID() }

// defaultEquals provides type-appropriate equality checking.
// Uses == for common comparable types and reflect.DeepEqual for others.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		// Fall back to reflect.DeepEqual for slices, maps, structs, etc.
		return reflect.DeepEqual(a, b)
	}
}
