package weft

import "sync"

// effectScheduler converts dirty marks into effect re-runs. Marking
// only enqueues; execution happens when the queue is flushed, either
// inline at the end of the write that produced the marks, or on an
// executor that installed a wake hook. This decoupling is what lets
// many writes in one settle coalesce into a single run per effect.
type effectScheduler struct {
	mu       sync.Mutex
	queue    []*Effect
	queued   map[uint64]struct{}
	flushing bool
	wake     func()
}

var globalScheduler = &effectScheduler{
	queued: make(map[uint64]struct{}),
}

// enqueue schedules an effect for re-run, deduplicating by ID.
func (s *effectScheduler) enqueue(e *Effect) {
	s.mu.Lock()
	if _, ok := s.queued[e.id]; ok {
		s.mu.Unlock()
		return
	}
	s.queued[e.id] = struct{}{}
	s.queue = append(s.queue, e)
	wake := s.wake
	s.mu.Unlock()

	if wake != nil {
		wake()
	}
}

// maybeFlush drains inline unless an executor owns draining.
func (s *effectScheduler) maybeFlush() {
	s.mu.Lock()
	takenOver := s.wake != nil
	s.mu.Unlock()

	if !takenOver {
		s.flush()
	}
}

// flush drains the queue to a fixed point. Effects that write signals
// during their run enqueue further effects; the loop picks those up
// within the same flush. Re-entrant calls (an effect's own writes
// triggering a settle) are no-ops; the outer loop drains everything.
func (s *effectScheduler) flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true

	for len(s.queue) > 0 {
		e := s.queue[0]
		s.queue = s.queue[1:]
		delete(s.queued, e.id)
		s.mu.Unlock()

		e.runIfStale()

		s.mu.Lock()
	}

	s.flushing = false
	s.mu.Unlock()
}

// Flush runs all scheduled effects to a fixed point. Call this after
// writes when an executor wake hook is installed, or from the executor
// itself; without a hook, writes flush inline and calling Flush is a
// cheap no-op.
func Flush() {
	globalScheduler.flush()
}

// HasPendingEffects reports whether any effect is waiting to run.
func HasPendingEffects() bool {
	globalScheduler.mu.Lock()
	defer globalScheduler.mu.Unlock()
	return len(globalScheduler.queue) > 0
}

// SetWakeHook installs a callback invoked whenever an effect becomes
// pending. While a hook is installed the graph stops flushing inline;
// whoever installed the hook is responsible for calling Flush (the
// executor package does this when driving the scheduler). Pass nil to
// restore inline flushing.
func SetWakeHook(fn func()) {
	globalScheduler.mu.Lock()
	globalScheduler.wake = fn
	globalScheduler.mu.Unlock()
}
