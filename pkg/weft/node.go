package weft

import (
	"sync"
	"sync/atomic"
)

// NodeState describes the freshness of a reactive node.
type NodeState int32

const (
	// StateClean means the node's value is up to date.
	StateClean NodeState = iota

	// StateCheck means an ancestor source changed; whether this node is
	// actually stale is unknown until its sources are polled.
	StateCheck

	// StateDirty means the node was explicitly invalidated and must
	// recompute (or, for an effect, re-run) before its next use.
	StateDirty
)

// String returns a human-readable name for the state.
func (s NodeState) String() string {
	switch s {
	case StateClean:
		return "Clean"
	case StateCheck:
		return "Check"
	case StateDirty:
		return "Dirty"
	default:
		return "Unknown"
	}
}

// Source is a node other nodes can depend on: signals and memos.
type Source interface {
	// ID returns the unique identifier for this node.
	ID() uint64

	// UpdateIfNecessary brings the node up to date and reports whether
	// its value actually changed since it was last observed. Polling a
	// signal always reports false; signals push their changes eagerly
	// at write time.
	UpdateIfNecessary() bool

	attachSubscriber(Subscriber)
	detachSubscriber(Subscriber)
}

// Subscriber is a node that depends on sources: memos and effects.
type Subscriber interface {
	// ID returns the unique identifier for this node.
	ID() uint64

	// MarkDirty invalidates the node outright. For a memo this forces
	// recomputation on next read; for an effect it schedules a re-run.
	MarkDirty()

	// MarkCheck flags the node as possibly stale. Idempotent: revisiting
	// an already Check or Dirty node is a no-op, which bounds propagation
	// to O(edges) per write.
	MarkCheck()

	recordSource(Source)
}

// atomicState is a NodeState cell with monotonic raise semantics.
type atomicState struct {
	v atomic.Int32
}

func (s *atomicState) get() NodeState {
	return NodeState(s.v.Load())
}

func (s *atomicState) set(ns NodeState) {
	s.v.Store(int32(ns))
}

func (s *atomicState) swap(ns NodeState) NodeState {
	return NodeState(s.v.Swap(int32(ns)))
}

func (s *atomicState) compareAndSwap(old, new NodeState) bool {
	return s.v.CompareAndSwap(int32(old), int32(new))
}

// raise moves the state towards Dirty, never backwards.
// Returns the state observed before the raise.
func (s *atomicState) raise(ns NodeState) NodeState {
	for {
		cur := s.v.Load()
		if cur >= int32(ns) {
			return NodeState(cur)
		}
		if s.v.CompareAndSwap(cur, int32(ns)) {
			return NodeState(cur)
		}
	}
}

// subscriberSet is the downstream edge set of a source.
// Deduplicated by subscriber ID, copy-before-notify (no locks are held
// while subscriber callbacks run).
type subscriberSet struct {
	mu   sync.RWMutex
	subs []Subscriber
}

func (ss *subscriberSet) attach(sub Subscriber) {
	if sub == nil {
		return
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	sid := sub.ID()
	for _, existing := range ss.subs {
		if existing.ID() == sid {
			return
		}
	}
	ss.subs = append(ss.subs, sub)
}

func (ss *subscriberSet) detach(sub Subscriber) {
	if sub == nil {
		return
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	sid := sub.ID()
	for i, existing := range ss.subs {
		if existing.ID() == sid {
			// Remove by swapping with last element (order doesn't matter)
			ss.subs[i] = ss.subs[len(ss.subs)-1]
			ss.subs = ss.subs[:len(ss.subs)-1]
			return
		}
	}
}

func (ss *subscriberSet) snapshot() []Subscriber {
	ss.mu.RLock()
	subs := make([]Subscriber, len(ss.subs))
	copy(subs, ss.subs)
	ss.mu.RUnlock()
	return subs
}

func (ss *subscriberSet) clear() {
	ss.mu.Lock()
	ss.subs = nil
	ss.mu.Unlock()
}

// markDirty marks every subscriber Dirty. Inside a Batch the marks are
// queued and deduplicated; they fire when the outermost batch completes.
func (ss *subscriberSet) markDirty() {
	subs := ss.snapshot()

	if getBatchDepth() > 0 {
		for _, sub := range subs {
			queuePendingMark(sub)
		}
		return
	}

	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// markCheck marks every subscriber Check. Marks are cheap and idempotent,
// so these always fire immediately, even inside a batch.
func (ss *subscriberSet) markCheck() {
	for _, sub := range ss.snapshot() {
		sub.MarkCheck()
	}
}

// sourceSet is the upstream edge set of a subscriber. Dependencies can
// differ run to run, so the set is cleared and rebuilt on every
// recomputation.
type sourceSet struct {
	mu      sync.Mutex
	sources []Source
}

func (ss *sourceSet) record(src Source) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	sid := src.ID()
	for _, existing := range ss.sources {
		if existing.ID() == sid {
			return
		}
	}
	ss.sources = append(ss.sources, src)
}

func (ss *sourceSet) snapshot() []Source {
	ss.mu.Lock()
	sources := make([]Source, len(ss.sources))
	copy(sources, ss.sources)
	ss.mu.Unlock()
	return sources
}

// clear detaches the subscriber from every recorded source and empties
// the set. Called before recomputation and at disposal.
func (ss *sourceSet) clear(sub Subscriber) {
	ss.mu.Lock()
	sources := ss.sources
	ss.sources = nil
	ss.mu.Unlock()

	for _, src := range sources {
		src.detachSubscriber(sub)
	}
}

// registerRead records the bidirectional edge between a source being
// read and the subscriber currently tracking, if any. Self-reads (a
// memo reading itself) are ignored.
func registerRead(src Source) {
	sub := getCurrentSubscriber()
	if sub == nil || sub.ID() == src.ID() {
		return
	}
	src.attachSubscriber(sub)
	sub.recordSource(src)
}
