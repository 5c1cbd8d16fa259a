package weft

import (
	"sync/atomic"
	"time"
)

// Cleanup is a function returned by effects to release resources.
// It is called before the effect re-runs and when the effect is
// disposed.
type Cleanup func()

// Effect is a reactive side effect: a pure subscriber with no value.
// The effect function runs once immediately at creation (tracked), and
// re-runs whenever a signal or memo it read during its last run
// changes.
//
// Marking an effect dirty only schedules it; the actual re-run happens
// when the scheduler queue is flushed (inline at the end of a write, or
// on an installed executor). Several writes within one settle therefore
// coalesce into a single re-run.
//
// Effects carry the same Clean/Check/Dirty states as memos: an effect
// woken in Check state first polls its sources, and if none actually
// changed value (an upstream memo recomputed to an equal value) the
// effect body does not run at all.
type Effect struct {
	id uint64

	// fn is the effect body.
	fn func() Cleanup

	// cleanup is the cleanup from the previous run.
	cleanup Cleanup

	sources sourceSet

	// owner is restored as the current owner during re-runs so the body
	// can create child scopes.
	owner *Owner

	state atomicState

	// pending is set while the effect sits in the scheduler queue.
	pending atomic.Bool

	// running is set while the effect is verifying its sources or
	// executing its body. Marks that arrive during this window must not
	// enqueue concurrently; they are picked up by the post-run check.
	running atomic.Bool

	disposed atomic.Bool
}

// NewEffect creates an effect under the current Owner and runs it once
// immediately, recording its initial source set.
//
// Example:
//
//	weft.NewEffect(func() weft.Cleanup {
//	    fmt.Println("count is", count.Get())
//	    return nil
//	})
func NewEffect(fn func() Cleanup) *Effect {
	e := &Effect{
		id:    nextID(),
		fn:    fn,
		owner: getCurrentOwner(),
	}

	if e.owner != nil {
		e.owner.adopt(e)
	}

	statEffectsCreated.Add(1)

	// The initial run holds the running flag like a scheduled run does,
	// so a body that writes one of its own sources defers the wake-up to
	// the check below instead of flushing into itself.
	e.running.Store(true)
	e.runNow()
	e.running.Store(false)

	if e.state.get() != StateClean {
		e.schedule()
		if getBatchDepth() == 0 {
			settle()
		}
	}
	return e
}

// ID returns the unique identifier for this effect.
func (e *Effect) ID() uint64 {
	return e.id
}

// MarkDirty schedules the effect for an unconditional re-run.
// Implements Subscriber.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}
	e.state.raise(StateDirty)
	e.schedule()
}

// MarkCheck schedules the effect for a verification pass: it will poll
// its sources and re-run only if one actually changed value.
// Implements Subscriber.
func (e *Effect) MarkCheck() {
	if e.disposed.Load() {
		return
	}
	if e.state.compareAndSwap(StateClean, StateCheck) {
		e.schedule()
	}
}

// schedule enqueues the effect at most once. While the effect is
// running, scheduling is deferred to the post-run state check, which
// preserves marks that arrive mid-verification without ever enqueueing
// the same settle twice.
func (e *Effect) schedule() {
	if e.disposed.Load() || e.running.Load() {
		return
	}
	if e.pending.CompareAndSwap(false, true) {
		globalScheduler.enqueue(e)
	}
}

// runIfStale is the scheduler entry point. It consumes the effect's
// mark, verifies Check states against the sources, and runs the body
// only if something actually changed.
func (e *Effect) runIfStale() {
	if e.disposed.Load() {
		return
	}

	e.pending.Store(false)
	e.running.Store(true)

	defer func() {
		e.running.Store(false)
		// A mark that arrived while we were verifying or running must
		// survive this pass. Reschedule exactly once; losing it here
		// would drop a wake-up, and re-entering instead would loop.
		if e.state.get() != StateClean {
			e.schedule()
		}
	}()

	prior := e.state.swap(StateClean)
	stale := prior == StateDirty

	if prior == StateCheck {
		// Double-checking phase: poll sources. A source that recomputes
		// to a new value marks us Dirty as a side effect of the poll.
		for _, src := range e.sources.snapshot() {
			src.UpdateIfNecessary()
			if e.state.get() == StateDirty {
				stale = true
				break
			}
		}
		// Consume only the marks our own polling produced. The poll
		// raises Dirty when a source changed, so a Dirty here still runs
		// the body below with fresh values; a Check mark can only come
		// from a concurrent write and is put back for the post-run
		// reschedule to verify.
		switch e.state.swap(StateClean) {
		case StateDirty:
			stale = true
		case StateCheck:
			e.state.raise(StateCheck)
		}
	}

	if stale {
		e.runNow()
	}
}

// runNow executes the effect body: previous cleanup first, then a
// tracked run that rebuilds the source set from scratch, so the
// dependency set can shrink or grow between runs.
func (e *Effect) runNow() {
	if e.disposed.Load() {
		return
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.sources.clear(e)

	start := time.Now()
	prevOwner := setCurrentOwner(e.owner)
	prevSub := setCurrentSubscriber(e)

	e.cleanup = e.fn()

	setCurrentSubscriber(prevSub)
	setCurrentOwner(prevOwner)

	statEffectRuns.Add(1)
	currentObserver().EffectRun(e.id, time.Since(start))
}

// recordSource implements Subscriber.
func (e *Effect) recordSource(src Source) {
	e.sources.record(src)
}

// Dispose detaches the effect from all its sources and runs its
// pending cleanup. Safe to call more than once.
func (e *Effect) Dispose() {
	e.disposeNode()
}

func (e *Effect) disposeNode() {
	if e.disposed.Swap(true) {
		return
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.sources.clear(e)
}

var _ Subscriber = (*Effect)(nil)
