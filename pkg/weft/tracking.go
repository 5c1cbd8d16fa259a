package weft

import (
	"sync"

	"github.com/petermattis/goid"
)

// trackingContext holds the reactive state for a goroutine.
// Each goroutine has its own tracking context so concurrent graph use
// (several effects running on an executor pool, tests running in
// parallel) never observes another goroutine's tracking scope.
type trackingContext struct {
	// currentOwner is the Owner that will own newly created
	// signals/memos/effects on this goroutine.
	currentOwner *Owner

	// currentSubscriber is what's currently tracking dependencies.
	// When a signal or memo is read, it records an edge to this
	// subscriber. nil means reads don't create edges.
	currentSubscriber Subscriber

	// batchDepth tracks nested Batch() calls. When > 0, dirty marks are
	// queued instead of firing immediately.
	batchDepth int

	// pendingMarks accumulates subscribers to mark when the outermost
	// batch completes. Deduplicated by ID before marking.
	pendingMarks []Subscriber
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getTrackingContext returns the tracking context for the current
// goroutine, creating one on first use.
func getTrackingContext() *trackingContext {
	gid := goid.Get()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// getCurrentSubscriber returns the subscriber currently tracking reads.
// Returns nil if no tracking is active.
func getCurrentSubscriber() Subscriber {
	return getTrackingContext().currentSubscriber
}

// setCurrentSubscriber sets the tracking subscriber and returns the
// previous one so it can be restored.
func setCurrentSubscriber(sub Subscriber) Subscriber {
	ctx := getTrackingContext()
	old := ctx.currentSubscriber
	ctx.currentSubscriber = sub
	return old
}

// getCurrentOwner returns the current owner for the goroutine.
// Returns nil if no owner scope is active.
func getCurrentOwner() *Owner {
	return getTrackingContext().currentOwner
}

// setCurrentOwner sets the current owner and returns the previous one.
func setCurrentOwner(o *Owner) *Owner {
	ctx := getTrackingContext()
	old := ctx.currentOwner
	ctx.currentOwner = o
	return old
}

func getBatchDepth() int {
	return getTrackingContext().batchDepth
}

func incrementBatchDepth() {
	getTrackingContext().batchDepth++
}

// decrementBatchDepth decreases the batch depth and reports whether the
// outermost batch just completed.
func decrementBatchDepth() bool {
	ctx := getTrackingContext()
	ctx.batchDepth--
	return ctx.batchDepth == 0
}

// queuePendingMark records a subscriber to mark dirty when the
// outermost batch completes.
func queuePendingMark(sub Subscriber) {
	ctx := getTrackingContext()
	ctx.pendingMarks = append(ctx.pendingMarks, sub)
}

// drainPendingMarks returns and clears the queued marks.
func drainPendingMarks() []Subscriber {
	ctx := getTrackingContext()
	marks := ctx.pendingMarks
	ctx.pendingMarks = nil
	return marks
}

// WithOwner runs fn with the given owner as the current owner on this
// goroutine. Signals, memos, and effects created inside fn are owned by
// it. Equivalent to owner.With(fn); exported at package level for use
// from spawned goroutines.
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}

// WithSubscriber runs fn with the given subscriber tracking all reads.
// This is the primitive under memo recomputation and effect execution;
// external consumers (e.g. a rendering layer) can use it to become a
// tracked subscriber without the graph knowing anything about them.
func WithSubscriber(sub Subscriber, fn func()) {
	old := setCurrentSubscriber(sub)
	defer setCurrentSubscriber(old)
	fn()
}

// cleanupGoroutineContext removes the tracking context for the current
// goroutine. Optional; contexts are small and reused on goroutine ID
// collision, but long-lived pools may want to release them.
func cleanupGoroutineContext() {
	trackingContexts.Delete(goid.Get())
}
