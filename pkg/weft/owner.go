package weft

import (
	"sync"
	"sync/atomic"
)

// ownedNode is anything whose lifetime is bound to an Owner.
type ownedNode interface {
	disposeNode()
}

// Owner is a disposal scope: the unit of "free everything created
// here". Signals, memos, and effects created while an Owner is current
// are registered under it, and disposing the Owner disposes its entire
// subtree.
//
// Owners form a tree: each child scope is registered under its parent,
// mirroring whatever structure the consumer builds (a component tree,
// a request scope, a test fixture).
//
// True ownership flows only Owner -> node. Graph edges between nodes
// carry no ownership, so disposal is local: it never cascades through
// dependency edges, it just leaves them dangling, and dangling edges
// fail soft.
type Owner struct {
	id uint64

	// parent is the parent Owner, nil for a root.
	parent *Owner

	// children are child scopes, disposed before this Owner's own
	// cleanups run.
	children   []*Owner
	childrenMu sync.Mutex

	// nodes are the reactive primitives this scope owns.
	nodes   []ownedNode
	nodesMu sync.Mutex

	// cleanups are callbacks registered via OnCleanup, run in LIFO
	// order at disposal.
	cleanups   []func()
	cleanupsMu sync.Mutex

	// values stores context values for this scope, visible to
	// descendants.
	values   map[any]any
	valuesMu sync.RWMutex

	disposed atomic.Bool
}

// NewOwner creates a new Owner. With a nil parent it attaches to the
// Owner current on this goroutine, or becomes a root if there is none.
func NewOwner(parent *Owner) *Owner {
	if parent == nil {
		parent = getCurrentOwner()
	}

	o := &Owner{
		id:     nextID(),
		parent: parent,
	}

	if parent != nil {
		parent.addChild(o)
	}

	statOwnersActive.Add(1)
	return o
}

// NewRoot creates a parentless Owner regardless of the current scope.
func NewRoot() *Owner {
	o := &Owner{id: nextID()}
	statOwnersActive.Add(1)
	return o
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil for a root.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed reports whether this Owner has been disposed.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

// With pushes this Owner as current on the goroutine, runs fn, and
// restores the previous Owner. Primitives created inside fn are owned
// by this scope.
func (o *Owner) With(fn func()) {
	old := setCurrentOwner(o)
	defer setCurrentOwner(old)
	fn()
}

// Set makes this Owner current on the goroutine without a callback
// scope and returns the previously current Owner so the caller can
// restore it.
func (o *Owner) Set() *Owner {
	return setCurrentOwner(o)
}

func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// adopt registers a reactive node under this scope. Adopting into an
// already disposed scope disposes the node immediately.
func (o *Owner) adopt(n ownedNode) {
	if o.disposed.Load() {
		n.disposeNode()
		return
	}

	o.nodesMu.Lock()
	defer o.nodesMu.Unlock()
	o.nodes = append(o.nodes, n)
}

// OnCleanup registers a cleanup to run when this Owner is disposed.
// Cleanups run in LIFO registration order. Registering on an already
// disposed Owner runs the cleanup immediately, which is what lets a
// cleanup safely register further cleanups during the same disposal
// pass.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}

	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

// OnCleanup registers a cleanup on the Owner current on this goroutine.
// No-op outside an owner scope.
func OnCleanup(fn func()) {
	if owner := getCurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}

// Dispose disposes this Owner: child scopes first (depth-first, newest
// first), then this scope's cleanups in LIFO order, then the owned
// nodes, detaching them from the graph. Disposing twice is a safe
// no-op, and reading a node after its owner is disposed reports
// absence rather than panicking.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.children = nil
	o.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	o.nodesMu.Lock()
	nodes := o.nodes
	o.nodes = nil
	o.nodesMu.Unlock()

	for _, n := range nodes {
		n.disposeNode()
	}

	o.valuesMu.Lock()
	o.values = nil
	o.valuesMu.Unlock()

	statOwnersActive.Add(-1)
	statOwnersDisposed.Add(1)
	currentObserver().OwnerDispose(o.id)
}
