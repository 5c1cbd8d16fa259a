package resource

import (
	"sync"

	"github.com/weft-dev/weft/pkg/weft"
)

// Suspense counts unresolved async resources within a scope. Resources
// created while a Suspense is provided on the owner tree register with
// it automatically: the counter goes up when a fetch starts and down
// when it completes, regardless of completion order.
//
// The core graph knows nothing about what the counter is used for; a
// consumer (e.g. a rendering layer) waits on Done to know that every
// resource created inside the scope has resolved.
type Suspense struct {
	mu    sync.Mutex
	count int64
	done  chan struct{}
}

// NewSuspense creates a suspense context with an empty pending set.
func NewSuspense() *Suspense {
	done := make(chan struct{})
	close(done)
	return &Suspense{done: done}
}

// Provide creates a Suspense and provides it on the current owner
// scope, so resources created in this scope and its descendants
// register with it.
func Provide() *Suspense {
	s := NewSuspense()
	weft.ProvideContext(s)
	return s
}

// Use returns the nearest provided Suspense, if any.
func Use() (*Suspense, bool) {
	return weft.UseContext[*Suspense]()
}

// Increment records one more unresolved resource.
func (s *Suspense) Increment() {
	s.mu.Lock()
	s.count++
	if s.count == 1 {
		s.done = make(chan struct{})
	}
	n := s.count
	s.mu.Unlock()

	weft.CurrentObserver().SuspensePending(n)
}

// Decrement records a resolved resource. Panics if the counter would
// go negative; that means an unmatched Decrement, a programmer error.
func (s *Suspense) Decrement() {
	s.mu.Lock()
	s.count--
	if s.count < 0 {
		s.mu.Unlock()
		panic("resource: suspense counter underflow")
	}
	if s.count == 0 {
		close(s.done)
	}
	n := s.count
	s.mu.Unlock()

	weft.CurrentObserver().SuspensePending(n)
}

// Pending returns the number of unresolved resources.
func (s *Suspense) Pending() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Ready reports whether no resources are pending.
func (s *Suspense) Ready() bool {
	return s.Pending() == 0
}

// Done returns a channel closed while the pending count is zero. A new
// fetch replaces the channel, so callers should re-check Ready after
// waking if they race with new resource creation.
func (s *Suspense) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
