// Package resource integrates asynchronous computation with the
// reactive graph. A Resource is a signal fed by a task: its value
// starts Loading and transitions to Complete when the driving fetch
// resolves, and completion is written through the ordinary signal
// write path, so downstream memos and effects are notified by the
// graph machinery itself rather than a separate mechanism.
package resource

import (
	"context"
	"sync"
	"time"

	"github.com/weft-dev/weft/pkg/executor"
	"github.com/weft-dev/weft/pkg/weft"
)

// AsyncState is the lifecycle of an async value.
type AsyncState int

const (
	// Loading means the driving fetch has not resolved yet.
	Loading AsyncState = iota

	// Complete means the fetch resolved; the value (or its error) is
	// available.
	Complete
)

// String returns a human-readable name for the state.
func (s AsyncState) String() string {
	switch s {
	case Loading:
		return "Loading"
	case Complete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Resource is an async derived value. Reading State, Get, or Err from
// a tracked context records ordinary dependency edges, so dependents
// re-run when the fetch completes.
//
// Disposal of the creating Owner cancels the resource's context and
// discards late results; the in-flight fetch is not actively
// interrupted beyond cancellation, the graph simply stops caring about
// its outcome.
type Resource[T any] struct {
	state *weft.Signal[AsyncState]
	value *weft.Signal[T]
	err   *weft.Signal[error]

	fetch func(context.Context) (T, error)
	susp  *Suspense

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.Mutex
	// fetchID invalidates in-flight fetches when a newer one starts, so
	// out-of-order completions never clobber fresh data.
	fetchID uint64
	// done is closed when the current fetch completes; Await waits on it.
	done chan struct{}
}

// New creates a resource and spawns its first fetch on the installed
// executor. Returns executor.ErrNotConfigured if no executor has been
// installed. If a Suspense is provided on the owner tree, the resource
// registers its pending fetches with it.
func New[T any](fetch func(context.Context) (T, error)) (*Resource[T], error) {
	ctx, cancel := context.WithCancel(context.Background())

	r := &Resource[T]{
		state:  weft.NewSignal(Loading),
		value:  weft.NewSignal(*new(T)),
		err:    weft.NewSignal[error](nil),
		fetch:  fetch,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if susp, ok := Use(); ok {
		r.susp = susp
	}

	weft.OnCleanup(r.cancel)

	if err := r.load(); err != nil {
		cancel()
		return nil, err
	}
	return r, nil
}

// NewKeyed creates a resource that re-fetches whenever the tracked key
// changes. The key function runs inside an effect, so any signals or
// memos it reads become dependencies.
func NewKeyed[K comparable, T any](key func() K, fetch func(context.Context, K) (T, error)) (*Resource[T], error) {
	first := true
	r, err := New(func(ctx context.Context) (T, error) {
		var k K
		weft.Untracked(func() { k = key() })
		return fetch(ctx, k)
	})
	if err != nil {
		return nil, err
	}

	weft.NewEffect(func() weft.Cleanup {
		key()
		if first {
			// The constructor already fetched with the initial key.
			first = false
			return nil
		}
		r.Refetch()
		return nil
	})

	return r, nil
}

// State returns the resource's lifecycle state, tracked.
func (r *Resource[T]) State() AsyncState {
	return r.state.Get()
}

// Loading reports whether the fetch is still in flight, tracked.
func (r *Resource[T]) Loading() bool {
	return r.state.Get() == Loading
}

// Get returns the current value, tracked. While Loading it returns the
// zero value (or the previous value after a Refetch).
func (r *Resource[T]) Get() T {
	return r.value.Get()
}

// Err returns the error from the last completed fetch, tracked.
func (r *Resource[T]) Err() error {
	return r.err.Get()
}

// Peek returns the current value without recording a dependency edge.
func (r *Resource[T]) Peek() T {
	return r.value.Peek()
}

// Await suspends the calling goroutine until a fetch completes or ctx
// is cancelled. If the fetch being waited on is superseded by a
// Refetch, the wait carries over to the newer one. This is a
// cooperative wait; graph operations themselves never suspend.
func (r *Resource[T]) Await(ctx context.Context) (T, error) {
	for {
		r.mu.Lock()
		done := r.done
		r.mu.Unlock()

		select {
		case <-done:
			if r.state.Peek() == Complete {
				return r.value.Peek(), r.err.Peek()
			}
			if err := r.ctx.Err(); err != nil {
				var zero T
				return zero, err
			}
			// Superseded mid-fetch; park on the replacement channel.
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Refetch starts a new fetch, invalidating any still-running one.
func (r *Resource[T]) Refetch() {
	// Executor presence was checked at construction; if it was torn
	// down since, the resource just stays as it was.
	_ = r.load()
}

// load spawns the fetch on the installed executor. Completion writes
// value, error, and state in one batch so dependents observe a single
// consistent transition.
func (r *Resource[T]) load() error {
	exec, err := executor.Current()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.fetchID++
	id := r.fetchID
	done := make(chan struct{})
	r.done = done
	r.mu.Unlock()

	// Only after the channel swap: a waiter that observes Loading must
	// always find an open channel for the fetch it implies.
	r.state.Set(Loading)

	if r.susp != nil {
		r.susp.Increment()
	}

	ctx := r.ctx
	start := time.Now()

	exec.Spawn(func() {
		v, ferr := r.fetch(ctx)

		r.mu.Lock()
		stale := r.fetchID != id
		r.mu.Unlock()

		if stale || ctx.Err() != nil {
			// A newer fetch superseded this one, or the owning scope is
			// gone. The result completes harmlessly into nothing, but any
			// waiter still parked on this fetch's channel must wake up and
			// move on; only the fresh completion path below closes the
			// channel otherwise.
			if r.susp != nil {
				r.susp.Decrement()
			}
			close(done)
			return
		}

		weft.Batch(func() {
			r.err.Set(ferr)
			r.value.Set(v)
			r.state.Set(Complete)
		})

		weft.CurrentObserver().ResourceLoad(r.value.ID(), time.Since(start), ferr)

		if r.susp != nil {
			r.susp.Decrement()
		}
		close(done)
	})

	return nil
}
