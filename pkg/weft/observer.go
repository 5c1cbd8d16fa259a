package weft

import (
	"sync/atomic"
	"time"
)

// Observer receives lifecycle events from the graph. Implementations
// live outside the core (logging, Prometheus metrics, trace spans, the
// inspect event stream); the engine itself only emits.
//
// Observer methods are called synchronously on the goroutine performing
// the operation and must not write signals.
type Observer interface {
	// SignalWrite fires after a signal write that actually changed the
	// value.
	SignalWrite(id uint64)

	// MemoRecompute fires after a memo recomputation, with whether the
	// value changed and how long the compute function took.
	MemoRecompute(id uint64, changed bool, elapsed time.Duration)

	// EffectRun fires after an effect body executed.
	EffectRun(id uint64, elapsed time.Duration)

	// OwnerDispose fires after an Owner finished disposing.
	OwnerDispose(id uint64)

	// ResourceLoad fires when an async resource completes, with the
	// fetch duration and error, if any.
	ResourceLoad(id uint64, elapsed time.Duration, err error)

	// SuspensePending fires when a suspense pending counter changes.
	SuspensePending(count int64)
}

// NoopObserver is an Observer that discards all events. Embed it to
// implement only the events you care about.
type NoopObserver struct{}

func (NoopObserver) SignalWrite(uint64)                        {}
func (NoopObserver) MemoRecompute(uint64, bool, time.Duration) {}
func (NoopObserver) EffectRun(uint64, time.Duration)           {}
func (NoopObserver) OwnerDispose(uint64)                       {}
func (NoopObserver) ResourceLoad(uint64, time.Duration, error) {}
func (NoopObserver) SuspensePending(int64)                     {}

var _ Observer = NoopObserver{}

// observerHolder wraps the Observer so atomic.Value sees one concrete
// type across swaps.
type observerHolder struct {
	obs Observer
}

var globalObserver atomic.Value

func init() {
	globalObserver.Store(observerHolder{obs: NoopObserver{}})
}

// SetObserver installs the process-wide Observer. Pass nil to restore
// the noop observer. Combine several with observability.Multi.
func SetObserver(obs Observer) {
	if obs == nil {
		obs = NoopObserver{}
	}
	globalObserver.Store(observerHolder{obs: obs})
}

// CurrentObserver returns the installed Observer.
func CurrentObserver() Observer {
	return currentObserver()
}

func currentObserver() Observer {
	return globalObserver.Load().(observerHolder).obs
}
