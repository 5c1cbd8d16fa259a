package executor

// Sync runs every task inline on the submitting goroutine: the
// block-on backend. Useful for tests and for callers that want
// spawned work to complete before the spawning call returns.
//
// The struct is deliberately non-zero-sized: Init distinguishes
// executors by pointer identity, and Go gives all zero-size
// allocations the same address.
type Sync struct {
	_ [1]byte
}

// NewSync creates a synchronous executor.
func NewSync() *Sync {
	return &Sync{}
}

// Spawn runs fn immediately on the calling goroutine.
func (s *Sync) Spawn(fn func()) {
	fn()
}

// SpawnLocal runs fn immediately on the calling goroutine.
func (s *Sync) SpawnLocal(fn func()) {
	fn()
}

// Tick is a no-op; there is never pending work.
func (s *Sync) Tick() int {
	return 0
}

var _ Executor = (*Sync)(nil)
