// Package executor provides the pluggable task-spawning backends that
// drive effect re-execution and resource fetches. The reactive graph
// itself never runs tasks; marking only flags state, and whichever
// Executor is installed decides when flagged work actually runs.
package executor

import (
	"errors"
	"sync"

	"github.com/weft-dev/weft/pkg/weft"
)

// Executor runs tasks for the reactive system.
type Executor interface {
	// Spawn runs fn concurrently. fn may execute on another goroutine.
	Spawn(fn func())

	// SpawnLocal queues fn on the executor's serial queue: tasks
	// submitted this way never run concurrently with each other. Use it
	// for work that assumes single-threaded execution.
	SpawnLocal(fn func())

	// Tick drives pending work to a fixed point and returns the number
	// of tasks that ran. For autonomous backends (Pool) it waits for
	// quiescence instead.
	Tick() int
}

var (
	// ErrAlreadySet is returned by Init when a different executor is
	// already installed. Installing the same executor twice is a no-op.
	ErrAlreadySet = errors.New("executor: already configured")

	// ErrNotConfigured is returned when task spawning is attempted
	// before an executor is installed. This is an explicit error, never
	// a silent fallback.
	ErrNotConfigured = errors.New("executor: not configured; call executor.Init first")
)

var (
	globalMu sync.Mutex
	global   Executor
)

// Init installs the process-wide executor. Returns ErrAlreadySet if a
// different executor is already installed; re-installing the same one
// is a no-op.
func Init(e Executor) error {
	if e == nil {
		return errors.New("executor: Init called with nil executor")
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		if global == e {
			return nil
		}
		return ErrAlreadySet
	}
	global = e
	return nil
}

// Current returns the installed executor, or ErrNotConfigured.
func Current() (Executor, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return nil, ErrNotConfigured
	}
	return global, nil
}

// Reset uninstalls the executor and detaches it from the scheduler.
// Intended for tests.
func Reset() {
	globalMu.Lock()
	global = nil
	globalMu.Unlock()

	weft.SetWakeHook(nil)
}

// Drive installs e and hands it ownership of effect draining: pending
// effects wake the executor instead of flushing inline on the writing
// goroutine. Spawned flushes deduplicate, so a burst of writes still
// coalesces into few flushes.
func Drive(e Executor) error {
	if err := Init(e); err != nil {
		return err
	}

	weft.SetWakeHook(func() {
		e.Spawn(weft.Flush)
	})
	return nil
}
