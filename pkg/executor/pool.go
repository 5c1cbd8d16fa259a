package executor

import (
	"sync"
	"sync/atomic"
)

// Pool is a fixed-size worker-goroutine executor: the native backend
// for server contexts. Spawned tasks run on any worker; SpawnLocal
// tasks run on one dedicated worker in submission order.
type Pool struct {
	tasks chan func()
	local chan func()

	wg        sync.WaitGroup // running workers
	inflight  sync.WaitGroup // submitted but unfinished tasks
	completed atomic.Int64
	closed    atomic.Bool
}

// NewPool starts a pool with the given number of workers (minimum 1)
// plus one dedicated serial worker for SpawnLocal tasks.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := &Pool{
		tasks: make(chan func(), 256),
		local: make(chan func(), 256),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(p.tasks)
	}
	p.wg.Add(1)
	go p.worker(p.local)

	return p
}

func (p *Pool) worker(queue chan func()) {
	defer p.wg.Done()
	for fn := range queue {
		fn()
		p.completed.Add(1)
		p.inflight.Done()
	}
}

// Spawn submits fn to the worker pool. Panics if the pool is closed.
func (p *Pool) Spawn(fn func()) {
	p.inflight.Add(1)
	p.tasks <- fn
}

// SpawnLocal submits fn to the dedicated serial worker.
func (p *Pool) SpawnLocal(fn func()) {
	p.inflight.Add(1)
	p.local <- fn
}

// Tick blocks until every submitted task has finished and returns the
// total number of tasks completed so far.
func (p *Pool) Tick() int {
	p.inflight.Wait()
	return int(p.completed.Load())
}

// Close stops accepting tasks and waits for the workers to drain.
// Safe to call once.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.inflight.Wait()
	close(p.tasks)
	close(p.local)
	p.wg.Wait()
}

var _ Executor = (*Pool)(nil)
