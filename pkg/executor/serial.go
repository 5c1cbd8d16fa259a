package executor

import "sync"

// Serial is a single-threaded cooperative executor: a plain run queue
// drained by Tick. It is the backend for environments without useful
// threads (WASM-style event loops) and for deterministic tests.
//
// Serial never runs tasks on its own; nothing happens until the caller
// ticks.
type Serial struct {
	mu    sync.Mutex
	queue []func()
}

// NewSerial creates an empty serial executor.
func NewSerial() *Serial {
	return &Serial{}
}

// Spawn queues fn. On a single-threaded executor Spawn and SpawnLocal
// are the same operation.
func (s *Serial) Spawn(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
}

// SpawnLocal queues fn.
func (s *Serial) SpawnLocal(fn func()) {
	s.Spawn(fn)
}

// Tick drains the queue to a fixed point: tasks enqueued by running
// tasks run within the same tick. Returns the number of tasks run.
func (s *Serial) Tick() int {
	ran := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return ran
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		fn()
		ran++
	}
}

// Len reports the number of queued tasks.
func (s *Serial) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

var _ Executor = (*Serial)(nil)
