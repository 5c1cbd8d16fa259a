package executor

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/weft-dev/weft/pkg/weft"
)

func TestInitAndCurrent(t *testing.T) {
	defer Reset()

	if _, err := Current(); err != ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}

	s := NewSync()
	if err := Init(s); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	got, err := Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if got != s {
		t.Error("Current returned a different executor")
	}

	// Re-installing the same executor is a no-op
	if err := Init(s); err != nil {
		t.Errorf("re-Init of same executor should succeed, got %v", err)
	}

	// A different one is rejected
	if err := Init(NewSync()); err != ErrAlreadySet {
		t.Errorf("expected ErrAlreadySet, got %v", err)
	}
}

func TestInitNil(t *testing.T) {
	defer Reset()
	if err := Init(nil); err == nil {
		t.Error("expected error for nil executor")
	}
}

func TestSyncInstancesDistinct(t *testing.T) {
	// Init relies on pointer identity; two separately constructed
	// executors must never compare equal.
	if NewSync() == NewSync() {
		t.Error("expected distinct Sync instances to have distinct identity")
	}
}

func TestSyncRunsInline(t *testing.T) {
	s := NewSync()

	ran := false
	s.Spawn(func() { ran = true })
	if !ran {
		t.Error("Spawn should run inline")
	}

	ran = false
	s.SpawnLocal(func() { ran = true })
	if !ran {
		t.Error("SpawnLocal should run inline")
	}

	if s.Tick() != 0 {
		t.Error("Tick should report no deferred work")
	}
}

func TestSerialDefersUntilTick(t *testing.T) {
	s := NewSerial()

	var order []int
	s.Spawn(func() { order = append(order, 1) })
	s.SpawnLocal(func() { order = append(order, 2) })

	if len(order) != 0 {
		t.Fatalf("tasks must not run before Tick, got %v", order)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 queued tasks, got %d", s.Len())
	}

	n := s.Tick()
	if n != 2 {
		t.Errorf("expected 2 tasks run, got %d", n)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("expected submission order, got %v", order)
	}
}

func TestSerialTickFixedPoint(t *testing.T) {
	s := NewSerial()

	// A task that spawns another; one Tick drains both.
	ran := false
	s.Spawn(func() {
		s.Spawn(func() { ran = true })
	})

	if n := s.Tick(); n != 2 {
		t.Errorf("expected 2 tasks in one Tick, got %d", n)
	}
	if !ran {
		t.Error("expected chained task to run")
	}
}

func TestPoolRunsConcurrently(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		p.Spawn(func() {
			defer wg.Done()
			count.Add(1)
		})
	}
	wg.Wait()

	if count.Load() != 100 {
		t.Errorf("expected 100 tasks run, got %d", count.Load())
	}
}

func TestPoolSpawnLocalSerial(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	// Serial tasks never overlap; a shared non-atomic counter is safe.
	counter := 0
	for i := 0; i < 100; i++ {
		p.SpawnLocal(func() { counter++ })
	}
	p.Tick()

	if counter != 100 {
		t.Errorf("expected 100, got %d", counter)
	}
}

func TestPoolTickWaitsForQuiescence(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	done := make(chan struct{})
	p.Spawn(func() { <-done })
	close(done)

	if n := p.Tick(); n < 1 {
		t.Errorf("expected at least 1 completed task, got %d", n)
	}
}

func TestDriveFlushesThroughExecutor(t *testing.T) {
	defer Reset()

	s := NewSerial()
	if err := Drive(s); err != nil {
		t.Fatalf("Drive failed: %v", err)
	}

	count := weft.NewSignal(0)
	runs := 0
	weft.NewEffect(func() weft.Cleanup {
		_ = count.Get()
		runs++
		return nil
	})

	count.Set(1)
	if runs != 1 {
		t.Fatalf("effect must not run before the executor ticks, got %d runs", runs)
	}

	s.Tick()
	if runs != 2 {
		t.Errorf("expected effect run after Tick, got %d runs", runs)
	}
}
