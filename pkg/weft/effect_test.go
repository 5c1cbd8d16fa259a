package weft

import "testing"

func TestEffectRunsImmediately(t *testing.T) {
	runs := 0
	count := NewSignal(0)

	NewEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})

	if runs != 1 {
		t.Errorf("expected immediate run, got %d", runs)
	}
}

func TestEffectRerunsOnWrite(t *testing.T) {
	var seen []int
	count := NewSignal(0)

	NewEffect(func() Cleanup {
		seen = append(seen, count.Get())
		return nil
	})

	count.Set(1)
	count.Set(2)

	want := []int{0, 1, 2}
	if len(seen) != len(want) {
		t.Fatalf("expected %d runs, got %d: %v", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("run %d: expected %d, got %d", i, want[i], seen[i])
		}
	}
}

func TestEffectSameValueNoRerun(t *testing.T) {
	runs := 0
	count := NewSignal(1)

	NewEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})

	count.Set(1)
	if runs != 1 {
		t.Errorf("same value should not re-run effect, got %d runs", runs)
	}
}

func TestEffectCleanupBetweenRuns(t *testing.T) {
	var log []string
	count := NewSignal(0)

	NewEffect(func() Cleanup {
		n := count.Get()
		log = append(log, "run")
		return func() {
			log = append(log, "cleanup")
			_ = n
		}
	})

	count.Set(1)
	count.Set(2)

	want := []string{"run", "cleanup", "run", "cleanup", "run"}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], log[i])
		}
	}
}

func TestEffectCleanupOnDispose(t *testing.T) {
	cleaned := false
	count := NewSignal(0)

	e := NewEffect(func() Cleanup {
		_ = count.Get()
		return func() { cleaned = true }
	})

	e.Dispose()
	if !cleaned {
		t.Error("expected cleanup on dispose")
	}

	runsBefore := Snapshot().EffectRuns
	count.Set(1)
	if Snapshot().EffectRuns != runsBefore {
		t.Error("disposed effect must not run")
	}
}

func TestEffectThroughMemoCutoff(t *testing.T) {
	runs := 0
	count := NewSignal(1)
	parity := NewMemo(func() int { return count.Get() % 2 })

	NewEffect(func() Cleanup {
		_ = parity.Get()
		runs++
		return nil
	})

	if runs != 1 {
		t.Fatalf("expected 1 initial run, got %d", runs)
	}

	// Value of parity does not change; the effect verifies and skips.
	count.Set(3)
	if runs != 1 {
		t.Errorf("unchanged memo should not re-run effect, got %d runs", runs)
	}

	count.Set(4)
	if runs != 2 {
		t.Errorf("expected re-run on parity change, got %d runs", runs)
	}
}

func TestEffectDiamondRunsOnce(t *testing.T) {
	runs := 0
	count := NewSignal(1)
	left := NewMemo(func() int { return count.Get() + 1 })
	right := NewMemo(func() int { return count.Get() * 10 })

	var last int
	NewEffect(func() Cleanup {
		last = left.Get() + right.Get()
		runs++
		return nil
	})

	count.Set(2)
	if runs != 2 {
		t.Errorf("diamond should re-run effect exactly once per write, got %d total runs", runs)
	}
	if last != 23 {
		t.Errorf("expected consistent view 23, got %d", last)
	}
}

func TestEffectWritesOwnDependency(t *testing.T) {
	// An effect that writes a signal it also reads must converge, not
	// loop: each run that changes the value triggers exactly one more.
	count := NewSignal(0)
	runs := 0

	NewEffect(func() Cleanup {
		runs++
		if count.Get() < 3 {
			count.Set(count.Peek() + 1)
		}
		return nil
	})

	if count.Peek() != 3 {
		t.Errorf("expected convergence at 3, got %d", count.Peek())
	}
	if runs != 4 {
		t.Errorf("expected 4 runs to converge, got %d", runs)
	}
}

func TestEffectDynamicDependencies(t *testing.T) {
	useFirst := NewSignal(true)
	first := NewSignal("a")
	second := NewSignal("b")

	runs := 0
	NewEffect(func() Cleanup {
		runs++
		if useFirst.Get() {
			_ = first.Get()
		} else {
			_ = second.Get()
		}
		return nil
	})

	second.Set("B")
	if runs != 1 {
		t.Fatalf("unread branch should not trigger, got %d runs", runs)
	}

	useFirst.Set(false)
	if runs != 2 {
		t.Fatalf("expected re-run on branch switch, got %d runs", runs)
	}

	first.Set("A")
	if runs != 2 {
		t.Errorf("dropped dependency should not trigger, got %d runs", runs)
	}
}

// scriptedSource is a Source whose poll behavior is driven by the test,
// used to exercise marks that land while an effect is mid-verification.
type scriptedSource struct {
	id    uint64
	calls int
	poll  func(call int) bool
}

func (s *scriptedSource) ID() uint64 { return s.id }

func (s *scriptedSource) UpdateIfNecessary() bool {
	s.calls++
	return s.poll(s.calls)
}

func (s *scriptedSource) attachSubscriber(Subscriber) {}
func (s *scriptedSource) detachSubscriber(Subscriber) {}

func TestEffectCheckMarkDuringVerification(t *testing.T) {
	// A Check mark that lands while the effect is polling its sources
	// must survive the pass: the scheduler verifies again instead of
	// settling to Clean and losing the wake-up.
	runs := 0
	e := NewEffect(func() Cleanup {
		runs++
		return nil
	})

	src := &scriptedSource{id: nextID()}
	src.poll = func(call int) bool {
		if call == 1 {
			e.MarkCheck()
			return false
		}
		e.MarkDirty()
		return true
	}
	e.sources.record(src)

	e.MarkCheck()
	Flush()

	if runs != 2 {
		t.Errorf("expected the surviving mark to force a second verification and run, got %d runs", runs)
	}
}

func TestEffectNestedOwnership(t *testing.T) {
	root := NewRoot()
	var innerCleaned bool
	show := NewSignal(true)

	root.With(func() {
		NewEffect(func() Cleanup {
			if show.Get() {
				// Nodes created during a run belong to the effect's
				// owner and die with it.
				OnCleanup(func() { innerCleaned = true })
			}
			return nil
		})
	})

	root.Dispose()
	if !innerCleaned {
		t.Error("expected nested cleanup to run on owner disposal")
	}
}
