package weft

import (
	"testing"
)

// Counter wiring: one signal, a derived label, and an effect rendering
// it. The canonical smoke test for the whole pipeline.
func TestCounterScenario(t *testing.T) {
	root := NewRoot()
	defer root.Dispose()

	var rendered []string
	root.With(func() {
		count := NewSignal(0)
		label := NewMemo(func() string {
			if count.Get() == 1 {
				return "1 click"
			}
			return "clicks"
		})

		NewEffect(func() Cleanup {
			rendered = append(rendered, label.Get())
			return nil
		})

		count.Set(1)
		count.Set(2)
		count.Set(3) // label stays "clicks"; no render
	})

	want := []string{"clicks", "1 click", "clicks"}
	if len(rendered) != len(want) {
		t.Fatalf("expected %v, got %v", want, rendered)
	}
	for i := range want {
		if rendered[i] != want[i] {
			t.Errorf("render %d: expected %q, got %q", i, want[i], rendered[i])
		}
	}
}

func TestLongChainSinglePass(t *testing.T) {
	src := NewSignal(0)

	recomputes := 0
	prev := func() int { return src.Get() }
	for i := 0; i < 50; i++ {
		p := prev
		m := NewMemo(func() int {
			recomputes++
			return p() + 1
		})
		prev = m.Get
	}

	if prev() != 50 {
		t.Fatalf("expected 50, got %d", prev())
	}

	before := recomputes
	src.Set(10)
	if prev() != 60 {
		t.Errorf("expected 60, got %d", prev())
	}
	if recomputes != before+50 {
		t.Errorf("expected each memo to recompute exactly once, got %d extra", recomputes-before)
	}
}

func TestNodeStateString(t *testing.T) {
	cases := []struct {
		state NodeState
		want  string
	}{
		{StateClean, "Clean"},
		{StateCheck, "Check"},
		{StateDirty, "Dirty"},
	}
	for _, c := range cases {
		if c.state.String() != c.want {
			t.Errorf("expected %s, got %s", c.want, c.state.String())
		}
	}
}

func TestDefaultEquals(t *testing.T) {
	if !defaultEquals(3, 3) {
		t.Error("expected equal ints")
	}
	if defaultEquals(3, 4) {
		t.Error("expected unequal ints")
	}
	if !defaultEquals("a", "a") {
		t.Error("expected equal strings")
	}
	if !defaultEquals([]int{1, 2}, []int{1, 2}) {
		t.Error("expected deep-equal slices")
	}
	if defaultEquals([]int{1, 2}, []int{2, 1}) {
		t.Error("expected unequal slices")
	}
}

func TestStatsSnapshot(t *testing.T) {
	before := Snapshot()

	root := NewRoot()
	root.With(func() {
		s := NewSignal(0)
		m := NewMemo(func() int { return s.Get() + 1 })
		NewEffect(func() Cleanup {
			_ = m.Get()
			return nil
		})
		s.Set(1)
	})
	root.Dispose()

	after := Snapshot()
	if after.SignalsCreated-before.SignalsCreated != 1 {
		t.Errorf("expected 1 signal created, got %d", after.SignalsCreated-before.SignalsCreated)
	}
	if after.SignalWrites-before.SignalWrites != 1 {
		t.Errorf("expected 1 signal write, got %d", after.SignalWrites-before.SignalWrites)
	}
	if after.MemoRecomputes-before.MemoRecomputes != 2 {
		t.Errorf("expected 2 memo recomputes, got %d", after.MemoRecomputes-before.MemoRecomputes)
	}
	if after.EffectRuns-before.EffectRuns != 2 {
		t.Errorf("expected 2 effect runs, got %d", after.EffectRuns-before.EffectRuns)
	}
	if after.OwnersDisposed-before.OwnersDisposed != 1 {
		t.Errorf("expected 1 owner disposed, got %d", after.OwnersDisposed-before.OwnersDisposed)
	}
	if after.CollectedAt.Before(before.CollectedAt) {
		t.Error("expected monotonic collection timestamps")
	}
}
