package weft

import "testing"

func TestBatchCoalescesEffectRuns(t *testing.T) {
	first := NewSignal("John")
	last := NewSignal("Doe")

	runs := 0
	var full string
	NewEffect(func() Cleanup {
		full = first.Get() + " " + last.Get()
		runs++
		return nil
	})

	Batch(func() {
		first.Set("Jane")
		last.Set("Smith")
	})

	if runs != 2 {
		t.Errorf("expected one coalesced re-run, got %d total runs", runs)
	}
	if full != "Jane Smith" {
		t.Errorf("expected Jane Smith, got %q", full)
	}
}

func TestBatchReadsSeeWrites(t *testing.T) {
	count := NewSignal(1)

	Batch(func() {
		count.Set(5)
		if count.Get() != 5 {
			t.Errorf("writes must be visible inside the batch, got %d", count.Get())
		}
	})
}

func TestBatchNested(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	NewEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})

	Batch(func() {
		count.Set(1)
		Batch(func() {
			count.Set(2)
		})
		// Inner batch end must not flush; only the outermost does.
		if runs != 1 {
			t.Errorf("inner batch should not flush, got %d runs", runs)
		}
		count.Set(3)
	})

	if runs != 2 {
		t.Errorf("expected single flush at outermost batch end, got %d runs", runs)
	}
	if count.Get() != 3 {
		t.Errorf("expected 3, got %d", count.Get())
	}
}

func TestBatchMemoConsistency(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)
	sum := NewMemo(func() int { return a.Get() + b.Get() })

	var observed []int
	NewEffect(func() Cleanup {
		observed = append(observed, sum.Get())
		return nil
	})

	Batch(func() {
		a.Set(10)
		b.Set(20)
	})

	// Never the intermediate 12.
	want := []int{3, 30}
	if len(observed) != len(want) {
		t.Fatalf("expected %v, got %v", want, observed)
	}
	for i := range want {
		if observed[i] != want[i] {
			t.Errorf("expected %v, got %v", want, observed)
			break
		}
	}
}

func TestUntrackedGet(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	NewEffect(func() Cleanup {
		_ = UntrackedGet(count)
		runs++
		return nil
	})

	count.Set(1)
	if runs != 1 {
		t.Errorf("UntrackedGet should not create an edge, got %d runs", runs)
	}
}

func TestWakeHookDefersFlush(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	NewEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})

	// With a wake hook installed, writes only signal the hook; nothing
	// runs until someone calls Flush.
	woken := 0
	SetWakeHook(func() { woken++ })
	defer SetWakeHook(nil)

	count.Set(1)
	if runs != 1 {
		t.Fatalf("expected deferred run, got %d runs", runs)
	}
	if woken == 0 {
		t.Fatal("expected wake hook call")
	}
	if !HasPendingEffects() {
		t.Fatal("expected a pending effect before flush")
	}

	Flush()
	if runs != 2 {
		t.Errorf("expected run after flush, got %d runs", runs)
	}
	if HasPendingEffects() {
		t.Error("expected empty queue after flush")
	}
}
