package weft

import "testing"

func TestOwnerCleanupOrder(t *testing.T) {
	root := NewRoot()
	var order []string

	root.With(func() {
		OnCleanup(func() { order = append(order, "first") })
		OnCleanup(func() { order = append(order, "second") })
		OnCleanup(func() { order = append(order, "third") })
	})

	root.Dispose()

	want := []string{"third", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("cleanup %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestOwnerChildDisposedBeforeParentCleanup(t *testing.T) {
	root := NewRoot()
	var order []string

	root.With(func() {
		OnCleanup(func() { order = append(order, "parent") })

		child := NewOwner(nil)
		child.With(func() {
			OnCleanup(func() { order = append(order, "child") })
		})
	})

	root.Dispose()

	if len(order) != 2 || order[0] != "child" || order[1] != "parent" {
		t.Errorf("expected children disposed before parent cleanups, got %v", order)
	}
}

func TestOwnerDisposeIdempotent(t *testing.T) {
	root := NewRoot()
	count := 0

	root.With(func() {
		OnCleanup(func() { count++ })
	})

	root.Dispose()
	root.Dispose()

	if count != 1 {
		t.Errorf("expected cleanup to run once, got %d", count)
	}
}

func TestOwnerDisposeDetachesEffects(t *testing.T) {
	root := NewRoot()
	count := NewSignal(0)
	runs := 0

	root.With(func() {
		NewEffect(func() Cleanup {
			_ = count.Get()
			runs++
			return nil
		})
	})

	root.Dispose()

	count.Set(1)
	if runs != 1 {
		t.Errorf("effect owned by disposed scope must not run, got %d runs", runs)
	}
}

func TestOwnerDisposeReleasesEdges(t *testing.T) {
	// Go has no strong-count to assert on; the equivalent guarantee is
	// that disposal unlinks both edge directions, so nothing owned by
	// the scope stays reachable through the graph.
	root := NewRoot()
	var s *Signal[int]
	var e *Effect

	root.With(func() {
		s = NewSignal(0)
		e = NewEffect(func() Cleanup {
			_ = s.Get()
			return nil
		})
	})

	if len(s.subs.snapshot()) != 1 {
		t.Fatalf("expected 1 subscriber before dispose, got %d", len(s.subs.snapshot()))
	}

	root.Dispose()

	if len(s.subs.snapshot()) != 0 {
		t.Errorf("expected no subscribers after dispose, got %d", len(s.subs.snapshot()))
	}
	if len(e.sources.snapshot()) != 0 {
		t.Errorf("expected no sources after dispose, got %d", len(e.sources.snapshot()))
	}
}

func TestOwnerNestedCleanupDuringDisposal(t *testing.T) {
	// A cleanup that registers another cleanup on the same owner; the
	// late registration runs in the same disposal pass.
	root := NewRoot()
	nested := false

	root.With(func() {
		OnCleanup(func() {
			root.OnCleanup(func() { nested = true })
		})
	})

	root.Dispose()
	if !nested {
		t.Error("expected nested cleanup to run during disposal")
	}
}

func TestOwnerAdoptAfterDispose(t *testing.T) {
	root := NewRoot()
	root.Dispose()

	cleaned := false
	root.With(func() {
		OnCleanup(func() { cleaned = true })
	})

	if !cleaned {
		t.Error("cleanup registered on a disposed owner should run immediately")
	}
}

func TestOwnerSetRestore(t *testing.T) {
	a := NewRoot()
	b := NewRoot()
	defer a.Dispose()
	defer b.Dispose()

	prev := a.Set()
	if getCurrentOwner() != a {
		t.Fatal("expected a current")
	}

	b.With(func() {
		if getCurrentOwner() != b {
			t.Error("expected b current inside With")
		}
	})

	if getCurrentOwner() != a {
		t.Error("expected a restored after With")
	}

	setCurrentOwner(prev)
}

func TestOwnerChildInheritance(t *testing.T) {
	root := NewRoot()
	var child *Owner

	root.With(func() {
		child = NewOwner(nil)
	})

	if child.Parent() != root {
		t.Error("expected child to adopt the current owner as parent")
	}
	root.Dispose()
}

func TestContextProvideUse(t *testing.T) {
	type theme string

	root := NewRoot()
	defer root.Dispose()

	root.With(func() {
		ProvideContext(theme("dark"))

		child := NewOwner(nil)
		child.With(func() {
			got, ok := UseContext[theme]()
			if !ok {
				t.Fatal("expected context value in child scope")
			}
			if got != "dark" {
				t.Errorf("expected dark, got %s", got)
			}
		})
	})
}

func TestContextShadowing(t *testing.T) {
	type depth int

	root := NewRoot()
	defer root.Dispose()

	root.With(func() {
		ProvideContext(depth(1))

		child := NewOwner(nil)
		child.With(func() {
			ProvideContext(depth(2))

			got, _ := UseContext[depth]()
			if got != 2 {
				t.Errorf("expected inner value 2, got %d", got)
			}
		})

		got, _ := UseContext[depth]()
		if got != 1 {
			t.Errorf("expected outer value 1, got %d", got)
		}
	})
}

func TestContextMissing(t *testing.T) {
	root := NewRoot()
	defer root.Dispose()

	root.With(func() {
		if _, ok := UseContext[float64](); ok {
			t.Error("expected no value for unprovided type")
		}
	})
}
