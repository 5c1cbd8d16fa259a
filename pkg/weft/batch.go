package weft

// Batch groups multiple signal writes into a single settle. Dirty marks
// produced inside the batch function are collected and deduplicated,
// and dependents are marked once when the outermost batch completes.
// Effects whose sources changed run at most once per settle regardless
// of how many writes touched them.
//
// Batches can be nested; marks only fire when the outermost batch ends.
//
// Example:
//
//	weft.Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	    age.Set(30)
//	})
//	// Dependent effects run once with all three changes
func Batch(fn func()) {
	incrementBatchDepth()

	defer func() {
		if decrementBatchDepth() {
			processPendingMarks()
			settle()
		}
	}()

	fn()
}

// processPendingMarks deduplicates and fires all queued dirty marks.
func processPendingMarks() {
	marks := drainPendingMarks()
	if len(marks) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(marks))
	for _, sub := range marks {
		id := sub.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		sub.MarkDirty()
	}
}

// settle drains scheduled effects unless an executor has taken over
// draining via a wake hook.
func settle() {
	globalScheduler.maybeFlush()
}

// Untracked runs fn without recording dependency edges for any signal
// or memo read inside it. Useful for diagnostic or non-reactive reads
// from within an effect or memo.
//
// Note: for single reads, signal.Peek() is clearer in intent.
func Untracked(fn func()) {
	old := setCurrentSubscriber(nil)
	defer setCurrentSubscriber(old)
	fn()
}

// UntrackedGet reads a signal's value without creating a dependency.
// Convenience equivalent of signal.Peek().
func UntrackedGet[T any](s *Signal[T]) T {
	return s.Peek()
}
