package observability

import (
	"time"

	"github.com/weft-dev/weft/pkg/weft"
)

// MultiObserver fans out graph events to multiple observers.
type MultiObserver struct {
	observers []weft.Observer
}

// NewMultiObserver creates a MultiObserver that forwards events to all
// non-nil observers.
func NewMultiObserver(observers ...weft.Observer) *MultiObserver {
	filtered := make([]weft.Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	return &MultiObserver{observers: filtered}
}

func (m *MultiObserver) SignalWrite(id uint64) {
	for _, obs := range m.observers {
		obs.SignalWrite(id)
	}
}

func (m *MultiObserver) MemoRecompute(id uint64, changed bool, elapsed time.Duration) {
	for _, obs := range m.observers {
		obs.MemoRecompute(id, changed, elapsed)
	}
}

func (m *MultiObserver) EffectRun(id uint64, elapsed time.Duration) {
	for _, obs := range m.observers {
		obs.EffectRun(id, elapsed)
	}
}

func (m *MultiObserver) OwnerDispose(id uint64) {
	for _, obs := range m.observers {
		obs.OwnerDispose(id)
	}
}

func (m *MultiObserver) ResourceLoad(id uint64, elapsed time.Duration, err error) {
	for _, obs := range m.observers {
		obs.ResourceLoad(id, elapsed, err)
	}
}

func (m *MultiObserver) SuspensePending(count int64) {
	for _, obs := range m.observers {
		obs.SuspensePending(count)
	}
}

var _ weft.Observer = (*MultiObserver)(nil)
