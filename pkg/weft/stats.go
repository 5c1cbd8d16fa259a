package weft

import (
	"sync/atomic"
	"time"
)

// Package-wide counters, cheap enough to keep always on. The inspect
// server and the bench CLI read them through Snapshot.
var (
	statSignalsCreated atomic.Int64
	statSignalWrites   atomic.Int64
	statMemosCreated   atomic.Int64
	statMemoRecomputes atomic.Int64
	statEffectsCreated atomic.Int64
	statEffectRuns     atomic.Int64
	statOwnersActive   atomic.Int64
	statOwnersDisposed atomic.Int64
)

// Stats is a point-in-time snapshot of graph activity.
type Stats struct {
	SignalsCreated int64 `json:"signals_created"`
	SignalWrites   int64 `json:"signal_writes"`
	MemosCreated   int64 `json:"memos_created"`
	MemoRecomputes int64 `json:"memo_recomputes"`
	EffectsCreated int64 `json:"effects_created"`
	EffectRuns     int64 `json:"effect_runs"`
	OwnersActive   int64 `json:"owners_active"`
	OwnersDisposed int64 `json:"owners_disposed"`

	CollectedAt time.Time `json:"collected_at"`
}

// Snapshot collects the current graph activity counters.
func Snapshot() Stats {
	return Stats{
		SignalsCreated: statSignalsCreated.Load(),
		SignalWrites:   statSignalWrites.Load(),
		MemosCreated:   statMemosCreated.Load(),
		MemoRecomputes: statMemoRecomputes.Load(),
		EffectsCreated: statEffectsCreated.Load(),
		EffectRuns:     statEffectRuns.Load(),
		OwnersActive:   statOwnersActive.Load(),
		OwnersDisposed: statOwnersDisposed.Load(),
		CollectedAt:    time.Now(),
	}
}
