// Package observability provides weft.Observer implementations for the
// ambient concerns the engine itself stays out of: structured logging,
// fan-out to several sinks, and a noop default.
package observability

import (
	"log/slog"
	"time"

	"github.com/weft-dev/weft/pkg/weft"
)

// SlogObserver emits graph events to a slog.Logger at debug level.
// Graph events are high-volume; anything above debug would drown a
// production log.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given
// logger, or slog.Default() if nil.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) SignalWrite(id uint64) {
	o.logger.Debug("weft.signal.write", slog.Uint64("id", id))
}

func (o *SlogObserver) MemoRecompute(id uint64, changed bool, elapsed time.Duration) {
	o.logger.Debug("weft.memo.recompute",
		slog.Uint64("id", id),
		slog.Bool("changed", changed),
		slog.Duration("elapsed", elapsed))
}

func (o *SlogObserver) EffectRun(id uint64, elapsed time.Duration) {
	o.logger.Debug("weft.effect.run",
		slog.Uint64("id", id),
		slog.Duration("elapsed", elapsed))
}

func (o *SlogObserver) OwnerDispose(id uint64) {
	o.logger.Debug("weft.owner.dispose", slog.Uint64("id", id))
}

func (o *SlogObserver) ResourceLoad(id uint64, elapsed time.Duration, err error) {
	if err != nil {
		o.logger.Debug("weft.resource.load",
			slog.Uint64("id", id),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
		return
	}
	o.logger.Debug("weft.resource.load",
		slog.Uint64("id", id),
		slog.Duration("elapsed", elapsed))
}

func (o *SlogObserver) SuspensePending(count int64) {
	o.logger.Debug("weft.suspense.pending", slog.Int64("count", count))
}

var _ weft.Observer = (*SlogObserver)(nil)
