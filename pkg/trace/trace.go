// Package trace records reactive-graph activity as OpenTelemetry
// spans. Effect runs and resource loads become spans on the configured
// tracer; signal writes and memo recomputes are far too frequent for
// spans and are left to the metrics observer.
//
// The tracer uses the global OpenTelemetry tracer provider; configure
// an exporter in main() before installing the observer.
package trace

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/weft-dev/weft/pkg/weft"
)

// Default tracer name for weft instrumentation.
const defaultTracerName = "weft"

// Config configures the trace observer.
type Config struct {
	// TracerName is the name of the tracer (default: "weft").
	TracerName string

	// MinDuration drops spans for runs shorter than this, keeping
	// high-frequency trivial effects out of the trace. Zero records
	// everything.
	MinDuration time.Duration
}

// Option configures the trace observer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithMinDuration sets the minimum run duration worth a span.
func WithMinDuration(d time.Duration) Option {
	return func(c *Config) {
		c.MinDuration = d
	}
}

// Observer is a weft.Observer emitting OpenTelemetry spans.
type Observer struct {
	weft.NoopObserver

	tracer trace.Tracer
	config Config
}

// New creates a trace observer using the global tracer provider.
func New(opts ...Option) *Observer {
	config := Config{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	return &Observer{
		tracer: otel.Tracer(config.TracerName),
		config: config,
	}
}

func (o *Observer) EffectRun(id uint64, elapsed time.Duration) {
	if elapsed < o.config.MinDuration {
		return
	}

	// The run already happened; record it as a completed span.
	end := time.Now()
	_, span := o.tracer.Start(context.Background(), "weft.effect.run",
		trace.WithTimestamp(end.Add(-elapsed)),
		trace.WithAttributes(attribute.Int64("weft.node.id", int64(id))),
	)
	span.End(trace.WithTimestamp(end))
}

func (o *Observer) ResourceLoad(id uint64, elapsed time.Duration, err error) {
	end := time.Now()
	_, span := o.tracer.Start(context.Background(), "weft.resource.load",
		trace.WithTimestamp(end.Add(-elapsed)),
		trace.WithAttributes(attribute.Int64("weft.node.id", int64(id))),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End(trace.WithTimestamp(end))
}

var _ weft.Observer = (*Observer)(nil)
