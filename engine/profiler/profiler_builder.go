package profiler

import (
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ProfilerBuilderOption is a function that configures a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithUpdateInterval sets how often Tick logs statistics.
//
// Parameters:
//   - d: the interval
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option to a Profiler
func WithUpdateInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithTracer sets the tracer spans are started on.
//
// Parameters:
//   - t: the tracer
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the tracer option to a Profiler
func WithTracer(t trace.Tracer) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.tracer = t
	}
}
