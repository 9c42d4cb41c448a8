package ddgi

import (
	"github.com/Carmen-Shannon/oxy-ddgi/engine/accel"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/profiler"
)

// ProbeUpdatePipelineBuilderOption is a function that configures a ProbeUpdatePipeline during
// NewProbeUpdatePipeline.
type ProbeUpdatePipelineBuilderOption func(*probeUpdatePipeline)

// WithProfiler sets the profiler that spans every pass.
//
// Parameters:
//   - prof: the profiler
//
// Returns:
//   - ProbeUpdatePipelineBuilderOption: a function that applies the option
func WithProfiler(prof *profiler.Profiler) ProbeUpdatePipelineBuilderOption {
	return func(p *probeUpdatePipeline) {
		p.prof = prof
	}
}

// WithAccelBuilder sets the builder used for the per-frame acceleration structure.
//
// Parameters:
//   - b: the builder
//
// Returns:
//   - ProbeUpdatePipelineBuilderOption: a function that applies the option
func WithAccelBuilder(b accel.Builder) ProbeUpdatePipelineBuilderOption {
	return func(p *probeUpdatePipeline) {
		p.builder = b
	}
}

// WithSnapshotBuilder sets the light snapshot builder, for example to recognize a different
// skybox cubemap shader.
//
// Parameters:
//   - b: the snapshot builder
//
// Returns:
//   - ProbeUpdatePipelineBuilderOption: a function that applies the option
func WithSnapshotBuilder(b *light.SnapshotBuilder) ProbeUpdatePipelineBuilderOption {
	return func(p *probeUpdatePipeline) {
		p.snapshots = b
	}
}

// WithRandom sets the source of the per-frame ray rotation, returning values in [0, 1).
//
// Parameters:
//   - random: the random source
//
// Returns:
//   - ProbeUpdatePipelineBuilderOption: a function that applies the option
func WithRandom(random func() float32) ProbeUpdatePipelineBuilderOption {
	return func(p *probeUpdatePipeline) {
		p.random = random
	}
}
