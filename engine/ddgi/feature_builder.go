package ddgi

import "github.com/Carmen-Shannon/oxy-ddgi/engine/profiler"

// FeatureBuilderOption is a function that configures a Feature during NewFeature.
type FeatureBuilderOption func(*feature)

// WithSettings sets the initial settings.
//
// Parameters:
//   - settings: the settings
//
// Returns:
//   - FeatureBuilderOption: a function that applies the option
func WithSettings(settings Settings) FeatureBuilderOption {
	return func(f *feature) {
		f.settings = settings
	}
}

// WithFeatureProfiler sets the profiler shared by every pass of the feature.
//
// Parameters:
//   - prof: the profiler
//
// Returns:
//   - FeatureBuilderOption: a function that applies the option
func WithFeatureProfiler(prof *profiler.Profiler) FeatureBuilderOption {
	return func(f *feature) {
		f.prof = prof
	}
}

// WithPipelineOptions forwards options to the probe update pipeline.
//
// Parameters:
//   - opts: the pipeline options
//
// Returns:
//   - FeatureBuilderOption: a function that applies the option
func WithPipelineOptions(opts ...ProbeUpdatePipelineBuilderOption) FeatureBuilderOption {
	return func(f *feature) {
		f.pipelineOptions = append(f.pipelineOptions, opts...)
	}
}
