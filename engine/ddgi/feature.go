// Package ddgi implements dynamic diffuse global illumination with a probe volume: a grid of
// probes traces rays each frame, blends the results into octahedral irradiance and distance
// atlases, and exposes them to the host's lit shader.
package ddgi

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/scene"
	"go.opentelemetry.io/otel/attribute"
)

// feature is the implementation of the Feature interface.
type feature struct {
	mu *sync.Mutex

	r        renderer.Renderer
	sc       scene.Scene
	prof     *profiler.Profiler
	settings Settings

	pipelineOptions []ProbeUpdatePipelineBuilderOption

	update ProbeUpdatePipeline
	viz    VisualizationPass
}

// Feature is the host-facing entry point of the probe volume. The host calls BeforeOpaque
// before its opaque pass and AfterOpaque after it, once per camera frame.
type Feature interface {
	// BeforeOpaque sets the volume up for the frame and records the probe update.
	//
	// Parameters:
	//   - ctx: the frame context
	//   - frame: the camera frame
	//
	// Returns:
	//   - error: an error for programming faults or allocation failures
	BeforeOpaque(ctx context.Context, frame FrameContext) error

	// AfterOpaque draws the probe visualization when enabled.
	//
	// Parameters:
	//   - ctx: the frame context
	//   - frame: the camera frame
	//
	// Returns:
	//   - error: an error if the draw could not be recorded
	AfterOpaque(ctx context.Context, frame FrameContext) error

	// Reinitialize rebuilds the volume on the next frame.
	Reinitialize()

	// OnSceneLoaded must be called after the scene's geometry changes wholesale.
	OnSceneLoaded()

	// SetSettings replaces the settings, reinitializing when the volume layout changed.
	//
	// Parameters:
	//   - settings: the new settings, clamped on the way in
	SetSettings(settings Settings)

	// Settings returns the current settings.
	//
	// Returns:
	//   - Settings: the settings
	Settings() Settings

	// Keywords returns the global keywords the host lit shader should enable.
	//
	// Returns:
	//   - []string: the keywords
	Keywords() []string

	// Pipeline returns the probe update pipeline.
	//
	// Returns:
	//   - ProbeUpdatePipeline: the update pipeline
	Pipeline() ProbeUpdatePipeline

	// Release frees every GPU resource. Calling it more than once is safe.
	Release()
}

var _ Feature = &feature{}

// NewFeature builds and registers every pipeline the volume uses, then creates the update and
// visualization passes.
//
// Parameters:
//   - r: the renderer
//   - sc: the scene to light
//   - opts: variadic list of FeatureBuilderOption functions
//
// Returns:
//   - Feature: the feature
//   - error: an error if a pipeline fails to build or register
func NewFeature(r renderer.Renderer, sc scene.Scene, opts ...FeatureBuilderOption) (Feature, error) {
	f := &feature{
		mu:       &sync.Mutex{},
		r:        r,
		sc:       sc,
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.prof == nil {
		f.prof = profiler.NewProfiler()
	}
	f.settings = f.settings.Clamp()

	compute, err := ComputePipelines()
	if err != nil {
		return nil, err
	}
	viz, err := VisualizationPipeline()
	if err != nil {
		return nil, err
	}
	if err := r.RegisterPipelines(append(compute, viz)...); err != nil {
		return nil, fmt.Errorf("register probe volume pipelines: %w", err)
	}

	f.update = NewProbeUpdatePipeline(r, sc, append([]ProbeUpdatePipelineBuilderOption{WithProfiler(f.prof)}, f.pipelineOptions...)...)
	f.viz = NewVisualizationPass(r, f.prof)
	if err := f.viz.Initialize(); err != nil {
		f.update.Release()
		return nil, err
	}
	return f, nil
}

func (f *feature) BeforeOpaque(ctx context.Context, frame FrameContext) (err error) {
	s := f.Settings()
	ctx, end := f.prof.Begin(ctx, PassBeforeOpaque, attribute.Bool("active", s.IsActive()))
	defer func() { end(err) }()

	if !s.IsActive() {
		return nil
	}
	if err := f.update.SetupForCamera(ctx, s); err != nil {
		return err
	}
	return f.update.Execute(ctx, frame)
}

func (f *feature) AfterOpaque(ctx context.Context, frame FrameContext) error {
	return f.viz.Render(ctx, frame, f.Settings(), f.update)
}

func (f *feature) Reinitialize() {
	f.update.Reinitialize()
}

func (f *feature) OnSceneLoaded() {
	logger.For("ddgi").Info("scene loaded, rebuilding probe volume")
	f.Reinitialize()
}

func (f *feature) SetSettings(settings Settings) {
	settings = settings.Clamp()
	f.mu.Lock()
	prev := f.settings
	f.settings = settings
	f.mu.Unlock()
	if RequiresReinitialize(prev, settings) {
		f.Reinitialize()
	}
}

func (f *feature) Settings() Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *feature) Keywords() []string {
	return f.Settings().Keywords()
}

func (f *feature) Pipeline() ProbeUpdatePipeline {
	return f.update
}

func (f *feature) Release() {
	f.viz.Release()
	f.update.Release()
}
