package ddgi

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/accel"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/ddgi/volume"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/scene"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.opentelemetry.io/otel/attribute"
)

// Stats counts the work done by a ProbeUpdatePipeline since it was created.
type Stats struct {
	// Frames is the number of Execute calls that did work.
	Frames uint64
	// SkippedFrames is the number of Execute calls made while uninitialized or inactive.
	SkippedFrames uint64
	// ConvergedFrames is the number of frames that skipped tracing because the volume converged.
	ConvergedFrames uint64
	// RaysTraced is the total number of probe rays dispatched.
	RaysTraced uint64
	// Passes is the total number of compute dispatches.
	Passes uint64
	// Readbacks is the number of variability readbacks issued.
	Readbacks uint64
}

// probeUpdatePipeline is the implementation of the ProbeUpdatePipeline interface.
type probeUpdatePipeline struct {
	mu *sync.Mutex

	r         renderer.Renderer
	sc        scene.Scene
	res       *ResourceManager
	conv      *ConvergenceEstimator
	snapshots *light.SnapshotBuilder
	builder   accel.Builder
	prof      *profiler.Profiler
	random    func() float32

	settings    Settings
	initialized bool

	needsHistoryReset        bool
	needsRelocationReset     bool
	needsClassificationReset bool

	rayTrace      bind_group_provider.BindGroupProvider
	irradiance    bind_group_provider.BindGroupProvider
	distance      bind_group_provider.BindGroupProvider
	relocate      bind_group_provider.BindGroupProvider
	relocateReset bind_group_provider.BindGroupProvider
	classify      bind_group_provider.BindGroupProvider
	classifyReset bind_group_provider.BindGroupProvider
	reduce        bind_group_provider.BindGroupProvider
	reduceExtra   []bind_group_provider.BindGroupProvider

	stats Stats
}

// ProbeUpdatePipeline runs the per-frame probe update: ray tracing, irradiance and distance
// blending, probe relocation and classification, and the variability reduction that drives
// convergence.
type ProbeUpdatePipeline interface {
	// SetupForCamera stores the settings for this camera's frame and initializes the volume the
	// first time it is needed.
	//
	// Parameters:
	//   - ctx: the frame context
	//   - settings: the settings in effect for the camera
	//
	// Returns:
	//   - error: an error if resource allocation fails
	SetupForCamera(ctx context.Context, settings Settings) error

	// Initialize computes the volume from the scene bounds and allocates its resources.
	// Degenerate bounds leave the pipeline uninitialized without error.
	//
	// Parameters:
	//   - ctx: the frame context
	//
	// Returns:
	//   - error: an error if resource allocation fails
	Initialize(ctx context.Context) error

	// Execute records one frame of probe updates. It does nothing while uninitialized or when
	// the settings are inactive.
	//
	// Parameters:
	//   - ctx: the frame context, carrying the parent span
	//   - frame: the camera frame
	//
	// Returns:
	//   - error: an error only for programming faults such as an unregistered pipeline
	Execute(ctx context.Context, frame FrameContext) error

	// Reinitialize drops the volume so the next SetupForCamera rebuilds it, resetting history,
	// relocation, classification and convergence.
	Reinitialize()

	// Release frees every GPU resource. Calling it more than once is safe.
	Release()

	// Initialized reports whether the volume is allocated.
	Initialized() bool

	// Converged reports whether the last readbacks found the volume converged.
	Converged() bool

	// Settings returns the settings stored by the last SetupForCamera.
	Settings() Settings

	// ProbeCounts returns the probe grid of the current allocation.
	ProbeCounts() [3]int

	// ProbeData returns the probe offset and state texture, nil while uninitialized.
	ProbeData() resource.Texture

	// Resources returns the resource manager backing the volume.
	Resources() *ResourceManager

	// Convergence returns the convergence estimator.
	Convergence() *ConvergenceEstimator

	// NeedsRelocationReset reports whether the next enabled relocation frame first resets
	// every probe offset.
	NeedsRelocationReset() bool

	// NeedsClassificationReset reports whether the next enabled classification frame first
	// reactivates every probe.
	NeedsClassificationReset() bool

	// Stats returns the work counters.
	Stats() Stats
}

var _ ProbeUpdatePipeline = &probeUpdatePipeline{}

// NewProbeUpdatePipeline creates an uninitialized pipeline for sc. The pipelines it dispatches
// must already be registered on r.
//
// Parameters:
//   - r: the renderer to record through
//   - sc: the scene supplying bounds, geometry, lights and the environment
//   - opts: variadic list of ProbeUpdatePipelineBuilderOption functions
//
// Returns:
//   - ProbeUpdatePipeline: the pipeline
func NewProbeUpdatePipeline(r renderer.Renderer, sc scene.Scene, opts ...ProbeUpdatePipelineBuilderOption) ProbeUpdatePipeline {
	p := &probeUpdatePipeline{
		mu:                       &sync.Mutex{},
		r:                        r,
		sc:                       sc,
		res:                      NewResourceManager(r),
		settings:                 DefaultSettings(),
		needsHistoryReset:        true,
		needsRelocationReset:     true,
		needsClassificationReset: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.snapshots == nil {
		p.snapshots = light.NewSnapshotBuilder()
	}
	if p.builder == nil {
		p.builder = accel.NewBuilder()
	}
	if p.prof == nil {
		p.prof = profiler.NewProfiler()
	}
	if p.random == nil {
		p.random = rand.Float32
	}
	p.conv = NewConvergenceEstimator(p.settings.VariabilityThreshold)
	return p
}

func (p *probeUpdatePipeline) SetupForCamera(ctx context.Context, settings Settings) error {
	p.mu.Lock()
	p.settings = settings.Clamp()
	initialized := p.initialized
	threshold := p.settings.VariabilityThreshold
	p.mu.Unlock()

	p.conv.SetThreshold(threshold)
	if initialized {
		return nil
	}
	return p.Initialize(ctx)
}

func (p *probeUpdatePipeline) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	bounds := p.sc.Bounds(p.settings.UseCustomBounds)
	desc, err := volume.NewDescriptor(bounds, p.settings.ProbeCounts, p.settings.RaysPerProbe)
	if errors.Is(err, volume.ErrDegenerateBounds) {
		logger.For("ddgi").Debug("scene bounds are degenerate, volume stays uninitialized", "bounds", bounds)
		return nil
	}
	if err != nil {
		return fmt.Errorf("describe probe volume: %w", err)
	}
	if err := p.res.Initialize(desc); err != nil {
		return err
	}
	p.buildProvidersLocked()
	p.initialized = true
	logger.For("ddgi").Info("initialized probe volume",
		"origin", desc.Origin,
		"extents", desc.Extents,
		"counts", desc.ProbeCounts,
		"rays", desc.RaysPerProbe)
	return nil
}

func (p *probeUpdatePipeline) buildProvidersLocked() {
	p.releaseProvidersLocked()
	p.rayTrace = bind_group_provider.NewBindGroupProvider("DDGI Ray Trace")
	p.irradiance = bind_group_provider.NewBindGroupProvider("DDGI Update Irradiance")
	p.distance = bind_group_provider.NewBindGroupProvider("DDGI Update Distance")
	p.relocate = bind_group_provider.NewBindGroupProvider("DDGI Relocate")
	p.relocateReset = bind_group_provider.NewBindGroupProvider("DDGI Relocate Reset")
	p.classify = bind_group_provider.NewBindGroupProvider("DDGI Classify")
	p.classifyReset = bind_group_provider.NewBindGroupProvider("DDGI Classify Reset")
	p.reduce = bind_group_provider.NewBindGroupProvider("DDGI Reduce",
		bind_group_provider.WithTexture(ReduceBindingVariability, p.res.Variability()),
		bind_group_provider.WithTexture(ReduceBindingOutput, p.res.VariabilityAverage()),
	)

	chain := volume.ReductionChain(p.res.Descriptor().ProbeCounts)
	p.reduceExtra = make([]bind_group_provider.BindGroupProvider, len(chain)-1)
	for i := range p.reduceExtra {
		p.reduceExtra[i] = bind_group_provider.NewBindGroupProvider(fmt.Sprintf("DDGI Reduce Extra %d", i+1),
			bind_group_provider.WithBuffer(ReduceExtraBindingParams, p.res.ReductionParams(i)),
			bind_group_provider.WithTexture(ReduceExtraBindingInput, p.res.VariabilityAverageScratch()),
			bind_group_provider.WithTexture(ReduceExtraBindingOutput, p.res.VariabilityAverage()),
		)
	}
}

// bindLocked points every provider at the current resources. Providers only rebuild their bind
// group when a slot actually changed.
func (p *probeUpdatePipeline) bindLocked(sky resource.Texture) {
	res := p.res
	p.rayTrace.SetBuffer(RayTraceBindingConstants, res.Constants())
	p.rayTrace.SetBuffer(RayTraceBindingNodes, res.BVHNodes())
	p.rayTrace.SetBuffer(RayTraceBindingTriangles, res.BVHTriangles())
	p.rayTrace.SetBuffer(RayTraceBindingDirectionalLights, res.DirectionalLights())
	p.rayTrace.SetBuffer(RayTraceBindingPunctualLights, res.PunctualLights())
	p.rayTrace.SetTexture(RayTraceBindingIrradiance, res.IrradianceHistory())
	p.rayTrace.SetTexture(RayTraceBindingDistance, res.DistanceHistory())
	p.rayTrace.SetTexture(RayTraceBindingProbeData, res.ProbeData())
	p.rayTrace.SetTexture(RayTraceBindingSky, sky)
	p.rayTrace.SetBuffer(RayTraceBindingRays, res.RayBuffer())

	p.irradiance.SetBuffer(IrradianceBindingConstants, res.Constants())
	p.irradiance.SetBuffer(IrradianceBindingRays, res.RayBuffer())
	p.irradiance.SetTexture(IrradianceBindingHistory, res.IrradianceHistory())
	p.irradiance.SetTexture(IrradianceBindingProbeData, res.ProbeData())
	p.irradiance.SetTexture(IrradianceBindingOutput, res.Irradiance())
	p.irradiance.SetTexture(IrradianceBindingVariability, res.Variability())

	p.distance.SetBuffer(DistanceBindingConstants, res.Constants())
	p.distance.SetBuffer(DistanceBindingRays, res.RayBuffer())
	p.distance.SetTexture(DistanceBindingHistory, res.DistanceHistory())
	p.distance.SetTexture(DistanceBindingProbeData, res.ProbeData())
	p.distance.SetTexture(DistanceBindingOutput, res.Distance())

	for _, pr := range []bind_group_provider.BindGroupProvider{p.relocate, p.classify} {
		pr.SetBuffer(ProbeBindingConstants, res.Constants())
		pr.SetBuffer(ProbeBindingRays, res.RayBuffer())
		pr.SetTexture(ProbeBindingInput, res.ProbeDataScratch())
		pr.SetTexture(ProbeBindingOutput, res.ProbeData())
	}
	for _, pr := range []bind_group_provider.BindGroupProvider{p.relocateReset, p.classifyReset} {
		pr.SetBuffer(ProbeResetBindingConstants, res.Constants())
		pr.SetTexture(ProbeResetBindingInput, res.ProbeDataScratch())
		pr.SetTexture(ProbeResetBindingOutput, res.ProbeData())
	}
}

func (p *probeUpdatePipeline) Execute(ctx context.Context, frame FrameContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized || !p.settings.IsActive() {
		p.stats.SkippedFrames++
		return nil
	}
	p.stats.Frames++
	p.conv.Poll()

	if err := p.r.BeginComputeFrame(); err != nil {
		logger.For("ddgi").Error("begin compute frame failed", "err", err)
		return nil
	}
	defer p.r.EndComputeFrame()

	res := p.res
	desc := res.Descriptor()
	s := p.settings

	if p.needsHistoryReset {
		p.r.ClearTexture(res.IrradianceHistory())
		p.r.ClearTexture(res.DistanceHistory())
		p.needsHistoryReset = false
	}

	snap := p.snapshots.Build(p.sc.Lights(), p.sc.Environment())
	if err := res.WriteLights(snap); err != nil {
		logger.For("ddgi").Error("upload lights failed", "err", err)
	}
	if snap.Changed {
		p.conv.MarkLightingChanged()
	}
	sky := res.FallbackSky()
	if snap.Sky.Mode == light.SkyModeSkyboxCubemap && snap.Sky.Cubemap != nil {
		sky = snap.Sky.Cubemap
	}

	// A lighting change forces a trace this frame even if the estimator still held convergence.
	trace := !p.conv.Converged() || snap.Changed
	var nodeCount int
	if trace {
		bvh, err := p.builder.Build(p.sc.Meshes())
		if err == nil {
			err = res.UploadAccelerationStructure(bvh)
		}
		if err != nil {
			logger.For("ddgi").Error("acceleration structure update failed, skipping trace", "err", err)
			trace = false
		} else {
			nodeCount = len(bvh.Nodes)
		}
	} else {
		p.stats.ConvergedFrames++
	}

	constants := p.constants(desc, snap, nodeCount)
	res.WriteConstants(&constants)
	p.bindLocked(sky)

	flat := desc.ProbeCountFlat()
	counts := desc.ProbeCounts
	tileGroups := [3]int{counts[0], counts[2], counts[1]}

	if trace {
		if err := p.dispatch(ctx, PassRayTrace, PipelineRayTrace, p.rayTrace,
			volume.RayDispatchGroups(desc.RaysPerProbe, flat, RayTraceGroupWidth)); err != nil {
			return err
		}
		p.stats.RaysTraced += uint64(desc.RaysPerProbe * flat)
		if err := p.dispatch(ctx, PassUpdateIrradiance, PipelineUpdateIrradiance, p.irradiance, tileGroups); err != nil {
			return err
		}
		if err := p.dispatch(ctx, PassUpdateDistance, PipelineUpdateDistance, p.distance, tileGroups); err != nil {
			return err
		}
	}

	probeGroups := [3]int{volume.RelocationGroups(flat), 1, 1}
	if err := p.runProbePass(ctx, PassRelocation, s.EnableRelocation, &p.needsRelocationReset,
		PipelineRelocateReset, p.relocateReset, PipelineRelocate, p.relocate, probeGroups); err != nil {
		return err
	}
	if err := p.runProbePass(ctx, PassClassification, s.EnableClassification, &p.needsClassificationReset,
		PipelineClassifyReset, p.classifyReset, PipelineClassify, p.classify, probeGroups); err != nil {
		return err
	}

	if s.EnableVariability {
		if err := p.reduceVariability(ctx, counts); err != nil {
			return err
		}
		if p.conv.Request(p.r, res.VariabilityAverage(), res.Staging()) {
			p.stats.Readbacks++
		}
	} else {
		p.conv.Disable()
	}

	_, end := p.prof.Begin(ctx, PassCopyHistory)
	p.r.CopyTexture(res.Irradiance(), res.IrradianceHistory())
	p.r.CopyTexture(res.Distance(), res.DistanceHistory())
	end(nil)
	return nil
}

// runProbePass applies the enable/reset pattern shared by relocation and classification. While
// enabled, a pending reset runs once before the pass; once disabled, the reset runs a single
// time and re-arms the flag so re-enabling starts clean.
func (p *probeUpdatePipeline) runProbePass(
	ctx context.Context,
	pass string,
	enabled bool,
	needsReset *bool,
	resetKey string,
	resetProvider bind_group_provider.BindGroupProvider,
	key string,
	provider bind_group_provider.BindGroupProvider,
	groups [3]int,
) error {
	res := p.res
	if enabled {
		if *needsReset {
			p.r.CopyTexture(res.ProbeData(), res.ProbeDataScratch())
			if err := p.dispatch(ctx, pass, resetKey, resetProvider, groups); err != nil {
				return err
			}
			*needsReset = false
		}
		p.r.CopyTexture(res.ProbeData(), res.ProbeDataScratch())
		return p.dispatch(ctx, pass, key, provider, groups)
	}
	if !*needsReset {
		p.r.CopyTexture(res.ProbeData(), res.ProbeDataScratch())
		if err := p.dispatch(ctx, pass, resetKey, resetProvider, groups); err != nil {
			return err
		}
		*needsReset = true
	}
	return nil
}

func (p *probeUpdatePipeline) reduceVariability(ctx context.Context, counts [3]int) error {
	chain := volume.ReductionChain(counts)
	if err := p.dispatch(ctx, PassReduction, PipelineReduce, p.reduce, chain[0].Groups); err != nil {
		return err
	}
	for i, pass := range chain[1:] {
		p.r.CopyTexture(p.res.VariabilityAverage(), p.res.VariabilityAverageScratch())
		if err := p.dispatch(ctx, PassReduction, PipelineReduceExtra, p.reduceExtra[i], pass.Groups); err != nil {
			return err
		}
	}
	return nil
}

func (p *probeUpdatePipeline) dispatch(ctx context.Context, pass, key string, provider bind_group_provider.BindGroupProvider, groups [3]int) error {
	_, end := p.prof.Begin(ctx, pass,
		attribute.String("pipeline", key),
		attribute.IntSlice("groups", groups[:]))
	err := p.r.DispatchCompute(key, provider, [3]uint32{uint32(groups[0]), uint32(groups[1]), uint32(groups[2])})
	end(err)
	if err != nil {
		return fmt.Errorf("%s: %w", pass, err)
	}
	p.stats.Passes++
	return nil
}

// constants builds the per-frame uniform. The rotation draws one random value rounded to five
// decimals; disabling rotation pins the axis to +Z with no angle.
func (p *probeUpdatePipeline) constants(desc volume.Descriptor, snap light.Snapshot, nodeCount int) GPUVolumeConstants {
	s := p.settings
	axis := mgl32.Vec3{0, 0, 1}
	var angle float32
	if s.ProbeRotation {
		r := math32.Round(p.random()*1e5) / 1e5
		v := mgl32.Vec3{2*r - 1, 2*r - 1, 2*r - 1}
		if v.Len() > 1e-6 {
			axis = v.Normalize()
		}
		angle = 2 * math32.Pi * r
	}

	start := desc.StartPosition()
	spacing := desc.ProbeSpacing()
	sky := snap.Sky
	return GPUVolumeConstants{
		StartPosition:   start,
		RaysPerProbe:    uint32(desc.RaysPerProbe),
		ProbeSize:       spacing,
		MaxRaysPerProbe: uint32(desc.MaxRaysPerProbe),
		ProbeCounts:     [3]uint32{uint32(desc.ProbeCounts[0]), uint32(desc.ProbeCounts[1]), uint32(desc.ProbeCounts[2])},
		Flags:           s.Flags(),
		RandomRotation:  [4]float32{axis[0], axis[1], axis[2], angle},

		NormalBias:         NormalBias,
		EnergyPreservation: EnergyPreservation,
		HistoryBlendWeight: HistoryBlendWeight,
		IndirectIntensity:  s.IndirectIntensity,

		NormalBiasMultiplier: s.NormalBias,
		ViewBiasMultiplier:   s.ViewBias,
		MinFrontfaceDistance: s.MinFrontfaceDistance,
		BackfaceThreshold:    s.FixedRayBackfaceThreshold,

		DirectionalCount: uint32(len(snap.Directional)),
		PunctualCount:    uint32(len(snap.Punctual)),
		BVHNodeCount:     uint32(nodeCount),
		SkyMode:          uint32(sky.Mode),

		SkyIntensity:   sky.Intensity,
		SkyboxExposure: sky.Exposure,
		SkyboxRotation: sky.Rotation,
		DebugKeywords:  s.DebugKeywordBits(),

		SkyColor:     sky.Sky.Vec4(1),
		EquatorColor: sky.Equator.Vec4(1),
		GroundColor:  sky.Ground.Vec4(1),
		SkyboxTint:   sky.Tint.Vec4(1),
	}
}

func (p *probeUpdatePipeline) Reinitialize() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = false
	p.needsHistoryReset = true
	p.needsRelocationReset = true
	p.needsClassificationReset = true
	p.conv.Reset()
	p.snapshots.Reset()
	p.res.Reinitialize()
	logger.For("ddgi").Info("probe volume marked for reinitialization")
}

func (p *probeUpdatePipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseProvidersLocked()
	p.res.Release()
	p.initialized = false
}

func (p *probeUpdatePipeline) releaseProvidersLocked() {
	for _, pr := range []bind_group_provider.BindGroupProvider{
		p.rayTrace, p.irradiance, p.distance, p.relocate, p.relocateReset,
		p.classify, p.classifyReset, p.reduce,
	} {
		if pr != nil {
			pr.Release()
		}
	}
	for _, pr := range p.reduceExtra {
		pr.Release()
	}
	p.reduceExtra = nil
}

func (p *probeUpdatePipeline) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

func (p *probeUpdatePipeline) Converged() bool {
	return p.conv.Converged()
}

func (p *probeUpdatePipeline) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

func (p *probeUpdatePipeline) ProbeCounts() [3]int {
	return p.res.Descriptor().ProbeCounts
}

func (p *probeUpdatePipeline) ProbeData() resource.Texture {
	return p.res.ProbeData()
}

func (p *probeUpdatePipeline) Resources() *ResourceManager {
	return p.res
}

func (p *probeUpdatePipeline) Convergence() *ConvergenceEstimator {
	return p.conv
}

func (p *probeUpdatePipeline) NeedsRelocationReset() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.needsRelocationReset
}

func (p *probeUpdatePipeline) NeedsClassificationReset() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.needsClassificationReset
}

func (p *probeUpdatePipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
