package ddgi

// Pipeline keys.
const (
	PipelineRayTrace           = "ddgi/ray_trace"
	PipelineUpdateIrradiance   = "ddgi/update_irradiance"
	PipelineUpdateDistance     = "ddgi/update_distance"
	PipelineRelocate           = "ddgi/relocate"
	PipelineRelocateReset      = "ddgi/relocate_reset"
	PipelineClassify           = "ddgi/classify"
	PipelineClassifyReset      = "ddgi/classify_reset"
	PipelineReduce             = "ddgi/reduce"
	PipelineReduceExtra        = "ddgi/reduce_extra"
	PipelineProbeVisualization = "ddgi/probe_debug"
)

// ComputePipelineKeys lists every compute kernel in dispatch order.
var ComputePipelineKeys = []string{
	PipelineRayTrace,
	PipelineUpdateIrradiance,
	PipelineUpdateDistance,
	PipelineRelocateReset,
	PipelineRelocate,
	PipelineClassifyReset,
	PipelineClassify,
	PipelineReduce,
	PipelineReduceExtra,
}

// Profiling pass names.
const (
	PassRayTrace         = "DDGI Ray Trace Pass"
	PassUpdateIrradiance = "DDGI Update Irradiance Pass"
	PassUpdateDistance   = "DDGI Update Distance Pass"
	PassRelocation       = "DDGI Relocation Pass"
	PassClassification   = "DDGI Classification Pass"
	PassReduction        = "DDGI Variability Reduction Pass"
	PassCopyHistory      = "DDGI Copy History Pass"
	PassVisualization    = "DDGI Probe Visualization Pass"
	PassBeforeOpaque     = "DDGI Before Opaque"
)

// Ray trace bindings.
const (
	RayTraceBindingConstants = iota
	RayTraceBindingNodes
	RayTraceBindingTriangles
	RayTraceBindingDirectionalLights
	RayTraceBindingPunctualLights
	RayTraceBindingIrradiance
	RayTraceBindingDistance
	RayTraceBindingProbeData
	RayTraceBindingSky
	RayTraceBindingRays
)

// Irradiance update bindings.
const (
	IrradianceBindingConstants = iota
	IrradianceBindingRays
	IrradianceBindingHistory
	IrradianceBindingProbeData
	IrradianceBindingOutput
	IrradianceBindingVariability
)

// Distance update bindings.
const (
	DistanceBindingConstants = iota
	DistanceBindingRays
	DistanceBindingHistory
	DistanceBindingProbeData
	DistanceBindingOutput
)

// Relocation and classification bindings. The reset kernels bind no ray buffer and use
// ProbeResetBinding*.
const (
	ProbeBindingConstants = iota
	ProbeBindingRays
	ProbeBindingInput
	ProbeBindingOutput
)

const (
	ProbeResetBindingConstants = iota
	ProbeResetBindingInput
	ProbeResetBindingOutput
)

// Reduction bindings.
const (
	ReduceBindingVariability = iota
	ReduceBindingOutput
)

const (
	ReduceExtraBindingParams = iota
	ReduceExtraBindingInput
	ReduceExtraBindingOutput
)

// Visualization bindings.
const (
	VisualizationBindingUniforms = iota
	VisualizationBindingConstants
	VisualizationBindingProbeData
	VisualizationBindingIrradiance
	VisualizationBindingDistance
)

// Kernel workgroup sizes, matching the @workgroup_size declarations of the kernels.
const (
	RayTraceGroupWidth   = 64
	IrradianceGroupWidth = 8
	DistanceGroupWidth   = 16
)

// Global keywords consumed by the host lit shader.
const (
	KeywordIndirectOnly        = "DDGI_SHOW_INDIRECT_ONLY"
	KeywordPureIndirect        = "DDGI_SHOW_PURE_INDIRECT_RADIANCE"
	KeywordDebugIrradiance     = "DDGI_DEBUG_IRRADIANCE"
	KeywordDebugDistance       = "DDGI_DEBUG_DISTANCE"
	KeywordDebugOffset         = "DDGI_DEBUG_OFFSET"
	KeywordProbeRelocation     = "DDGI_PROBE_RELOCATION"
	KeywordProbeReduction      = "DDGI_PROBE_REDUCTION"
	KeywordProbeClassification = "DDGI_PROBE_CLASSIFICATION"
)

// Volume constant flag bits.
const (
	FlagRelocation uint32 = 1 << iota
	FlagReduction
	FlagClassification
)

// Indirect debug keyword bits.
const (
	DebugShowIndirectOnly uint32 = 1 << iota
	DebugShowPureIndirect
)

// Probe states written by classification into probe data alpha.
const (
	ProbeStateActive   float32 = 0
	ProbeStateInactive float32 = 1
)

// Per-frame shading constants.
const (
	NormalBias         float32 = 0.25
	EnergyPreservation float32 = 0.85
	HistoryBlendWeight float32 = 0.98
)

// Convergence constants.
const (
	// ConvergenceMinSamples is the number of readbacks that must be exceeded before the
	// volume may count as converged.
	ConvergenceMinSamples = 16
)
