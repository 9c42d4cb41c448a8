package ddgi

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/accel"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/shader"
)

var (
	//go:embed assets/ray_trace.wgsl
	rayTraceSource string
	//go:embed assets/update_irradiance.wgsl
	updateIrradianceSource string
	//go:embed assets/update_distance.wgsl
	updateDistanceSource string
	//go:embed assets/relocate.wgsl
	relocateSource string
	//go:embed assets/relocate_reset.wgsl
	relocateResetSource string
	//go:embed assets/classify.wgsl
	classifySource string
	//go:embed assets/classify_reset.wgsl
	classifyResetSource string
	//go:embed assets/reduce.wgsl
	reduceSource string
	//go:embed assets/reduce_extra.wgsl
	reduceExtraSource string
	//go:embed assets/probe_debug.wgsl
	probeDebugSource string
)

// Include keys understood by the kernels' //@oxy:include annotations.
const (
	IncludeVolumeConstants shader.AnnotationArg = "volume_constants"
	IncludeVolumeCommon    shader.AnnotationArg = "volume_common"
	IncludeBVH             shader.AnnotationArg = "bvh"
	IncludeDirectional     shader.AnnotationArg = "directional_light"
	IncludePunctual        shader.AnnotationArg = "punctual_light"
)

// NewPreProcessor returns a pre-processor that resolves every include the kernels use.
func NewPreProcessor() shader.PreProcessor {
	return shader.NewPreProcessor(map[shader.AnnotationArg]shader.RegistryEntry{
		IncludeVolumeConstants: {Source: GPUVolumeConstantsSource, Type: "VolumeConstants"},
		IncludeVolumeCommon:    {Source: GPUVolumeCommonSource},
		IncludeBVH:             {Source: accel.GPUBVHSource, Type: "BVHNode"},
		IncludeDirectional:     {Source: light.GPUDirectionalLightSource, Type: "DirectionalLight"},
		IncludePunctual:        {Source: light.GPUPunctualLightSource, Type: "PunctualLight"},
	})
}

var computeSources = map[string]string{
	PipelineRayTrace:         rayTraceSource,
	PipelineUpdateIrradiance: updateIrradianceSource,
	PipelineUpdateDistance:   updateDistanceSource,
	PipelineRelocate:         relocateSource,
	PipelineRelocateReset:    relocateResetSource,
	PipelineClassify:         classifySource,
	PipelineClassifyReset:    classifyResetSource,
	PipelineReduce:           reduceSource,
	PipelineReduceExtra:      reduceExtraSource,
}

// ComputePipelines builds every compute pipeline of the volume, in ComputePipelineKeys order.
//
// Returns:
//   - []pipeline.Pipeline: the unregistered pipelines
//   - error: an error if a kernel fails to pre-process
func ComputePipelines() ([]pipeline.Pipeline, error) {
	out := make([]pipeline.Pipeline, 0, len(ComputePipelineKeys))
	for _, key := range ComputePipelineKeys {
		s, err := shader.NewShader(key, shader.ShaderTypeCompute, computeSources[key],
			shader.WithEntryPoint("main"), shader.WithPreProcessor(NewPreProcessor()))
		if err != nil {
			return nil, fmt.Errorf("build kernel: %w", err)
		}
		out = append(out, pipeline.NewPipeline(key, pipeline.PipelineTypeCompute, pipeline.WithComputeShader(s)))
	}
	return out, nil
}

// VisualizationPipeline builds the probe debug render pipeline. Spheres are depth tested and
// drawn opaque after the host's opaque pass.
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
//   - error: an error if the shader fails to pre-process
func VisualizationPipeline() (pipeline.Pipeline, error) {
	vs, err := shader.NewShader(PipelineProbeVisualization+"/vs", shader.ShaderTypeVertex, probeDebugSource,
		shader.WithEntryPoint("vs_main"), shader.WithPreProcessor(NewPreProcessor()))
	if err != nil {
		return nil, fmt.Errorf("build probe debug vertex shader: %w", err)
	}
	fs, err := shader.NewShader(PipelineProbeVisualization+"/fs", shader.ShaderTypeFragment, probeDebugSource,
		shader.WithEntryPoint("fs_main"), shader.WithPreProcessor(NewPreProcessor()))
	if err != nil {
		return nil, fmt.Errorf("build probe debug fragment shader: %w", err)
	}
	return pipeline.NewPipeline(PipelineProbeVisualization, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithVertexAttributes(pipeline.VertexFormatFloat32x3),
		pipeline.WithDepthTestEnabled(true),
		pipeline.WithDepthWriteEnabled(true),
		pipeline.WithCullMode(pipeline.CullModeBack),
	), nil
}
