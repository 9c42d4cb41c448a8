package ddgi

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DebugSphereRadius is the radius of the unscaled debug sphere; ProbeRadius scales it.
	DebugSphereRadius float32 = 0.01

	debugSphereRings    = 12
	debugSphereSegments = 16

	labelVisualizationUniforms = "DDGI Visualization Uniforms"
	labelVisualizationArgs     = "DDGI Visualization Indirect Args"
)

// GenerateSphere builds a UV sphere centered on the origin.
//
// Parameters:
//   - radius: the sphere radius
//   - rings: latitude bands, at least 2
//   - segments: longitude bands, at least 3
//
// Returns:
//   - []float32: xyz positions
//   - []uint32: counter-clockwise triangle indices
func GenerateSphere(radius float32, rings, segments int) ([]float32, []uint32) {
	rings = max(rings, 2)
	segments = max(segments, 3)
	positions := make([]float32, 0, (rings+1)*(segments+1)*3)
	for ring := 0; ring <= rings; ring++ {
		theta := math32.Pi * float32(ring) / float32(rings)
		sinTheta, cosTheta := math32.Sincos(theta)
		for seg := 0; seg <= segments; seg++ {
			phi := 2 * math32.Pi * float32(seg) / float32(segments)
			sinPhi, cosPhi := math32.Sincos(phi)
			positions = append(positions,
				radius*sinTheta*cosPhi,
				radius*cosTheta,
				radius*sinTheta*sinPhi)
		}
	}

	indices := make([]uint32, 0, rings*segments*6)
	stride := uint32(segments + 1)
	for ring := uint32(0); ring < uint32(rings); ring++ {
		for seg := uint32(0); seg < uint32(segments); seg++ {
			a := ring*stride + seg
			b := a + stride
			indices = append(indices, a, a+1, b, b, a+1, b+1)
		}
	}
	return positions, indices
}

// visualizationPass is the implementation of the VisualizationPass interface.
type visualizationPass struct {
	mu *sync.Mutex

	r    renderer.Renderer
	prof *profiler.Profiler

	mesh     bind_group_provider.BindGroupProvider
	bindings bind_group_provider.BindGroupProvider
	uniforms resource.Owned[resource.Buffer]
	args     resource.Owned[resource.Buffer]

	argsInstances int
	argsIndices   int
}

// VisualizationPass draws one sphere per probe, shaded by the probe's irradiance, distance or
// relocation offset. It only reads update pipeline state.
type VisualizationPass interface {
	// Initialize uploads the debug sphere and allocates the uniform and indirect buffers.
	//
	// Returns:
	//   - error: an error if allocation fails
	Initialize() error

	// Render draws the probes into frame.Target. It does nothing when the mesh or pipeline is
	// missing, settings are inactive, probe debugging is off, or the volume is uninitialized.
	//
	// Parameters:
	//   - ctx: the frame context
	//   - frame: the camera frame
	//   - settings: the settings in effect
	//   - volume: the update pipeline to visualize
	//
	// Returns:
	//   - error: an error if the draw could not be recorded
	Render(ctx context.Context, frame FrameContext, settings Settings, volume ProbeUpdatePipeline) error

	// IndirectArgs returns the last indirect arguments written.
	//
	// Returns:
	//   - DrawIndexedIndirectArgs: index count and probe instance count
	IndirectArgs() DrawIndexedIndirectArgs

	// Release frees the mesh and buffers. Calling it more than once is safe.
	Release()
}

var _ VisualizationPass = &visualizationPass{}

// NewVisualizationPass creates a pass drawing through r. Call Initialize before rendering.
//
// Parameters:
//   - r: the renderer
//   - prof: the profiler spanning each draw, may be nil
//
// Returns:
//   - VisualizationPass: the pass
func NewVisualizationPass(r renderer.Renderer, prof *profiler.Profiler) VisualizationPass {
	if prof == nil {
		prof = profiler.NewProfiler()
	}
	return &visualizationPass{mu: &sync.Mutex{}, r: r, prof: prof}
}

func (v *visualizationPass) Initialize() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mesh != nil {
		return nil
	}

	positions, indices := GenerateSphere(DebugSphereRadius, debugSphereRings, debugSphereSegments)
	mesh := bind_group_provider.NewBindGroupProvider("DDGI Debug Sphere")
	if err := v.r.InitMeshBuffers(mesh, common.SliceToBytes(positions), common.SliceToBytes(indices), len(indices)); err != nil {
		mesh.Release()
		return fmt.Errorf("upload debug sphere: %w", err)
	}

	uniforms, err := v.r.CreateBuffer(resource.BufferDescriptor{
		Label: labelVisualizationUniforms,
		Size:  uint64((&GPUVisualizationUniforms{}).Size()),
		Usage: resource.BufferUsageUniform | resource.BufferUsageCopyDst,
	})
	if err != nil {
		mesh.Release()
		return fmt.Errorf("create %s: %w", labelVisualizationUniforms, err)
	}
	args, err := v.r.CreateBuffer(resource.BufferDescriptor{
		Label: labelVisualizationArgs,
		Size:  20,
		Usage: resource.BufferUsageIndirect | resource.BufferUsageCopyDst,
	})
	if err != nil {
		mesh.Release()
		uniforms.Release()
		return fmt.Errorf("create %s: %w", labelVisualizationArgs, err)
	}

	v.mesh = mesh
	v.uniforms.Reset(uniforms)
	v.args.Reset(args)
	v.bindings = bind_group_provider.NewBindGroupProvider("DDGI Visualization",
		bind_group_provider.WithBuffer(VisualizationBindingUniforms, uniforms))
	v.argsInstances, v.argsIndices = 0, 0
	return nil
}

func (v *visualizationPass) Render(ctx context.Context, frame FrameContext, settings Settings, volume ProbeUpdatePipeline) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.mesh == nil || v.r.Pipeline(PipelineProbeVisualization) == nil {
		return nil
	}
	if !settings.IsActive() || !settings.DebugProbe || volume == nil || !volume.Initialized() || frame.Camera == nil {
		return nil
	}

	res := volume.Resources()
	counts := volume.ProbeCounts()
	flat := counts[0] * counts[1] * counts[2]
	indexCount := v.mesh.IndexCount()
	if flat != v.argsInstances || indexCount != v.argsIndices {
		args := DrawIndexedIndirectArgs{IndexCount: uint32(indexCount), InstanceCount: uint32(flat)}
		v.r.WriteBuffer(v.args.Get(), 0, args.Marshal())
		v.argsInstances, v.argsIndices = flat, indexCount
	}

	uniforms := GPUVisualizationUniforms{
		ViewProjection: frame.Camera.ViewProjectionMatrix(),
		ObjectToWorld:  mgl32.Scale3D(settings.ProbeRadius, settings.ProbeRadius, settings.ProbeRadius),
		DebugMode:      uint32(settings.ProbeDebugMode),
	}
	v.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: v.bindings, Binding: VisualizationBindingUniforms, Data: uniforms.Marshal()},
	})

	v.bindings.SetBuffer(VisualizationBindingConstants, res.Constants())
	v.bindings.SetTexture(VisualizationBindingProbeData, res.ProbeData())
	v.bindings.SetTexture(VisualizationBindingIrradiance, res.Irradiance())
	v.bindings.SetTexture(VisualizationBindingDistance, res.Distance())

	_, end := v.prof.Begin(ctx, PassVisualization,
		attribute.Int("probes", flat),
		attribute.String("mode", settings.ProbeDebugMode.String()))
	if err := v.r.BeginFrame(frame.Target); err != nil {
		end(err)
		logger.For("ddgi").Error("begin visualization frame failed", "err", err)
		return nil
	}
	err := v.r.DrawCallIndirect(PipelineProbeVisualization, v.mesh, v.args.Get(),
		[]bind_group_provider.BindGroupProvider{v.bindings})
	v.r.EndFrame()
	end(err)
	if err != nil {
		return fmt.Errorf("%s: %w", PassVisualization, err)
	}
	return nil
}

func (v *visualizationPass) IndirectArgs() DrawIndexedIndirectArgs {
	v.mu.Lock()
	defer v.mu.Unlock()
	return DrawIndexedIndirectArgs{IndexCount: uint32(v.argsIndices), InstanceCount: uint32(v.argsInstances)}
}

func (v *visualizationPass) Release() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mesh != nil {
		v.mesh.Release()
		v.mesh = nil
	}
	if v.bindings != nil {
		v.bindings.Release()
		v.bindings = nil
	}
	v.uniforms.Release()
	v.args.Release()
	v.argsInstances, v.argsIndices = 0, 0
}
