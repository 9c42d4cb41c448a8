package renderer

import (
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
)

// MSAASampleCount controls the number of samples used by the host render pass the
// visualization pipelines draw into. Render pipelines must match it.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// RenderTarget carries the host's attachments for a render pass. The values are backend
// objects (for example *wgpu.TextureView) and are borrowed for the duration of the pass.
type RenderTarget struct {
	// Color is the color attachment view.
	Color any
	// Depth is the depth attachment view; nil disables depth testing for the pass.
	Depth any
	// Resolve is the MSAA resolve target, nil when the color attachment is single-sampled.
	Resolve any
}

// ReadbackResult is delivered once a GPU to CPU copy completes.
type ReadbackResult struct {
	// Data holds the copied bytes, empty when the map failed.
	Data []byte
	// Err is set when the copy or map failed.
	Err error
}

// RendererBackend is the GPU API behind a Renderer. The Renderer owns pipeline caching and
// locking; the backend only translates calls into API objects and commands.
type RendererBackend interface {
	RegisterComputePipeline(p pipeline.Pipeline) error
	RegisterRenderPipeline(p pipeline.Pipeline) error

	CreateTexture(desc resource.TextureDescriptor) (resource.Texture, error)
	CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error)
	WriteBuffer(buf resource.Buffer, offset uint64, data []byte)
	ClearTexture(tex resource.Texture)
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	BeginComputeFrame() error
	DispatchCompute(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error
	CopyTexture(src, dst resource.Texture)
	Readback(src resource.Texture, staging resource.Buffer) <-chan ReadbackResult
	EndComputeFrame()

	BeginFrame(target RenderTarget) error
	DrawCallIndirect(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, indirectBuffer resource.Buffer, bindGroups []bind_group_provider.BindGroupProvider) error
	EndFrame()

	Release()
}
