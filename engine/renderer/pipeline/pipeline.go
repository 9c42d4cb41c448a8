package pipeline

import (
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/shader"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

// CullMode selects which triangle faces a render pipeline discards.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// VertexFormat identifies the type of a single vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32x2 VertexFormat = iota
	VertexFormatFloat32x3
	VertexFormatFloat32x4
)

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32x2:
		return 8
	case VertexFormatFloat32x3:
		return 12
	case VertexFormatFloat32x4:
		return 16
	}
	return 0
}

// pipeline is the implementation of the Pipeline interface.
// It holds the backend pipeline object and the state needed to create it.
type pipeline struct {
	// pipelineType indicates the type of pipeline this is; compute or render
	pipelineType PipelineType
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// the following shader references are required to be set before registering a pipeline.

	vertexShader, fragmentShader, computeShader shader.Shader

	// native is the backend pipeline object, nil until the renderer registers the pipeline
	native resource.Releaser

	// The following properties are only used for render pipelines.

	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          CullMode
	// vertexAttributes lists the per-vertex attributes of buffer slot 0, in shader location order
	vertexAttributes []VertexFormat
}

// Pipeline describes a GPU pipeline: either a render pipeline (vertex + fragment shaders)
// or a compute pipeline (compute shader), plus the render state used to create it. The
// backend object is attached by the renderer on registration.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex, fragment, or compute)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Native returns the backend pipeline object, or nil if the pipeline has not been registered.
	// The caller is responsible for type asserting the returned value.
	//
	// Returns:
	//   - resource.Releaser: the backend pipeline
	Native() resource.Releaser

	// SetNative attaches the backend pipeline object. Called by the renderer.
	//
	// Parameters:
	//   - native: the backend pipeline
	SetNative(native resource.Releaser)

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// BlendEnabled returns whether alpha blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - CullMode: the cull mode for this pipeline
	CullMode() CullMode

	// VertexAttributes returns the attribute formats of vertex buffer slot 0, in shader location order.
	//
	// Returns:
	//   - []VertexFormat: the attribute formats, empty for pipelines without vertex input
	VertexAttributes() []VertexFormat

	// VertexStride returns the byte stride of vertex buffer slot 0.
	//
	// Returns:
	//   - uint64: the sum of all attribute sizes
	VertexStride() uint64

	// WorkgroupSize returns the compute shader's workgroup size, or [1, 1, 1] for render pipelines.
	//
	// Returns:
	//   - [3]uint32: the workgroup size
	WorkgroupSize() [3]uint32

	// Release releases the backend pipeline object.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface. A PipelineType must be specified and provided upon creation.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified type and configuration
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		pipelineType:      pipelineType,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          CullModeBack,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Native() resource.Releaser {
	return p.native
}

func (p *pipeline) SetNative(native resource.Releaser) {
	p.native = native
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() CullMode {
	return p.cullMode
}

func (p *pipeline) VertexAttributes() []VertexFormat {
	return p.vertexAttributes
}

func (p *pipeline) VertexStride() uint64 {
	var stride uint64
	for _, f := range p.vertexAttributes {
		stride += f.Size()
	}
	return stride
}

func (p *pipeline) WorkgroupSize() [3]uint32 {
	if p.pipelineType != PipelineTypeCompute || p.computeShader == nil {
		return [3]uint32{1, 1, 1}
	}
	return p.computeShader.WorkgroupSize()
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	case shader.ShaderTypeCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) Release() {
	if p.native != nil {
		p.native.Release()
		p.native = nil
	}
}
