package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroup is the backend bind group built from the bound resources, or nil until the Renderer builds it.
	bindGroup resource.Releaser
	// bindGroupPipeline is the pipeline key whose layout bindGroup was built against.
	bindGroupPipeline string
	// dirty is set whenever a binding changes so the Renderer rebuilds the bind group before the next use.
	dirty bool

	// The following maps hold non-owning references. Textures and buffers bound here are owned by
	// whichever component allocated them and must outlive the provider's use in a frame.

	// buffers holds the GPU buffers bound to this provider, keyed by binding index.
	buffers map[int]resource.Buffer
	// textures holds the GPU textures bound to this provider, keyed by binding index.
	textures map[int]resource.Texture

	// The following fields are specific to mesh providers and are owned by the provider.

	vertexBuffer resource.Owned[resource.Buffer]
	indexBuffer  resource.Owned[resource.Buffer]
	// indexCount is the number of indices for draw calls.
	indexCount int
}

// BindGroupProvider describes the GPU resources a single dispatch or draw binds at group 0.
// Components hold a BindGroupProvider per kernel; the Renderer turns the bound resources into
// a backend bind group lazily and rebuilds it whenever a binding changes.
//
// Usage pattern:
//  1. Component creates a BindGroupProvider with a label
//  2. Component binds textures and buffers by slot via SetTexture/SetBuffer
//  3. Renderer.DispatchCompute or Renderer.DrawCallIndirect builds the bind group on first use
//  4. Rebinding a slot (e.g. after the volume is reallocated) marks the provider dirty
type BindGroupProvider interface {
	// Release releases the bind group and any mesh buffers owned by this provider.
	// Bound textures and buffers are borrowed and are not released.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the backend bind group, or nil if it has not been built.
	//
	// Returns:
	//   - resource.Releaser: the backend bind group or nil
	BindGroup() resource.Releaser

	// BindGroupPipeline returns the key of the pipeline the current bind group was built for.
	//
	// Returns:
	//   - string: the pipeline key, empty when no bind group exists
	BindGroupPipeline() string

	// Dirty reports whether a binding changed since the bind group was last built.
	//
	// Returns:
	//   - bool: true if the bind group must be rebuilt
	Dirty() bool

	// SetBindGroup stores a freshly built bind group, releasing the previous one, and clears
	// the dirty flag. Called by the Renderer.
	//
	// Parameters:
	//   - bg: the backend bind group
	//   - pipelineKey: the pipeline whose layout bg matches
	SetBindGroup(bg resource.Releaser, pipelineKey string)

	// Buffer returns the buffer bound at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - resource.Buffer: the buffer or nil
	Buffer(binding int) resource.Buffer

	// Buffers returns every bound buffer keyed by binding index.
	//
	// Returns:
	//   - map[int]resource.Buffer: the bound buffers
	Buffers() map[int]resource.Buffer

	// Texture returns the texture bound at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - resource.Texture: the texture or nil
	Texture(binding int) resource.Texture

	// Textures returns every bound texture keyed by binding index.
	//
	// Returns:
	//   - map[int]resource.Texture: the bound textures
	Textures() map[int]resource.Texture

	// SetBuffer binds buf at binding and marks the provider dirty when the binding changed.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer to bind
	SetBuffer(binding int, buf resource.Buffer)

	// SetTexture binds tex at binding and marks the provider dirty when the binding changed.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tex: the texture to bind
	SetTexture(binding int, tex resource.Texture)

	// VertexBuffer returns the vertex buffer, or nil if not initialized.
	//
	// Returns:
	//   - resource.Buffer: the vertex buffer or nil
	VertexBuffer() resource.Buffer

	// IndexBuffer returns the index buffer, or nil if not initialized.
	//
	// Returns:
	//   - resource.Buffer: the index buffer or nil
	IndexBuffer() resource.Buffer

	// IndexCount returns the number of indices for draw calls.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// SetVertexBuffer takes ownership of the vertex buffer, releasing any previous one.
	//
	// Parameters:
	//   - buf: the created vertex buffer
	SetVertexBuffer(buf resource.Buffer)

	// SetIndexBuffer takes ownership of the index buffer, releasing any previous one.
	//
	// Parameters:
	//   - buf: the created index buffer
	SetIndexBuffer(buf resource.Buffer)

	// SetIndexCount sets the number of indices for draw calls.
	//
	// Parameters:
	//   - count: the index count
	SetIndexCount(count int)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: a debug label for the provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:    label,
		buffers:  make(map[int]resource.Buffer),
		textures: make(map[int]resource.Texture),
		dirty:    true,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() resource.Releaser {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupPipeline() string {
	return p.bindGroupPipeline
}

func (p *bindGroupProvider) Dirty() bool {
	return p.dirty
}

func (p *bindGroupProvider) SetBindGroup(bg resource.Releaser, pipelineKey string) {
	if p.bindGroup != nil {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	p.bindGroupPipeline = pipelineKey
	p.dirty = false
}

func (p *bindGroupProvider) Buffer(binding int) resource.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]resource.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) Texture(binding int) resource.Texture {
	return p.textures[binding]
}

func (p *bindGroupProvider) Textures() map[int]resource.Texture {
	return p.textures
}

func (p *bindGroupProvider) SetBuffer(binding int, buf resource.Buffer) {
	if p.buffers[binding] != buf {
		p.dirty = true
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTexture(binding int, tex resource.Texture) {
	if p.textures[binding] != tex {
		p.dirty = true
	}
	p.textures[binding] = tex
}

func (p *bindGroupProvider) VertexBuffer() resource.Buffer {
	return p.vertexBuffer.Get()
}

func (p *bindGroupProvider) IndexBuffer() resource.Buffer {
	return p.indexBuffer.Get()
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetVertexBuffer(buf resource.Buffer) {
	p.vertexBuffer.Reset(buf)
}

func (p *bindGroupProvider) SetIndexBuffer(buf resource.Buffer) {
	p.indexBuffer.Reset(buf)
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.bindGroupPipeline = ""
	p.dirty = true
	clear(p.buffers)
	clear(p.textures)
	p.vertexBuffer.Release()
	p.indexBuffer.Release()
	p.indexCount = 0
}
