package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
)

// ErrPipelineNotFound is returned when a dispatch or draw names a pipeline key that was never registered.
var ErrPipelineNotFound = errors.New("pipeline not found in cache")

// ErrTextureLimit is returned when a texture request exceeds the renderer's texture limits.
var ErrTextureLimit = errors.New("texture exceeds device limits")

const (
	defaultMaxTextureDimension = 8192
	defaultMaxTextureLayers    = 256
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	maxTextureDimension int
	maxTextureLayers    int

	backend RendererBackend
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API designed to simplify GPU work into a streamlined and idiomatic flow.
// The Renderer manages a cache of pipelines and forwards resource creation, compute dispatches,
// copies and draws to its backend. It never owns a window or a swapchain: the host application
// supplies render targets per frame.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves the entire cache of Pipelines.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines registers one or more pipelines by creating the corresponding GPU
	// pipeline objects (render or compute) via the backend, then caching them by PipelineKey.
	// Pipelines whose keys are already registered are skipped to avoid duplicate GPU resource creation.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// CreateTexture allocates a GPU texture. The caller owns the result and must release it.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - resource.Texture: the created texture
	//   - error: an error if creation fails
	CreateTexture(desc resource.TextureDescriptor) (resource.Texture, error)

	// CreateBuffer allocates a GPU buffer. The caller owns the result and must release it.
	//
	// Parameters:
	//   - desc: the buffer descriptor
	//
	// Returns:
	//   - resource.Buffer: the created buffer
	//   - error: an error if creation fails
	CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error)

	// WriteBuffer queues a write of data into buf at offset. Queue writes are ordered before
	// any command submission that follows them.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: the byte offset into buf
	//   - data: the bytes to write
	WriteBuffer(buf resource.Buffer, offset uint64, data []byte)

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Each BufferWrite targets a specific buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// ClearTexture queues a zero fill of every layer of tex.
	//
	// Parameters:
	//   - tex: the texture to clear
	ClearTexture(tex resource.Texture)

	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data and stores them
	// on the given BindGroupProvider for later use in draw calls.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//   - indexCount: the number of indices, used for draw calls
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// BeginComputeFrame creates a single command encoder for batching all compute dispatches
	// and copies within a frame into one GPU submission. Must be paired with EndComputeFrame.
	//
	// Returns:
	//   - error: an error if the command encoder could not be created
	BeginComputeFrame() error

	// DispatchCompute looks up the cached compute Pipeline by key, then encodes a compute pass
	// within the current batched compute frame started by BeginComputeFrame. The provider's
	// bind group is (re)built first when it is dirty or was built for another pipeline.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached compute Pipeline to use
	//   - computeProvider: the BindGroupProvider whose resources are bound at group 0
	//   - workGroupCount: the number of workgroups to dispatch in the x, y, and z dimensions
	//
	// Returns:
	//   - error: ErrPipelineNotFound when the key is unknown, or a bind group creation error
	DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error

	// CopyTexture encodes a full copy of src into dst within the current compute frame.
	// Both textures must share dimensions and format.
	//
	// Parameters:
	//   - src: the source texture
	//   - dst: the destination texture
	CopyTexture(src, dst resource.Texture)

	// Readback encodes a copy of the first texel of src into staging within the current compute
	// frame. After EndComputeFrame submits, staging is mapped asynchronously and the bytes are
	// delivered on the returned channel, which receives exactly one result.
	//
	// Parameters:
	//   - src: the texture to read
	//   - staging: a MapRead | CopyDst buffer of at least 256 bytes
	//
	// Returns:
	//   - <-chan ReadbackResult: the channel the result is delivered on
	Readback(src resource.Texture, staging resource.Buffer) <-chan ReadbackResult

	// EndComputeFrame finishes the batched compute command encoder and submits the resulting
	// command buffer to the GPU queue, then starts any readbacks requested during the frame.
	EndComputeFrame()

	// BeginFrame begins a render pass into the host-supplied target. Must be paired with EndFrame.
	//
	// Parameters:
	//   - target: the attachments to render into
	//
	// Returns:
	//   - error: an error if the command encoder could not be created
	BeginFrame(target RenderTarget) error

	// DrawCallIndirect encodes a single indirect instanced draw command within the current render pass.
	// The index and instance counts are read from the indirectBuffer on the GPU.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - meshProvider: the BindGroupProvider holding vertex and index buffers
	//   - indirectBuffer: the GPU buffer containing DrawIndexedIndirect arguments (20 bytes)
	//   - bindGroups: a slice of BindGroupProviders whose BindGroups will be set on the render pass
	//
	// Returns:
	//   - error: an error if the pipeline is not found
	DrawCallIndirect(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, indirectBuffer resource.Buffer, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	EndFrame()

	// Release releases every cached pipeline and the backend's frame state.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer on top of the given backend.
//
// Parameters:
//   - backend: the GPU backend that creates objects and records commands
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer
func NewRenderer(backend RendererBackend, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:                  &sync.Mutex{},
		pipelineCache:       make(map[string]pipeline.Pipeline),
		maxTextureDimension: defaultMaxTextureDimension,
		maxTextureLayers:    defaultMaxTextureLayers,
		backend:             backend,
	}

	for _, opt := range options {
		opt(r)
	}

	return r
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			if err := r.backend.RegisterComputePipeline(p); err != nil {
				return fmt.Errorf("register compute pipeline %q: %w", key, err)
			}
		case pipeline.PipelineTypeRender:
			if err := r.backend.RegisterRenderPipeline(p); err != nil {
				return fmt.Errorf("register render pipeline %q: %w", key, err)
			}
		}
		r.pipelineCache[key] = p
		logger.For("renderer").Debug("registered pipeline", "key", key)
	}
	return nil
}

func (r *renderer) CreateTexture(desc resource.TextureDescriptor) (resource.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 || desc.Layers <= 0 {
		return nil, fmt.Errorf("texture %q: invalid size %dx%dx%d", desc.Label, desc.Width, desc.Height, desc.Layers)
	}
	if desc.Width > r.maxTextureDimension || desc.Height > r.maxTextureDimension || desc.Layers > r.maxTextureLayers {
		return nil, fmt.Errorf("texture %q %dx%dx%d: %w", desc.Label, desc.Width, desc.Height, desc.Layers, ErrTextureLimit)
	}
	return r.backend.CreateTexture(desc)
}

func (r *renderer) CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("buffer %q: zero size", desc.Label)
	}
	return r.backend.CreateBuffer(desc)
}

func (r *renderer) WriteBuffer(buf resource.Buffer, offset uint64, data []byte) {
	if buf == nil || len(data) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.WriteBuffer(buf, offset, data)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		r.backend.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (r *renderer) ClearTexture(tex resource.Texture) {
	if tex == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.ClearTexture(tex)
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) BeginComputeFrame() error {
	return r.backend.BeginComputeFrame()
}

func (r *renderer) DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.pipelineCache[pipelineKey]
	if !exists {
		return fmt.Errorf("compute pipeline %q: %w", pipelineKey, ErrPipelineNotFound)
	}
	if workGroupCount[0] == 0 || workGroupCount[1] == 0 || workGroupCount[2] == 0 {
		return nil
	}

	return r.backend.DispatchCompute(p, computeProvider, workGroupCount)
}

func (r *renderer) CopyTexture(src, dst resource.Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.CopyTexture(src, dst)
}

func (r *renderer) Readback(src resource.Texture, staging resource.Buffer) <-chan ReadbackResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Readback(src, staging)
}

func (r *renderer) EndComputeFrame() {
	r.backend.EndComputeFrame()
}

func (r *renderer) BeginFrame(target RenderTarget) error {
	return r.backend.BeginFrame(target)
}

func (r *renderer) DrawCallIndirect(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, indirectBuffer resource.Buffer, bindGroups []bind_group_provider.BindGroupProvider) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("render pipeline %q: %w", pipelineKey, ErrPipelineNotFound)
	}

	return r.backend.DrawCallIndirect(p, meshProvider, indirectBuffer, bindGroups)
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.backend.Release()
}
