// Package wgpu_backend implements renderer.RendererBackend on WebGPU. The host application owns
// the adapter, device and surface; the backend only borrows the device and queue.
package wgpu_backend

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// readbackRowPitch is the copy row alignment WebGPU requires for texture to buffer copies.
const readbackRowPitch = 256

// maxMapPolls bounds how many blocking device polls a readback waits for its map callback.
const maxMapPolls = 64

type pendingReadback struct {
	staging *wgpu.Buffer
	state   *mapState
	size    uint64
	result  chan renderer.ReadbackResult
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	colorFormat wgpu.TextureFormat
	depthFormat wgpu.TextureFormat
	sampleCount renderer.MSAASampleCount

	// Compute frame state for batching all compute dispatches into a single GPU submission
	computeFrameEncoder *wgpu.CommandEncoder
	pendingReadbacks    []pendingReadback

	// Frame state for draws into the host render target
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder

	readbackWorkers int
	readbackPool    worker.DynamicWorkerPool
	readbackTaskID  int
	staging         *stagingTracker[*wgpu.Buffer]
}

var _ renderer.RendererBackend = &wgpuRendererBackendImpl{}

// NewBackend wraps a host-created device and queue.
//
// Parameters:
//   - device: the WebGPU device
//   - queue: the device's queue
//   - options: variadic list of BackendBuilderOption functions
//
// Returns:
//   - renderer.RendererBackend: the backend, ready to hand to renderer.NewRenderer
func NewBackend(device *wgpu.Device, queue *wgpu.Queue, options ...BackendBuilderOption) renderer.RendererBackend {
	b := &wgpuRendererBackendImpl{
		mu:              &sync.Mutex{},
		device:          device,
		queue:           queue,
		colorFormat:     wgpu.TextureFormatBGRA8Unorm,
		depthFormat:     wgpu.TextureFormatDepth24Plus,
		sampleCount:     renderer.MSAA4x,
		readbackWorkers: 1,
		staging:         newStagingTracker[*wgpu.Buffer](),
	}
	for _, opt := range options {
		opt(b)
	}
	b.readbackPool = worker.NewDynamicWorkerPool(b.readbackWorkers, 256, 1*time.Second)
	return b
}

func (b *wgpuRendererBackendImpl) createShaderModule(s shader.Shader) (*wgpu.ShaderModule, error) {
	return b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.Source(),
		},
	})
}

func (b *wgpuRendererBackendImpl) RegisterComputePipeline(p pipeline.Pipeline) error {
	if p.Shader(shader.ShaderTypeCompute) == nil {
		return errors.New("compute shader must be set to create a compute pipeline")
	}

	computeShader := p.Shader(shader.ShaderTypeCompute)
	s, err := b.createShaderModule(computeShader)
	if err != nil {
		return err
	}
	defer s.Release()

	// Layout is derived from the shader so bind groups are built from GetBindGroupLayout.
	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: p.PipelineKey() + " Compute Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     s,
			EntryPoint: computeShader.EntryPoint(),
		},
	})
	if err != nil {
		return err
	}

	p.SetNative(&releaserFunc{native: created, release: created.Release})
	return nil
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if p.Shader(shader.ShaderTypeVertex) == nil || p.Shader(shader.ShaderTypeFragment) == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	vs, err := b.createShaderModule(vertexShader)
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.createShaderModule(fragmentShader)
	if err != nil {
		return err
	}
	defer fs.Release()

	var vertexLayouts []wgpu.VertexBufferLayout
	if attrs := p.VertexAttributes(); len(attrs) > 0 {
		attributes := make([]wgpu.VertexAttribute, len(attrs))
		var offset uint64
		for i, f := range attrs {
			attributes[i] = wgpu.VertexAttribute{
				Format:         toVertexFormat(f),
				Offset:         offset,
				ShaderLocation: uint32(i),
			}
			offset += f.Size()
		}
		vertexLayouts = []wgpu.VertexBufferLayout{{
			ArrayStride: p.VertexStride(),
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attributes,
		}}
	}

	colorTarget := wgpu.ColorTargetState{
		Format:    b.colorFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if p.BlendEnabled() {
		colorTarget.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}

	depthCompare := wgpu.CompareFunctionLessEqual
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: p.PipelineKey() + " Render Pipeline",
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  toCullMode(p.CullMode()),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            b.depthFormat,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return err
	}

	p.SetNative(&releaserFunc{native: created, release: created.Release})
	return nil
}

func (b *wgpuRendererBackendImpl) CreateTexture(desc resource.TextureDescriptor) (resource.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     toTextureUsage(desc.Usage),
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: uint32(desc.Layers),
		},
		Format:        toTextureFormat(desc.Format),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	// Every binding goes through a 2D array view; the sky cube is indexed per face in the kernels.
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label + " View",
		Format:          toTextureFormat(desc.Format),
		Dimension:       wgpu.TextureViewDimension2DArray,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: uint32(desc.Layers),
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return nil, err
	}

	return &wgpuTexture{desc: desc, texture: tex, view: view}, nil
}

func (b *wgpuRendererBackendImpl) CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             desc.Size,
		Usage:            toBufferUsage(desc.Usage),
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{desc: desc, buffer: buf}, nil
}

func (b *wgpuRendererBackendImpl) WriteBuffer(buf resource.Buffer, offset uint64, data []byte) {
	native, ok := buf.Native().(*wgpu.Buffer)
	if !ok || native == nil {
		return
	}
	b.queue.WriteBuffer(native, offset, data)
}

func (b *wgpuRendererBackendImpl) ClearTexture(tex resource.Texture) {
	native, ok := tex.Native().(*wgpu.Texture)
	if !ok || native == nil {
		return
	}
	desc := tex.Descriptor()
	rowBytes := desc.Width * desc.Format.BytesPerTexel()
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  native,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		make([]byte, desc.ByteSize()),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(rowBytes),
			RowsPerImage: uint32(desc.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: uint32(desc.Layers),
		},
	)
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	if len(vertexData) > 0 {
		buf, err := b.CreateBuffer(resource.BufferDescriptor{
			Label: provider.Label() + " Vertex Buffer",
			Size:  uint64(len(vertexData)),
			Usage: resource.BufferUsageVertex | resource.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		b.WriteBuffer(buf, 0, vertexData)
		provider.SetVertexBuffer(buf)
	}

	if len(indexData) > 0 {
		buf, err := b.CreateBuffer(resource.BufferDescriptor{
			Label: provider.Label() + " Index Buffer",
			Size:  uint64(len(indexData)),
			Usage: resource.BufferUsageIndex | resource.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		b.WriteBuffer(buf, 0, indexData)
		provider.SetIndexBuffer(buf)
	}

	provider.SetIndexCount(indexCount)
	return nil
}

func (b *wgpuRendererBackendImpl) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.computeFrameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackendImpl) DispatchCompute(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return errors.New("dispatch outside of a compute frame")
	}

	native, ok := p.Native().(*releaserFunc)
	if !ok {
		return fmt.Errorf("pipeline %q has no compute pipeline", p.PipelineKey())
	}
	computePipeline := native.native.(*wgpu.ComputePipeline)

	bindGroup, err := b.ensureBindGroup(provider, p.PipelineKey(), 0, computePipeline.GetBindGroupLayout(0), p.Shader(shader.ShaderTypeCompute))
	if err != nil {
		return err
	}

	pass := b.computeFrameEncoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: p.PipelineKey()})
	pass.SetPipeline(computePipeline)
	if bindGroup != nil {
		pass.SetBindGroup(0, bindGroup, nil)
	}
	pass.DispatchWorkgroups(workGroupCount[0], workGroupCount[1], workGroupCount[2])
	pass.End()
	pass.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) CopyTexture(src, dst resource.Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return
	}
	srcTex, ok := src.Native().(*wgpu.Texture)
	if !ok {
		return
	}
	dstTex, ok := dst.Native().(*wgpu.Texture)
	if !ok {
		return
	}
	desc := src.Descriptor()
	b.computeFrameEncoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: srcTex, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyTexture{Texture: dstTex, Aspect: wgpu.TextureAspectAll},
		&wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: uint32(desc.Layers),
		},
	)
}

func (b *wgpuRendererBackendImpl) Readback(src resource.Texture, staging resource.Buffer) <-chan renderer.ReadbackResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make(chan renderer.ReadbackResult, 1)
	srcTex, ok := src.Native().(*wgpu.Texture)
	stagingBuf, bufOk := staging.Native().(*wgpu.Buffer)
	if b.computeFrameEncoder == nil || !ok || !bufOk {
		result <- renderer.ReadbackResult{Err: errors.New("readback requires an open compute frame and backend resources")}
		return result
	}

	b.device.Poll(false, nil)
	state, free := b.staging.acquire(stagingBuf, stagingBuf.Unmap)
	if !free {
		result <- renderer.ReadbackResult{Err: ErrStagingBusy}
		return result
	}

	texelBytes := uint64(src.Descriptor().Format.BytesPerTexel())
	b.computeFrameEncoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{Texture: srcTex, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyBuffer{
			Buffer: stagingBuf,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  readbackRowPitch,
				RowsPerImage: 1,
			},
		},
		&wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)
	b.pendingReadbacks = append(b.pendingReadbacks, pendingReadback{
		staging: stagingBuf,
		state:   state,
		size:    texelBytes,
		result:  result,
	})
	return result
}

func (b *wgpuRendererBackendImpl) EndComputeFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return
	}

	pending := b.pendingReadbacks
	b.pendingReadbacks = nil

	commandBuffer, err := b.computeFrameEncoder.Finish(nil)
	if err != nil {
		b.computeFrameEncoder.Release()
		b.computeFrameEncoder = nil
		for _, pr := range pending {
			b.staging.release(pr.staging, pr.state)
			pr.result <- renderer.ReadbackResult{Err: fmt.Errorf("finish compute frame: %w", err)}
		}
		return
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.computeFrameEncoder.Release()
	b.computeFrameEncoder = nil

	for _, pr := range pending {
		b.mapReadback(pr)
	}
}

// mapReadback maps a submitted staging buffer on the readback pool. The result channel is buffered
// so the worker never blocks on a consumer that stopped listening.
func (b *wgpuRendererBackendImpl) mapReadback(pr pendingReadback) {
	id := b.readbackTaskID
	b.readbackTaskID++
	device := b.device
	b.readbackPool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			status := pr.state.status
			pr.staging.MapAsync(wgpu.MapModeRead, 0, readbackRowPitch, func(s wgpu.BufferMapAsyncStatus) {
				status <- s
			})

			for range maxMapPolls {
				device.Poll(true, nil)
				select {
				case s := <-status:
					if s != wgpu.BufferMapAsyncStatusSuccess {
						b.releaseStaging(pr)
						err := fmt.Errorf("map readback buffer: status %v", s)
						pr.result <- renderer.ReadbackResult{Err: err}
						return nil, err
					}
					mapped := pr.staging.GetMappedRange(0, uint(pr.size))
					data := make([]byte, len(mapped))
					copy(data, mapped)
					pr.staging.Unmap()
					b.releaseStaging(pr)
					pr.result <- renderer.ReadbackResult{Data: data}
					return nil, nil
				default:
				}
			}

			b.mu.Lock()
			b.staging.abandon(pr.staging, pr.state)
			b.mu.Unlock()
			err := errors.New("map readback buffer: callback never fired")
			logger.For("renderer").Error("readback timed out", "polls", maxMapPolls)
			pr.result <- renderer.ReadbackResult{Err: err}
			return nil, err
		},
	})
}

func (b *wgpuRendererBackendImpl) releaseStaging(pr pendingReadback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.staging.release(pr.staging, pr.state)
}

func (b *wgpuRendererBackendImpl) BeginFrame(target renderer.RenderTarget) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		return errors.New("previous frame not yet ended")
	}

	colorView, ok := target.Color.(*wgpu.TextureView)
	if !ok {
		return errors.New("render target color must be a *wgpu.TextureView")
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}

	colorAttachment := wgpu.RenderPassColorAttachment{
		View:    colorView,
		LoadOp:  wgpu.LoadOpLoad,
		StoreOp: wgpu.StoreOpStore,
	}
	if resolve, ok := target.Resolve.(*wgpu.TextureView); ok {
		colorAttachment.ResolveTarget = resolve
	}
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{colorAttachment},
	}
	if depthView, ok := target.Depth.(*wgpu.TextureView); ok {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:         depthView,
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		}
	}

	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(desc)
	return nil
}

func (b *wgpuRendererBackendImpl) DrawCallIndirect(
	p pipeline.Pipeline,
	meshProvider bind_group_provider.BindGroupProvider,
	indirectBuffer resource.Buffer,
	bindGroups []bind_group_provider.BindGroupProvider,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return errors.New("draw outside of a frame")
	}
	native, ok := p.Native().(*releaserFunc)
	if !ok {
		return fmt.Errorf("pipeline %q has no render pipeline", p.PipelineKey())
	}
	renderPipeline := native.native.(*wgpu.RenderPipeline)

	b.framePass.SetPipeline(renderPipeline)
	for i, bg := range bindGroups {
		group, err := b.ensureBindGroup(bg, p.PipelineKey(), i, renderPipeline.GetBindGroupLayout(uint32(i)),
			p.Shader(shader.ShaderTypeVertex), p.Shader(shader.ShaderTypeFragment))
		if err != nil {
			return err
		}
		if group != nil {
			b.framePass.SetBindGroup(uint32(i), group, nil)
		}
	}

	b.framePass.SetVertexBuffer(0, meshProvider.VertexBuffer().Native().(*wgpu.Buffer), 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(meshProvider.IndexBuffer().Native().(*wgpu.Buffer), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexedIndirect(indirectBuffer.Native().(*wgpu.Buffer), 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
		return
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder != nil {
		b.computeFrameEncoder.Release()
		b.computeFrameEncoder = nil
	}
	if b.framePass != nil {
		b.framePass.Release()
		b.framePass = nil
	}
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	for _, pr := range b.pendingReadbacks {
		pr.result <- renderer.ReadbackResult{Err: errors.New("backend released")}
	}
	b.pendingReadbacks = nil
}

func toVertexFormat(f pipeline.VertexFormat) wgpu.VertexFormat {
	switch f {
	case pipeline.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case pipeline.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	default:
		return wgpu.VertexFormatFloat32x3
	}
}

func toCullMode(m pipeline.CullMode) wgpu.CullMode {
	switch m {
	case pipeline.CullModeFront:
		return wgpu.CullModeFront
	case pipeline.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}
