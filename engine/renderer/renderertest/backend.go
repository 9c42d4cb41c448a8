// Package renderertest provides an in-memory renderer.RendererBackend that records every call,
// for tests of components that drive the GPU through a renderer.Renderer.
package renderertest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
)

// CommandKind identifies a recorded backend call.
type CommandKind int

const (
	CommandDispatch CommandKind = iota
	CommandCopy
	CommandClear
	CommandReadback
	CommandWriteBuffer
	CommandDraw
)

func (k CommandKind) String() string {
	switch k {
	case CommandDispatch:
		return "dispatch"
	case CommandCopy:
		return "copy"
	case CommandClear:
		return "clear"
	case CommandReadback:
		return "readback"
	case CommandWriteBuffer:
		return "write"
	case CommandDraw:
		return "draw"
	}
	return "unknown"
}

// Command is one recorded call.
type Command struct {
	Kind CommandKind
	// Key is the pipeline key for dispatches and draws.
	Key string
	// Groups is the workgroup count of a dispatch.
	Groups [3]uint32
	// Src and Dst are the texture labels of copies, clears and readbacks.
	Src, Dst string
	// Size is the byte count of a buffer write.
	Size int
}

// Texture is a fake texture that remembers its descriptor.
type Texture struct {
	Desc     resource.TextureDescriptor
	Released bool
}

func (t *Texture) Descriptor() resource.TextureDescriptor { return t.Desc }
func (t *Texture) Native() any                            { return t }
func (t *Texture) Release()                               { t.Released = true }

// Buffer is a fake buffer whose contents follow WriteBuffer calls.
type Buffer struct {
	Desc     resource.BufferDescriptor
	Data     []byte
	Released bool
}

func (b *Buffer) Descriptor() resource.BufferDescriptor { return b.Desc }
func (b *Buffer) Native() any                           { return b }
func (b *Buffer) Release()                              { b.Released = true }

type nativePipeline struct{ released bool }

func (n *nativePipeline) Release() { n.released = true }

// Backend records calls instead of talking to a GPU.
type Backend struct {
	mu sync.Mutex

	// Commands holds every recorded command in submission order.
	Commands []Command
	// Textures and Buffers hold every created resource.
	Textures []*Texture
	Buffers  []*Buffer
	// Frames counts completed compute frames.
	Frames int

	// ReadbackData is returned by Readback. Nil data delivers an empty payload.
	ReadbackData func(src resource.Texture) []byte
	// ReadbackErr, when set, is delivered instead of data.
	ReadbackErr error
	// HoldReadbacks keeps results undelivered until Deliver is called.
	HoldReadbacks bool

	// FailTextureLabel makes CreateTexture fail for the matching label.
	FailTextureLabel string

	inFrame bool
	pending []pendingReadback
	held    []pendingReadback
}

type pendingReadback struct {
	src resource.Texture
	ch  chan renderer.ReadbackResult
}

var _ renderer.RendererBackend = &Backend{}

// NewBackend returns an empty recording backend.
func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) RegisterComputePipeline(p pipeline.Pipeline) error {
	p.SetNative(&nativePipeline{})
	return nil
}

func (b *Backend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	p.SetNative(&nativePipeline{})
	return nil
}

func (b *Backend) CreateTexture(desc resource.TextureDescriptor) (resource.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailTextureLabel != "" && desc.Label == b.FailTextureLabel {
		return nil, fmt.Errorf("create texture %q: injected failure", desc.Label)
	}
	t := &Texture{Desc: desc}
	b.Textures = append(b.Textures, t)
	return t, nil
}

func (b *Backend) CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf := &Buffer{Desc: desc, Data: make([]byte, desc.Size)}
	b.Buffers = append(b.Buffers, buf)
	return buf, nil
}

func (b *Backend) WriteBuffer(buf resource.Buffer, offset uint64, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fb, ok := buf.(*Buffer); ok && int(offset)+len(data) <= len(fb.Data) {
		copy(fb.Data[offset:], data)
	}
	b.Commands = append(b.Commands, Command{Kind: CommandWriteBuffer, Dst: buf.Descriptor().Label, Size: len(data)})
}

func (b *Backend) ClearTexture(tex resource.Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Commands = append(b.Commands, Command{Kind: CommandClear, Dst: tex.Descriptor().Label})
}

func (b *Backend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	vb, _ := b.CreateBuffer(resource.BufferDescriptor{Label: provider.Label() + " Vertex Buffer", Size: uint64(len(vertexData)), Usage: resource.BufferUsageVertex})
	ib, _ := b.CreateBuffer(resource.BufferDescriptor{Label: provider.Label() + " Index Buffer", Size: uint64(len(indexData)), Usage: resource.BufferUsageIndex})
	provider.SetVertexBuffer(vb)
	provider.SetIndexBuffer(ib)
	provider.SetIndexCount(indexCount)
	return nil
}

func (b *Backend) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFrame = true
	return nil
}

func (b *Backend) DispatchCompute(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return fmt.Errorf("dispatch %q outside of a compute frame", p.PipelineKey())
	}
	if provider != nil && (provider.Dirty() || provider.BindGroupPipeline() != p.PipelineKey()) {
		provider.SetBindGroup(&nativePipeline{}, p.PipelineKey())
	}
	b.Commands = append(b.Commands, Command{Kind: CommandDispatch, Key: p.PipelineKey(), Groups: workGroupCount})
	return nil
}

func (b *Backend) CopyTexture(src, dst resource.Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Commands = append(b.Commands, Command{Kind: CommandCopy, Src: src.Descriptor().Label, Dst: dst.Descriptor().Label})
}

func (b *Backend) Readback(src resource.Texture, staging resource.Buffer) <-chan renderer.ReadbackResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan renderer.ReadbackResult, 1)
	b.Commands = append(b.Commands, Command{Kind: CommandReadback, Src: src.Descriptor().Label})
	b.pending = append(b.pending, pendingReadback{src: src, ch: ch})
	return ch
}

func (b *Backend) EndComputeFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFrame = false
	b.Frames++
	pending := b.pending
	b.pending = nil
	if b.HoldReadbacks {
		b.held = append(b.held, pending...)
		return
	}
	for _, pr := range pending {
		b.deliver(pr)
	}
}

// Deliver completes every held readback.
func (b *Backend) Deliver() {
	b.mu.Lock()
	defer b.mu.Unlock()
	held := b.held
	b.held = nil
	for _, pr := range held {
		b.deliver(pr)
	}
}

func (b *Backend) deliver(pr pendingReadback) {
	if b.ReadbackErr != nil {
		pr.ch <- renderer.ReadbackResult{Err: b.ReadbackErr}
		return
	}
	var data []byte
	if b.ReadbackData != nil {
		data = b.ReadbackData(pr.src)
	}
	pr.ch <- renderer.ReadbackResult{Data: data}
}

func (b *Backend) BeginFrame(target renderer.RenderTarget) error {
	return nil
}

func (b *Backend) DrawCallIndirect(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, indirectBuffer resource.Buffer, bindGroups []bind_group_provider.BindGroupProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Commands = append(b.Commands, Command{Kind: CommandDraw, Key: p.PipelineKey(), Src: indirectBuffer.Descriptor().Label})
	return nil
}

func (b *Backend) EndFrame() {}

func (b *Backend) Release() {}

// Dispatches returns the pipeline keys of every recorded dispatch, in order.
func (b *Backend) Dispatches() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var keys []string
	for _, c := range b.Commands {
		if c.Kind == CommandDispatch {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// Filter returns the recorded commands of the given kind, in order.
func (b *Backend) Filter(kind CommandKind) []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Command
	for _, c := range b.Commands {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets every recorded command.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Commands = nil
}

// LiveTextures returns the created textures that were not released.
func (b *Backend) LiveTextures() []*Texture {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*Texture
	for _, t := range b.Textures {
		if !t.Released {
			out = append(out, t)
		}
	}
	return out
}
