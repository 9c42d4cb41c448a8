package wgpu_backend

import (
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTexture pairs a texture with the array view every binding uses.
type wgpuTexture struct {
	desc    resource.TextureDescriptor
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

var _ resource.Texture = &wgpuTexture{}

func (t *wgpuTexture) Descriptor() resource.TextureDescriptor {
	return t.desc
}

func (t *wgpuTexture) Native() any {
	return t.texture
}

func (t *wgpuTexture) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

type wgpuBuffer struct {
	desc   resource.BufferDescriptor
	buffer *wgpu.Buffer
}

var _ resource.Buffer = &wgpuBuffer{}

func (b *wgpuBuffer) Descriptor() resource.BufferDescriptor {
	return b.desc
}

func (b *wgpuBuffer) Native() any {
	return b.buffer
}

func (b *wgpuBuffer) Release() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

// releaserFunc adapts wgpu objects that are not textures or buffers (pipelines, bind groups)
// to resource.Releaser so the renderer-neutral packages can hold them.
type releaserFunc struct {
	native  any
	release func()
}

func (r *releaserFunc) Release() {
	if r.release != nil {
		r.release()
		r.release = nil
	}
}

func toTextureFormat(f resource.TextureFormat) wgpu.TextureFormat {
	switch f {
	case resource.TextureFormatRG32Float:
		return wgpu.TextureFormatRG32Float
	case resource.TextureFormatR32Float:
		return wgpu.TextureFormatR32Float
	case resource.TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	default:
		return wgpu.TextureFormatRGBA16Float
	}
}

func toTextureUsage(u resource.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&resource.TextureUsageStorage != 0 {
		out |= wgpu.TextureUsageStorageBinding
	}
	if u&resource.TextureUsageSampled != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&resource.TextureUsageCopySrc != 0 {
		out |= wgpu.TextureUsageCopySrc
	}
	if u&resource.TextureUsageCopyDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	return out
}

func toBufferUsage(u resource.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	mapping := []struct {
		from resource.BufferUsage
		to   wgpu.BufferUsage
	}{
		{resource.BufferUsageStorage, wgpu.BufferUsageStorage},
		{resource.BufferUsageUniform, wgpu.BufferUsageUniform},
		{resource.BufferUsageIndirect, wgpu.BufferUsageIndirect},
		{resource.BufferUsageVertex, wgpu.BufferUsageVertex},
		{resource.BufferUsageIndex, wgpu.BufferUsageIndex},
		{resource.BufferUsageCopySrc, wgpu.BufferUsageCopySrc},
		{resource.BufferUsageCopyDst, wgpu.BufferUsageCopyDst},
		{resource.BufferUsageMapRead, wgpu.BufferUsageMapRead},
	}
	for _, m := range mapping {
		if u&m.from != 0 {
			out |= m.to
		}
	}
	return out
}
