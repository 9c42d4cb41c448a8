package wgpu_backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ensureBindGroup returns the provider's bind group, rebuilding it when a binding changed or
// when it was built against another pipeline's layout. Only the slots the shaders declare in
// the given group are bound; extra provider entries are ignored.
func (b *wgpuRendererBackendImpl) ensureBindGroup(
	provider bind_group_provider.BindGroupProvider,
	pipelineKey string,
	group int,
	layout *wgpu.BindGroupLayout,
	shaders ...shader.Shader,
) (*wgpu.BindGroup, error) {
	if provider == nil {
		return nil, nil
	}
	if !provider.Dirty() && provider.BindGroupPipeline() == pipelineKey {
		if existing, ok := provider.BindGroup().(*releaserFunc); ok {
			return existing.native.(*wgpu.BindGroup), nil
		}
	}

	seen := make(map[int]bool)
	var entries []wgpu.BindGroupEntry
	for _, s := range shaders {
		if s == nil {
			continue
		}
		for _, binding := range s.Bindings() {
			if binding.Group != group || seen[binding.Binding] {
				continue
			}
			seen[binding.Binding] = true

			if buf := provider.Buffer(binding.Binding); buf != nil {
				entries = append(entries, wgpu.BindGroupEntry{
					Binding: uint32(binding.Binding),
					Buffer:  buf.Native().(*wgpu.Buffer),
					Offset:  0,
					Size:    wgpu.WholeSize,
				})
				continue
			}
			if tex, ok := provider.Texture(binding.Binding).(*wgpuTexture); ok && tex != nil {
				entries = append(entries, wgpu.BindGroupEntry{
					Binding:     uint32(binding.Binding),
					TextureView: tex.view,
				})
				continue
			}
			return nil, fmt.Errorf("bind group %q: nothing bound at slot %d (%s)", provider.Label(), binding.Binding, binding.Name)
		}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   common.Coalesce(provider.Label(), pipelineKey),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group %q: %w", provider.Label(), err)
	}
	provider.SetBindGroup(&releaserFunc{native: bindGroup, release: bindGroup.Release}, pipelineKey)
	return bindGroup, nil
}
