package wgpu_backend

import (
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// BackendBuilderOption is a functional option applied to the backend during construction via NewBackend.
type BackendBuilderOption func(*wgpuRendererBackendImpl)

// WithColorFormat sets the color attachment format render pipelines are built for.
// It must match the host render target passed to BeginFrame.
//
// Parameters:
//   - format: the color target format
//
// Returns:
//   - BackendBuilderOption: a function that applies the color format option
func WithColorFormat(format wgpu.TextureFormat) BackendBuilderOption {
	return func(b *wgpuRendererBackendImpl) {
		b.colorFormat = format
	}
}

// WithDepthFormat sets the depth attachment format render pipelines are built for.
//
// Parameters:
//   - format: the depth target format
//
// Returns:
//   - BackendBuilderOption: a function that applies the depth format option
func WithDepthFormat(format wgpu.TextureFormat) BackendBuilderOption {
	return func(b *wgpuRendererBackendImpl) {
		b.depthFormat = format
	}
}

// WithMSAA sets the sample count of the host render pass. When not specified, the default is MSAA4x.
//
// Parameters:
//   - count: the MSAASampleCount of the host color attachment
//
// Returns:
//   - BackendBuilderOption: a function that applies the MSAA option
func WithMSAA(count renderer.MSAASampleCount) BackendBuilderOption {
	return func(b *wgpuRendererBackendImpl) {
		b.sampleCount = count
	}
}

// WithReadbackWorkers sets how many workers poll the device for completed buffer maps.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - BackendBuilderOption: a function that applies the worker count option
func WithReadbackWorkers(n int) BackendBuilderOption {
	return func(b *wgpuRendererBackendImpl) {
		b.readbackWorkers = max(1, n)
	}
}
