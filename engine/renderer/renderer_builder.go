package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithTextureLimits sets the largest texture the renderer will ask its backend for. Requests
// beyond either limit fail with ErrTextureLimit before reaching the device. When not specified,
// the WebGPU default limits of 8192 texels per side and 256 array layers apply.
//
// Parameters:
//   - maxDimension: the largest width or height in texels
//   - maxLayers: the largest array layer count
//
// Returns:
//   - RendererBuilderOption: a function that applies the texture limits to a renderer
func WithTextureLimits(maxDimension, maxLayers int) RendererBuilderOption {
	return func(r *renderer) {
		r.maxTextureDimension = maxDimension
		r.maxTextureLayers = maxLayers
	}
}
