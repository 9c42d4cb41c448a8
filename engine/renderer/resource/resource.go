// Package resource defines backend-neutral handles for GPU textures and buffers along with
// the scoped ownership wrapper used by every component that allocates them.
package resource

// TextureFormat identifies the texel layout of a texture.
type TextureFormat int

const (
	// TextureFormatRGBA16Float stores four half-precision floats per texel (8 bytes).
	TextureFormatRGBA16Float TextureFormat = iota

	// TextureFormatRG32Float stores two single-precision floats per texel (8 bytes).
	TextureFormatRG32Float

	// TextureFormatR32Float stores one single-precision float per texel (4 bytes).
	TextureFormatR32Float

	// TextureFormatRGBA8Unorm stores four normalized bytes per texel (4 bytes).
	TextureFormatRGBA8Unorm
)

// BytesPerTexel returns the storage size of a single texel in this format.
//
// Returns:
//   - int: bytes per texel
func (f TextureFormat) BytesPerTexel() int {
	switch f {
	case TextureFormatRGBA16Float, TextureFormatRG32Float:
		return 8
	case TextureFormatR32Float, TextureFormatRGBA8Unorm:
		return 4
	}
	return 0
}

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA16Float:
		return "rgba16float"
	case TextureFormatRG32Float:
		return "rg32float"
	case TextureFormatR32Float:
		return "r32float"
	case TextureFormatRGBA8Unorm:
		return "rgba8unorm"
	}
	return "unknown"
}

// TextureDimension identifies how the layers of a texture are viewed.
type TextureDimension int

const (
	// TextureDimension2DArray is a layered 2D texture; the probe volume stores its up-axis as layers.
	TextureDimension2DArray TextureDimension = iota

	// TextureDimensionCube is a six-layer cube texture, used for the sky.
	TextureDimensionCube
)

// TextureUsage is a bit set of the ways a texture may be bound or copied.
type TextureUsage uint32

const (
	TextureUsageStorage TextureUsage = 1 << iota
	TextureUsageSampled
	TextureUsageCopySrc
	TextureUsageCopyDst
)

// BufferUsage is a bit set of the ways a buffer may be bound or copied.
type BufferUsage uint32

const (
	BufferUsageStorage BufferUsage = 1 << iota
	BufferUsageUniform
	BufferUsageIndirect
	BufferUsageVertex
	BufferUsageIndex
	BufferUsageCopySrc
	BufferUsageCopyDst
	BufferUsageMapRead
)

// TextureDescriptor describes a texture to be created by the renderer.
type TextureDescriptor struct {
	// Label is a debug name shown in GPU captures and logs.
	Label string
	// Width and Height are the per-layer size in texels.
	Width, Height int
	// Layers is the array layer count (6 for cube textures).
	Layers int
	// Format is the texel format.
	Format TextureFormat
	// Dimension selects the view type created for the texture.
	Dimension TextureDimension
	// Usage lists the allowed bindings and copies.
	Usage TextureUsage
}

// ByteSize returns the total storage of the texture in bytes.
//
// Returns:
//   - int: width * height * layers * bytes per texel
func (d TextureDescriptor) ByteSize() int {
	return d.Width * d.Height * d.Layers * d.Format.BytesPerTexel()
}

// BufferDescriptor describes a buffer to be created by the renderer.
type BufferDescriptor struct {
	// Label is a debug name shown in GPU captures and logs.
	Label string
	// Size is the buffer size in bytes. Zero-sized buffers are invalid.
	Size uint64
	// Usage lists the allowed bindings and copies.
	Usage BufferUsage
}

// Releaser is implemented by every GPU-backed object.
type Releaser interface {
	// Release frees the underlying GPU object. Calling it more than once must be safe.
	Release()
}

// Texture is a handle to a GPU texture created by a renderer backend.
type Texture interface {
	Releaser

	// Descriptor returns the descriptor the texture was created with.
	//
	// Returns:
	//   - TextureDescriptor: the creation descriptor
	Descriptor() TextureDescriptor

	// Native returns the backend object (for example *wgpu.Texture). Callers outside the
	// backend should treat it as opaque.
	//
	// Returns:
	//   - any: the backend texture
	Native() any
}

// Buffer is a handle to a GPU buffer created by a renderer backend.
type Buffer interface {
	Releaser

	// Descriptor returns the descriptor the buffer was created with.
	//
	// Returns:
	//   - BufferDescriptor: the creation descriptor
	Descriptor() BufferDescriptor

	// Native returns the backend object (for example *wgpu.Buffer).
	//
	// Returns:
	//   - any: the backend buffer
	Native() any
}
