package light

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
)

// GPUDirectionalLightSource is the canonical WGSL definition of the DirectionalLight struct.
// Matches GPUDirectionalLight layout exactly (32 bytes, std430 aligned).
//
//go:embed assets/directional_light.wgsl
var GPUDirectionalLightSource string

// GPUPunctualLightSource is the canonical WGSL definition of the PunctualLight struct and the
// attenuation helpers the ray kernel evaluates.
// Matches GPUPunctualLight layout exactly (64 bytes, std430 aligned).
//
//go:embed assets/punctual_light.wgsl
var GPUPunctualLightSource string

// GPUDirectionalLight is the GPU-aligned representation of a directional light.
// Size: 32 bytes (std430 / WGSL aligned).
type GPUDirectionalLight struct {
	Direction [4]float32 // offset  0: direction towards the light (-forward), w = 0
	Color     [4]float32 // offset 16: RGB color, w unused
}

// Size returns the size of the GPUDirectionalLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUDirectionalLight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDirectionalLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUDirectionalLight) Marshal() []byte {
	buf := make([]byte, 32)
	common.PutFloat32s(buf, 0, g.Direction[:]...)
	common.PutFloat32s(buf, 16, g.Color[:]...)
	return buf
}

// GPUPunctualLight is the GPU-aligned representation of a point or spot light.
// Size: 64 bytes (std430 / WGSL aligned).
type GPUPunctualLight struct {
	Position      [4]float32 // offset  0: world-space position, w = 1
	Color         [4]float32 // offset 16: RGB color premultiplied by intensity
	Attenuation   [4]float32 // offset 32: x = 1/range^2, y = fade ratio, z/w = spot scale/offset
	SpotDirection [4]float32 // offset 48: -forward for spot lights, w = 0
}

// Size returns the size of the GPUPunctualLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUPunctualLight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPunctualLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPUPunctualLight) Marshal() []byte {
	buf := make([]byte, 64)
	common.PutFloat32s(buf, 0, g.Position[:]...)
	common.PutFloat32s(buf, 16, g.Color[:]...)
	common.PutFloat32s(buf, 32, g.Attenuation[:]...)
	common.PutFloat32s(buf, 48, g.SpotDirection[:]...)
	return buf
}

// MarshalDirectionalLights packs lights into one contiguous buffer. An empty slice still yields
// one zeroed element because zero-sized GPU buffers are invalid.
//
// Parameters:
//   - lights: the lights to pack
//
// Returns:
//   - []byte: max(len(lights), 1) * 32 bytes
func MarshalDirectionalLights(lights []GPUDirectionalLight) []byte {
	var g GPUDirectionalLight
	buf := make([]byte, max(len(lights), 1)*g.Size())
	for i := range lights {
		copy(buf[i*g.Size():], lights[i].Marshal())
	}
	return buf
}

// MarshalPunctualLights packs lights into one contiguous buffer. An empty slice still yields
// one zeroed element because zero-sized GPU buffers are invalid.
//
// Parameters:
//   - lights: the lights to pack
//
// Returns:
//   - []byte: max(len(lights), 1) * 64 bytes
func MarshalPunctualLights(lights []GPUPunctualLight) []byte {
	var g GPUPunctualLight
	buf := make([]byte, max(len(lights), 1)*g.Size())
	for i := range lights {
		copy(buf[i*g.Size():], lights[i].Marshal())
	}
	return buf
}
