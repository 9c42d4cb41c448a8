package ddgi

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUVolumeConstantsSource is the canonical WGSL definition of the VolumeConstants struct and
// its flag constants. Matches GPUVolumeConstants layout exactly (192 bytes, uniform aligned).
//
//go:embed assets/volume_constants.wgsl
var GPUVolumeConstantsSource string

// GPUVolumeCommonSource holds the probe indexing, octahedral mapping, ray direction and volume
// sampling functions shared by every kernel.
//
//go:embed assets/volume_common.wgsl
var GPUVolumeCommonSource string

// GPUVolumeConstants is the per-frame uniform block read by every kernel.
// Size: 192 bytes (WGSL uniform aligned).
type GPUVolumeConstants struct {
	StartPosition   [3]float32 // offset   0
	RaysPerProbe    uint32     // offset  12
	ProbeSize       [3]float32 // offset  16
	MaxRaysPerProbe uint32     // offset  28
	ProbeCounts     [3]uint32  // offset  32
	Flags           uint32     // offset  44: FlagRelocation | FlagReduction | FlagClassification
	RandomRotation  [4]float32 // offset  48: xyz axis, w angle in radians

	NormalBias         float32 // offset  64
	EnergyPreservation float32 // offset  68
	HistoryBlendWeight float32 // offset  72
	IndirectIntensity  float32 // offset  76

	NormalBiasMultiplier float32 // offset  80
	ViewBiasMultiplier   float32 // offset  84
	MinFrontfaceDistance float32 // offset  88
	BackfaceThreshold    float32 // offset  92

	DirectionalCount uint32 // offset  96
	PunctualCount    uint32 // offset 100
	BVHNodeCount     uint32 // offset 104
	SkyMode          uint32 // offset 108

	SkyIntensity   float32 // offset 112
	SkyboxExposure float32 // offset 116
	SkyboxRotation float32 // offset 120: degrees about +Y
	DebugKeywords  uint32  // offset 124: DebugShowIndirectOnly | DebugShowPureIndirect

	SkyColor     [4]float32 // offset 128
	EquatorColor [4]float32 // offset 144
	GroundColor  [4]float32 // offset 160
	SkyboxTint   [4]float32 // offset 176
}

// Size returns the size of the GPUVolumeConstants struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (192)
func (g *GPUVolumeConstants) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVolumeConstants struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 192-byte buffer ready for GPU upload
func (g *GPUVolumeConstants) Marshal() []byte {
	buf := make([]byte, 192)
	common.PutFloat32s(buf, 0, g.StartPosition[:]...)
	common.PutUint32s(buf, 12, g.RaysPerProbe)
	common.PutFloat32s(buf, 16, g.ProbeSize[:]...)
	common.PutUint32s(buf, 28, g.MaxRaysPerProbe)
	common.PutUint32s(buf, 32, g.ProbeCounts[:]...)
	common.PutUint32s(buf, 44, g.Flags)
	common.PutFloat32s(buf, 48, g.RandomRotation[:]...)
	common.PutFloat32s(buf, 64, g.NormalBias, g.EnergyPreservation, g.HistoryBlendWeight, g.IndirectIntensity)
	common.PutFloat32s(buf, 80, g.NormalBiasMultiplier, g.ViewBiasMultiplier, g.MinFrontfaceDistance, g.BackfaceThreshold)
	common.PutUint32s(buf, 96, g.DirectionalCount, g.PunctualCount, g.BVHNodeCount, g.SkyMode)
	common.PutFloat32s(buf, 112, g.SkyIntensity, g.SkyboxExposure, g.SkyboxRotation)
	common.PutUint32s(buf, 124, g.DebugKeywords)
	common.PutFloat32s(buf, 128, g.SkyColor[:]...)
	common.PutFloat32s(buf, 144, g.EquatorColor[:]...)
	common.PutFloat32s(buf, 160, g.GroundColor[:]...)
	common.PutFloat32s(buf, 176, g.SkyboxTint[:]...)
	return buf
}

// GPUVisualizationUniforms is the uniform block of the probe debug draw.
// Size: 144 bytes (WGSL uniform aligned).
type GPUVisualizationUniforms struct {
	ViewProjection mgl32.Mat4 // offset   0
	ObjectToWorld  mgl32.Mat4 // offset  64
	DebugMode      uint32     // offset 128
	_              [3]uint32  // offset 132: padding
}

// Size returns the size of the GPUVisualizationUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUVisualizationUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVisualizationUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 144-byte buffer ready for GPU upload
func (g *GPUVisualizationUniforms) Marshal() []byte {
	buf := make([]byte, 144)
	common.PutFloat32s(buf, 0, g.ViewProjection[:]...)
	common.PutFloat32s(buf, 64, g.ObjectToWorld[:]...)
	common.PutUint32s(buf, 128, g.DebugMode)
	return buf
}

// GPUReductionParams tells an extra reduction pass the extent of its input.
// Size: 16 bytes.
type GPUReductionParams struct {
	InputSize [3]uint32 // offset 0
	_         uint32    // offset 12: padding
}

// Marshal serializes the GPUReductionParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPUReductionParams) Marshal() []byte {
	buf := make([]byte, 16)
	common.PutUint32s(buf, 0, g.InputSize[:]...)
	return buf
}

// DrawIndexedIndirectArgs is the argument block of an indexed indirect draw.
// Size: 20 bytes.
type DrawIndexedIndirectArgs struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

// Marshal serializes the arguments into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 20-byte buffer ready for GPU upload
func (a DrawIndexedIndirectArgs) Marshal() []byte {
	buf := make([]byte, 20)
	common.PutUint32s(buf, 0, a.IndexCount, a.InstanceCount, a.FirstIndex, uint32(a.BaseVertex), a.FirstInstance)
	return buf
}
