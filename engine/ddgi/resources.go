package ddgi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/accel"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/ddgi/volume"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
)

// ErrNotInitialized is returned when GPU resources are requested before Initialize.
var ErrNotInitialized = errors.New("probe volume resources are not initialized")

const (
	stagingBufferSize   = 256
	reductionParamsSize = 16
)

// Texture labels, also used by tests to identify copies and clears.
const (
	LabelIrradiance                = "DDGI Irradiance"
	LabelIrradianceHistory         = "DDGI Irradiance History"
	LabelDistance                  = "DDGI Distance"
	LabelDistanceHistory           = "DDGI Distance History"
	LabelProbeData                 = "DDGI Probe Data"
	LabelProbeDataScratch          = "DDGI Probe Data Scratch"
	LabelVariability               = "DDGI Variability"
	LabelVariabilityAverage        = "DDGI Variability Average"
	LabelVariabilityAverageScratch = "DDGI Variability Average Scratch"
	LabelFallbackSky               = "DDGI Fallback Sky"
	LabelRayBuffer                 = "DDGI Ray Buffer"
	LabelDirectionalLights         = "DDGI Directional Lights"
	LabelPunctualLights            = "DDGI Punctual Lights"
	LabelBVHNodes                  = "DDGI BVH Nodes"
	LabelBVHTriangles              = "DDGI BVH Triangles"
	LabelConstants                 = "DDGI Volume Constants"
	LabelStaging                   = "DDGI Readback Staging"
	LabelReductionParams           = "DDGI Reduction Params"
)

// ResourceManager owns every GPU object of one probe volume. All objects are allocated
// together by Initialize and released together; buffers whose contents can grow are
// recreated on demand and bump BindingVersion.
type ResourceManager struct {
	mu sync.Mutex
	r  renderer.Renderer

	desc        volume.Descriptor
	initialized bool
	needsInit   bool
	generation  uint64
	bindings    uint64

	irradiance                resource.Owned[resource.Texture]
	irradianceHistory         resource.Owned[resource.Texture]
	distance                  resource.Owned[resource.Texture]
	distanceHistory           resource.Owned[resource.Texture]
	probeData                 resource.Owned[resource.Texture]
	probeDataScratch          resource.Owned[resource.Texture]
	variability               resource.Owned[resource.Texture]
	variabilityAverage        resource.Owned[resource.Texture]
	variabilityAverageScratch resource.Owned[resource.Texture]
	fallbackSky               resource.Owned[resource.Texture]

	rays              resource.Owned[resource.Buffer]
	directionalLights resource.Owned[resource.Buffer]
	punctualLights    resource.Owned[resource.Buffer]
	bvhNodes          resource.Owned[resource.Buffer]
	bvhTriangles      resource.Owned[resource.Buffer]
	constants         resource.Owned[resource.Buffer]
	staging           resource.Owned[resource.Buffer]
	reductionParams   []resource.Owned[resource.Buffer]

	directionalCapacity int
	punctualCapacity    int
	nodeCapacity        int
	triangleCapacity    int
}

// NewResourceManager creates an empty manager that allocates through r.
func NewResourceManager(r renderer.Renderer) *ResourceManager {
	return &ResourceManager{r: r}
}

// Initialize releases any previous resources and allocates the full set for desc. On any
// allocation failure the partial set is released and the manager stays uninitialized.
//
// Parameters:
//   - desc: the volume descriptor
//
// Returns:
//   - error: the wrapped allocation error
func (m *ResourceManager) Initialize(desc volume.Descriptor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseLocked()
	if err := m.allocateLocked(desc); err != nil {
		m.releaseLocked()
		return fmt.Errorf("initialize probe volume resources: %w", err)
	}

	m.desc = desc
	m.initialized = true
	m.needsInit = false
	m.generation++
	m.bindings++
	logger.For("ddgi").Info("allocated probe volume resources",
		"probes", desc.ProbeCountFlat(),
		"counts", desc.ProbeCounts,
		"rays", desc.RaysPerProbe,
		"generation", m.generation)
	return nil
}

func (m *ResourceManager) allocateLocked(desc volume.Descriptor) error {
	counts := desc.ProbeCounts
	surfaces := []struct {
		owned  *resource.Owned[resource.Texture]
		label  string
		kind   volume.SurfaceKind
		format resource.TextureFormat
		usage  resource.TextureUsage
	}{
		{&m.irradiance, LabelIrradiance, volume.SurfaceIrradiance, resource.TextureFormatRGBA16Float,
			resource.TextureUsageStorage | resource.TextureUsageSampled | resource.TextureUsageCopySrc | resource.TextureUsageCopyDst},
		{&m.irradianceHistory, LabelIrradianceHistory, volume.SurfaceIrradiance, resource.TextureFormatRGBA16Float,
			resource.TextureUsageSampled | resource.TextureUsageCopySrc | resource.TextureUsageCopyDst},
		{&m.distance, LabelDistance, volume.SurfaceDistance, resource.TextureFormatRG32Float,
			resource.TextureUsageStorage | resource.TextureUsageSampled | resource.TextureUsageCopySrc | resource.TextureUsageCopyDst},
		{&m.distanceHistory, LabelDistanceHistory, volume.SurfaceDistance, resource.TextureFormatRG32Float,
			resource.TextureUsageSampled | resource.TextureUsageCopySrc | resource.TextureUsageCopyDst},
		{&m.probeData, LabelProbeData, volume.SurfaceProbeData, resource.TextureFormatRGBA16Float,
			resource.TextureUsageStorage | resource.TextureUsageSampled | resource.TextureUsageCopySrc | resource.TextureUsageCopyDst},
		{&m.probeDataScratch, LabelProbeDataScratch, volume.SurfaceProbeData, resource.TextureFormatRGBA16Float,
			resource.TextureUsageSampled | resource.TextureUsageCopyDst},
		{&m.variability, LabelVariability, volume.SurfaceVariability, resource.TextureFormatR32Float,
			resource.TextureUsageStorage | resource.TextureUsageSampled},
		{&m.variabilityAverage, LabelVariabilityAverage, volume.SurfaceVariabilityAverage, resource.TextureFormatRG32Float,
			resource.TextureUsageStorage | resource.TextureUsageSampled | resource.TextureUsageCopySrc | resource.TextureUsageCopyDst},
		{&m.variabilityAverageScratch, LabelVariabilityAverageScratch, volume.SurfaceVariabilityAverage, resource.TextureFormatRG32Float,
			resource.TextureUsageSampled | resource.TextureUsageCopyDst},
	}
	for _, s := range surfaces {
		dims := volume.SurfaceDimensions(counts, s.kind)
		tex, err := m.r.CreateTexture(resource.TextureDescriptor{
			Label:     s.label,
			Width:     dims.Width,
			Height:    dims.Height,
			Layers:    dims.Layers,
			Format:    s.format,
			Dimension: resource.TextureDimension2DArray,
			Usage:     s.usage,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", s.label, err)
		}
		s.owned.Reset(tex)
	}

	sky, err := m.r.CreateTexture(resource.TextureDescriptor{
		Label:     LabelFallbackSky,
		Width:     1,
		Height:    1,
		Layers:    6,
		Format:    resource.TextureFormatRGBA8Unorm,
		Dimension: resource.TextureDimensionCube,
		Usage:     resource.TextureUsageSampled | resource.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", LabelFallbackSky, err)
	}
	m.fallbackSky.Reset(sky)
	m.r.ClearTexture(sky)

	buffers := []struct {
		owned *resource.Owned[resource.Buffer]
		label string
		size  uint64
		usage resource.BufferUsage
	}{
		{&m.rays, LabelRayBuffer, uint64(desc.RayCount() * volume.RayRecordBytes), resource.BufferUsageStorage},
		{&m.directionalLights, LabelDirectionalLights, directionalLightSize(), resource.BufferUsageStorage | resource.BufferUsageCopyDst},
		{&m.punctualLights, LabelPunctualLights, punctualLightSize(), resource.BufferUsageStorage | resource.BufferUsageCopyDst},
		{&m.bvhNodes, LabelBVHNodes, accel.GPUNodeSize, resource.BufferUsageStorage | resource.BufferUsageCopyDst},
		{&m.bvhTriangles, LabelBVHTriangles, accel.GPUTriangleSize, resource.BufferUsageStorage | resource.BufferUsageCopyDst},
		{&m.constants, LabelConstants, uint64((&GPUVolumeConstants{}).Size()), resource.BufferUsageUniform | resource.BufferUsageCopyDst},
		{&m.staging, LabelStaging, stagingBufferSize, resource.BufferUsageMapRead | resource.BufferUsageCopyDst},
	}
	for _, b := range buffers {
		buf, err := m.r.CreateBuffer(resource.BufferDescriptor{Label: b.label, Size: b.size, Usage: b.usage})
		if err != nil {
			return fmt.Errorf("%s: %w", b.label, err)
		}
		b.owned.Reset(buf)
	}
	m.directionalCapacity, m.punctualCapacity = 1, 1
	m.nodeCapacity, m.triangleCapacity = 1, 1

	chain := volume.ReductionChain(counts)
	m.reductionParams = make([]resource.Owned[resource.Buffer], len(chain)-1)
	for i, pass := range chain[1:] {
		buf, err := m.r.CreateBuffer(resource.BufferDescriptor{
			Label: fmt.Sprintf("%s %d", LabelReductionParams, i+1),
			Size:  reductionParamsSize,
			Usage: resource.BufferUsageUniform | resource.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%s %d: %w", LabelReductionParams, i+1, err)
		}
		m.reductionParams[i].Reset(buf)
		params := GPUReductionParams{InputSize: [3]uint32{uint32(pass.Input[0]), uint32(pass.Input[1]), uint32(pass.Input[2])}}
		m.r.WriteBuffer(buf, 0, params.Marshal())
	}
	return nil
}

func directionalLightSize() uint64 {
	return uint64((&light.GPUDirectionalLight{}).Size())
}

func punctualLightSize() uint64 {
	return uint64((&light.GPUPunctualLight{}).Size())
}

// Release frees every GPU object. Calling it more than once is safe.
func (m *ResourceManager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

func (m *ResourceManager) releaseLocked() {
	for _, t := range []*resource.Owned[resource.Texture]{
		&m.irradiance, &m.irradianceHistory, &m.distance, &m.distanceHistory,
		&m.probeData, &m.probeDataScratch, &m.variability, &m.variabilityAverage,
		&m.variabilityAverageScratch, &m.fallbackSky,
	} {
		t.Release()
	}
	for _, b := range []*resource.Owned[resource.Buffer]{
		&m.rays, &m.directionalLights, &m.punctualLights, &m.bvhNodes,
		&m.bvhTriangles, &m.constants, &m.staging,
	} {
		b.Release()
	}
	for i := range m.reductionParams {
		m.reductionParams[i].Release()
	}
	m.reductionParams = nil
	m.directionalCapacity, m.punctualCapacity = 0, 0
	m.nodeCapacity, m.triangleCapacity = 0, 0
	m.initialized = false
}

// Reinitialize marks the resources stale. They stay bound until the next Initialize replaces
// them, so a frame in flight never loses its textures.
func (m *ResourceManager) Reinitialize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.needsInit = true
}

// NeedsInitialize reports whether Initialize must run before the next frame.
func (m *ResourceManager) NeedsInitialize() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.initialized || m.needsInit
}

// Initialized reports whether the resource set is allocated.
func (m *ResourceManager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// EnsureLightCapacity grows the light buffers to hold at least the given counts. Buffers never
// shrink and always hold at least one element.
//
// Parameters:
//   - directional: the number of directional lights
//   - punctual: the number of point and spot lights
//
// Returns:
//   - error: ErrNotInitialized or a wrapped allocation error
func (m *ResourceManager) EnsureLightCapacity(directional, punctual int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ErrNotInitialized
	}
	if directional > m.directionalCapacity {
		if err := m.growLocked(&m.directionalLights, LabelDirectionalLights, uint64(directional)*directionalLightSize()); err != nil {
			return err
		}
		m.directionalCapacity = directional
	}
	if punctual > m.punctualCapacity {
		if err := m.growLocked(&m.punctualLights, LabelPunctualLights, uint64(punctual)*punctualLightSize()); err != nil {
			return err
		}
		m.punctualCapacity = punctual
	}
	return nil
}

// WriteLights uploads a light snapshot, growing the buffers first when needed.
//
// Parameters:
//   - snap: the snapshot to upload
//
// Returns:
//   - error: ErrNotInitialized or a wrapped allocation error
func (m *ResourceManager) WriteLights(snap light.Snapshot) error {
	if err := m.EnsureLightCapacity(len(snap.Directional), len(snap.Punctual)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.r.WriteBuffer(m.directionalLights.Get(), 0, snap.DirectionalBytes())
	m.r.WriteBuffer(m.punctualLights.Get(), 0, snap.PunctualBytes())
	return nil
}

// UploadAccelerationStructure writes a hierarchy into the node and triangle buffers,
// recreating them when the hierarchy outgrew them.
//
// Parameters:
//   - as: the hierarchy to upload
//
// Returns:
//   - error: ErrNotInitialized or a wrapped allocation error
func (m *ResourceManager) UploadAccelerationStructure(as *accel.BVH) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ErrNotInitialized
	}
	if n := len(as.Nodes); n > m.nodeCapacity {
		if err := m.growLocked(&m.bvhNodes, LabelBVHNodes, uint64(n)*accel.GPUNodeSize); err != nil {
			return err
		}
		m.nodeCapacity = n
	}
	if n := len(as.Triangles); n > m.triangleCapacity {
		if err := m.growLocked(&m.bvhTriangles, LabelBVHTriangles, uint64(n)*accel.GPUTriangleSize); err != nil {
			return err
		}
		m.triangleCapacity = n
	}
	m.r.WriteBuffer(m.bvhNodes.Get(), 0, as.NodeBytes())
	m.r.WriteBuffer(m.bvhTriangles.Get(), 0, as.TriangleBytes())
	return nil
}

func (m *ResourceManager) growLocked(owned *resource.Owned[resource.Buffer], label string, size uint64) error {
	buf, err := m.r.CreateBuffer(resource.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: resource.BufferUsageStorage | resource.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("grow %s to %d bytes: %w", label, size, err)
	}
	owned.Reset(buf)
	m.bindings++
	logger.For("ddgi").Debug("grew buffer", "label", label, "bytes", size)
	return nil
}

// WriteConstants uploads the per-frame volume constants.
func (m *ResourceManager) WriteConstants(c *GPUVolumeConstants) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.constants.Valid() {
		m.r.WriteBuffer(m.constants.Get(), 0, c.Marshal())
	}
}

// Descriptor returns the descriptor of the current allocation.
func (m *ResourceManager) Descriptor() volume.Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.desc
}

// Generation increments on every successful Initialize.
func (m *ResourceManager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// BindingVersion increments whenever any bound object is replaced, so bind groups built
// against an older version must be rebuilt.
func (m *ResourceManager) BindingVersion() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bindings
}

func (m *ResourceManager) texture(o *resource.Owned[resource.Texture]) resource.Texture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return o.Get()
}

func (m *ResourceManager) buffer(o *resource.Owned[resource.Buffer]) resource.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return o.Get()
}

// Irradiance is the rgba16float octahedral irradiance atlas written by the irradiance update.
func (m *ResourceManager) Irradiance() resource.Texture { return m.texture(&m.irradiance) }

// IrradianceHistory holds the previous frame's irradiance for temporal blending.
func (m *ResourceManager) IrradianceHistory() resource.Texture {
	return m.texture(&m.irradianceHistory)
}

// Distance is the rg32float atlas of mean and mean squared hit distance.
func (m *ResourceManager) Distance() resource.Texture { return m.texture(&m.distance) }

// DistanceHistory holds the previous frame's distance atlas.
func (m *ResourceManager) DistanceHistory() resource.Texture { return m.texture(&m.distanceHistory) }

// ProbeData stores per-probe relocation offsets and classification state.
func (m *ResourceManager) ProbeData() resource.Texture { return m.texture(&m.probeData) }

// ProbeDataScratch is the copy of ProbeData that relocation and classification read from.
func (m *ResourceManager) ProbeDataScratch() resource.Texture { return m.texture(&m.probeDataScratch) }

// Variability is the per-texel irradiance variability written alongside the irradiance update.
func (m *ResourceManager) Variability() resource.Texture { return m.texture(&m.variability) }

// VariabilityAverage is the reduction output; its first texel holds the volume mean.
func (m *ResourceManager) VariabilityAverage() resource.Texture {
	return m.texture(&m.variabilityAverage)
}

// VariabilityAverageScratch is the copy of VariabilityAverage read by extra reduction passes.
func (m *ResourceManager) VariabilityAverageScratch() resource.Texture {
	return m.texture(&m.variabilityAverageScratch)
}

// FallbackSky is the black cube bound when the scene has no usable skybox cubemap.
func (m *ResourceManager) FallbackSky() resource.Texture { return m.texture(&m.fallbackSky) }

// RayBuffer holds one radiance and distance sample per traced ray.
func (m *ResourceManager) RayBuffer() resource.Buffer { return m.buffer(&m.rays) }

// DirectionalLights is the storage buffer of packed directional lights.
func (m *ResourceManager) DirectionalLights() resource.Buffer { return m.buffer(&m.directionalLights) }

// PunctualLights is the storage buffer of packed point and spot lights.
func (m *ResourceManager) PunctualLights() resource.Buffer { return m.buffer(&m.punctualLights) }

// BVHNodes is the flattened acceleration structure node array.
func (m *ResourceManager) BVHNodes() resource.Buffer { return m.buffer(&m.bvhNodes) }

// BVHTriangles is the triangle array referenced by BVHNodes leaves.
func (m *ResourceManager) BVHTriangles() resource.Buffer { return m.buffer(&m.bvhTriangles) }

// Constants is the volume constants uniform.
func (m *ResourceManager) Constants() resource.Buffer { return m.buffer(&m.constants) }

// Staging is the map-readable buffer the convergence readback copies into.
func (m *ResourceManager) Staging() resource.Buffer { return m.buffer(&m.staging) }

// ReductionParams returns the params uniform of extra reduction pass i (the second dispatch of
// the chain is pass 0).
func (m *ResourceManager) ReductionParams(i int) resource.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.reductionParams) {
		return nil
	}
	return m.reductionParams[i].Get()
}
