package ddgi

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/ddgi/volume"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

func testDescriptor(t *testing.T, counts [3]int, rays int) volume.Descriptor {
	t.Helper()
	bounds := common.NewAABBFromCenter(mgl32.Vec3{}, mgl32.Vec3{5, 5, 5})
	desc, err := volume.NewDescriptor(bounds, counts, rays)
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	return desc
}

// fullSetTextures is the number of textures one allocation owns.
const fullSetTextures = 10

func TestInitializeAllocatesSurfaces(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	m := NewResourceManager(r)
	if err := m.Initialize(testDescriptor(t, [3]int{2, 2, 2}, 32)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if got := m.RayBuffer().Descriptor().Size; got != 2*2*2*512*16 {
		t.Errorf("ray buffer = %d bytes, want %d", got, 2*2*2*512*16)
	}
	irr := m.Irradiance().Descriptor()
	if irr.Width != 16 || irr.Height != 16 || irr.Layers != 2 {
		t.Errorf("irradiance = %dx%dx%d, want 16x16x2", irr.Width, irr.Height, irr.Layers)
	}
	dist := m.Distance().Descriptor()
	if dist.Width != 32 || dist.Height != 32 || dist.Layers != 2 {
		t.Errorf("distance = %dx%dx%d, want 32x32x2", dist.Width, dist.Height, dist.Layers)
	}
	pd := m.ProbeData().Descriptor()
	if pd.Width != 2 || pd.Height != 2 || pd.Layers != 2 {
		t.Errorf("probe data = %dx%dx%d, want 2x2x2", pd.Width, pd.Height, pd.Layers)
	}
	if got := len(backend.LiveTextures()); got != fullSetTextures {
		t.Errorf("live textures = %d, want %d", got, fullSetTextures)
	}
	if m.Generation() != 1 || !m.Initialized() || m.NeedsInitialize() {
		t.Errorf("generation = %d, initialized = %v, needs init = %v", m.Generation(), m.Initialized(), m.NeedsInitialize())
	}
	if m.ReductionParams(0) != nil {
		t.Error("a single-pass reduction should not allocate extra params")
	}
}

func TestInitializeTwiceReplacesSet(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	m := NewResourceManager(r)
	desc := testDescriptor(t, [3]int{3, 2, 4}, 64)
	if err := m.Initialize(desc); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	first := m.Irradiance().Descriptor()
	oldIrradiance := textureByLabel(backend, LabelIrradiance)

	if err := m.Initialize(desc); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if second := m.Irradiance().Descriptor(); second != first {
		t.Errorf("irradiance = %+v, want %+v", second, first)
	}
	if !oldIrradiance.Released {
		t.Error("first irradiance texture not released")
	}
	if got := len(backend.LiveTextures()); got != fullSetTextures {
		t.Errorf("live textures = %d, want %d", got, fullSetTextures)
	}
	if m.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", m.Generation())
	}
}

func TestInitializeFailureReleasesPartialSet(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	backend.FailTextureLabel = LabelDistance
	m := NewResourceManager(r)

	err := m.Initialize(testDescriptor(t, [3]int{2, 2, 2}, 32))
	if err == nil {
		t.Fatal("Initialize succeeded with a failing texture")
	}
	if live := backend.LiveTextures(); len(live) != 0 {
		t.Errorf("live textures = %d, want 0", len(live))
	}
	if m.Initialized() || m.Irradiance() != nil {
		t.Error("manager kept a partial set")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	m := NewResourceManager(r)
	if err := m.Initialize(testDescriptor(t, [3]int{2, 2, 2}, 32)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	m.Release()
	m.Release()
	if live := backend.LiveTextures(); len(live) != 0 {
		t.Errorf("live textures = %d, want 0", len(live))
	}
	for _, b := range backend.Buffers {
		if !b.Released {
			t.Errorf("buffer %q not released", b.Desc.Label)
		}
	}
	if m.Initialized() {
		t.Error("still initialized after Release")
	}
}

func TestReductionParamsPerExtraPass(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	m := NewResourceManager(r)
	if err := m.Initialize(testDescriptor(t, [3]int{6, 6, 6}, 32)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	params := m.ReductionParams(0)
	if params == nil {
		t.Fatal("missing reduction params for the extra pass")
	}
	if m.ReductionParams(1) != nil {
		t.Error("unexpected second extra pass")
	}
	var data []byte
	for _, b := range backend.Buffers {
		if b.Desc.Label == params.Descriptor().Label {
			data = b.Data
		}
	}
	in := volume.ReductionChain([3]int{6, 6, 6})[1].Input
	for i := range 3 {
		got := uint32(data[i*4]) | uint32(data[i*4+1])<<8
		if int(got) != in[i] {
			t.Errorf("input size[%d] = %d, want %d", i, got, in[i])
		}
	}
}

func TestLightCapacityGrows(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	m := NewResourceManager(r)
	if err := m.EnsureLightCapacity(1, 1); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("EnsureLightCapacity before Initialize = %v, want ErrNotInitialized", err)
	}
	if err := m.Initialize(testDescriptor(t, [3]int{2, 2, 2}, 32)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	version := m.BindingVersion()
	unit := (&light.GPUPunctualLight{}).Size()

	if err := m.EnsureLightCapacity(1, 1); err != nil {
		t.Fatalf("EnsureLightCapacity: %v", err)
	}
	if m.BindingVersion() != version {
		t.Error("binding version changed without growth")
	}

	lights := []light.Light{
		light.NewLight(light.LightTypePoint, light.WithPosition(0, 1, 0)),
		light.NewLight(light.LightTypePoint, light.WithPosition(1, 1, 0)),
		light.NewLight(light.LightTypeSpot, light.WithPosition(2, 1, 0)),
	}
	if err := m.WriteLights(light.NewSnapshotBuilder().Build(lights, nil)); err != nil {
		t.Fatalf("WriteLights: %v", err)
	}
	if got := m.PunctualLights().Descriptor().Size; got != uint64(3*unit) {
		t.Errorf("punctual buffer = %d bytes, want %d", got, 3*unit)
	}
	if m.BindingVersion() == version {
		t.Error("binding version unchanged after growth")
	}
	if b := bufferByLabel(backend, LabelPunctualLights); b == nil || b.Desc.Size != uint64(3*unit) {
		t.Error("grown punctual buffer not live")
	}
}
