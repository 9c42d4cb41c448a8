package ddgi

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestVolumeConstantsLayout(t *testing.T) {
	c := GPUVolumeConstants{
		StartPosition:     [3]float32{-1, -2, -3},
		RaysPerProbe:      144,
		MaxRaysPerProbe:   512,
		ProbeCounts:       [3]uint32{4, 5, 6},
		Flags:             FlagRelocation | FlagClassification,
		RandomRotation:    [4]float32{0, 0, 1, 0.5},
		IndirectIntensity: 2,
		BackfaceThreshold: 0.25,
		SkyMode:           2,
		DebugKeywords:     DebugShowPureIndirect,
		SkyboxTint:        [4]float32{0.1, 0.2, 0.3, 1},
	}
	if c.Size() != 192 {
		t.Fatalf("Size() = %d, want 192", c.Size())
	}
	buf := c.Marshal()
	if len(buf) != 192 {
		t.Fatalf("len(Marshal()) = %d, want 192", len(buf))
	}

	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(buf[off:]) }
	if got := common.Float32At(buf, 8); got != -3 {
		t.Errorf("start.z = %v, want -3", got)
	}
	if u32(12) != 144 || u32(28) != 512 {
		t.Errorf("rays = (%d, %d), want (144, 512)", u32(12), u32(28))
	}
	if u32(40) != 6 {
		t.Errorf("probe count z = %d, want 6", u32(40))
	}
	if u32(44) != FlagRelocation|FlagClassification {
		t.Errorf("flags = %b", u32(44))
	}
	if got := common.Float32At(buf, 60); got != 0.5 {
		t.Errorf("rotation angle = %v, want 0.5", got)
	}
	if got := common.Float32At(buf, 76); got != 2 {
		t.Errorf("indirect intensity = %v, want 2", got)
	}
	if got := common.Float32At(buf, 92); got != 0.25 {
		t.Errorf("backface threshold = %v, want 0.25", got)
	}
	if u32(108) != 2 || u32(124) != DebugShowPureIndirect {
		t.Errorf("sky mode = %d, debug = %d", u32(108), u32(124))
	}
	if got := common.Float32At(buf, 180); got != 0.2 {
		t.Errorf("tint.g = %v, want 0.2", got)
	}
}

func TestVisualizationUniformsLayout(t *testing.T) {
	u := GPUVisualizationUniforms{
		ViewProjection: mgl32.Ident4(),
		ObjectToWorld:  mgl32.Scale3D(2, 2, 2),
		DebugMode:      uint32(ProbeDebugDistance),
	}
	if u.Size() != 144 {
		t.Fatalf("Size() = %d, want 144", u.Size())
	}
	buf := u.Marshal()
	if got := common.Float32At(buf, 64); got != 2 {
		t.Errorf("object to world [0] = %v, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(buf[128:]); got != uint32(ProbeDebugDistance) {
		t.Errorf("debug mode = %d, want %d", got, ProbeDebugDistance)
	}
}

func TestIndirectArgsLayout(t *testing.T) {
	buf := DrawIndexedIndirectArgs{IndexCount: 36, InstanceCount: 8, BaseVertex: -1}.Marshal()
	if len(buf) != 20 {
		t.Fatalf("len = %d, want 20", len(buf))
	}
	if binary.LittleEndian.Uint32(buf[0:]) != 36 || binary.LittleEndian.Uint32(buf[4:]) != 8 {
		t.Errorf("counts = %v", buf[:8])
	}
	if int32(binary.LittleEndian.Uint32(buf[12:])) != -1 {
		t.Errorf("base vertex = %v, want -1", buf[12:16])
	}
}

func TestReductionParamsLayout(t *testing.T) {
	buf := (&GPUReductionParams{InputSize: [3]uint32{3, 3, 2}}).Marshal()
	if len(buf) != 16 || binary.LittleEndian.Uint32(buf[8:]) != 2 {
		t.Errorf("params = %v", buf)
	}
}
