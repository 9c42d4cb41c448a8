package volume

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestSurfaceDimensionsExactMultiples(t *testing.T) {
	for x := MinProbeCount; x <= MaxProbeCount; x++ {
		for y := MinProbeCount; y <= MaxProbeCount; y += 3 {
			for z := MinProbeCount; z <= MaxProbeCount; z += 4 {
				counts := [3]int{x, y, z}
				blocks := map[SurfaceKind]int{
					SurfaceIrradiance:  IrradianceTexels,
					SurfaceDistance:    DistanceTexels,
					SurfaceProbeData:   1,
					SurfaceVariability: IrradianceInteriorTexels,
				}
				for kind, block := range blocks {
					d := SurfaceDimensions(counts, kind)
					if d.Width != x*block || d.Height != z*block {
						t.Fatalf("%v %v = %+v, want %dx%d", counts, kind, d, x*block, z*block)
					}
					if d.Layers != y {
						t.Fatalf("%v %v layers = %d, want %d", counts, kind, d.Layers, y)
					}
				}
				rays := SurfaceDimensions(counts, SurfaceRayData)
				if rays.Texels() != x*y*z*MaxRaysPerProbe {
					t.Fatalf("%v ray data holds %d records", counts, rays.Texels())
				}
			}
		}
	}
}

func TestReductionChain(t *testing.T) {
	tests := []struct {
		name   string
		counts [3]int
		want   [][3]int
	}{
		{"single pass", [3]int{2, 2, 2}, [][3]int{{1, 1, 1}}},
		{"default grid", [3]int{22, 22, 22}, [][3]int{{9, 9, 6}, {1, 1, 2}, {1, 1, 1}}},
		{"single probe", [3]int{1, 1, 1}, [][3]int{{1, 1, 1}}},
		{"max grid", [3]int{25, 25, 25}, [][3]int{{10, 10, 7}, {1, 1, 2}, {1, 1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := ReductionChain(tt.counts)
			if len(chain) != len(tt.want) {
				t.Fatalf("chain has %d passes, want %d: %+v", len(chain), len(tt.want), chain)
			}
			for i, pass := range chain {
				if pass.Groups != tt.want[i] {
					t.Errorf("pass %d groups = %v, want %v", i, pass.Groups, tt.want[i])
				}
				if i > 0 && pass.Input != chain[i-1].Groups {
					t.Errorf("pass %d input %v does not follow previous output %v", i, pass.Input, chain[i-1].Groups)
				}
			}
			if first := SurfaceDimensions(tt.counts, SurfaceVariabilityAverage); [3]int{first.Width, first.Height, first.Layers} != chain[0].Groups {
				t.Errorf("average surface %+v does not hold the first pass output %v", first, chain[0].Groups)
			}
		})
	}
}

func TestNewDescriptor(t *testing.T) {
	bounds := common.AABB{Min: mgl32.Vec3{-5, -5, -5}, Max: mgl32.Vec3{5, 5, 5}}
	d, err := NewDescriptor(bounds, [3]int{2, 2, 2}, 32)
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	if d.Origin != (mgl32.Vec3{}) {
		t.Errorf("Origin = %v", d.Origin)
	}
	if !d.Extents.ApproxEqual(mgl32.Vec3{5.5, 5.5, 5.5}) {
		t.Errorf("Extents = %v, want 1.1 * half size", d.Extents)
	}
	if d.RayCount() != 8*MaxRaysPerProbe {
		t.Errorf("RayCount() = %d", d.RayCount())
	}
	if !d.ProbeSpacing().ApproxEqual(mgl32.Vec3{11, 11, 11}) {
		t.Errorf("ProbeSpacing() = %v", d.ProbeSpacing())
	}
	if !d.ProbePosition([3]int{1, 1, 1}).ApproxEqual(mgl32.Vec3{5.5, 5.5, 5.5}) {
		t.Errorf("ProbePosition(1,1,1) = %v", d.ProbePosition([3]int{1, 1, 1}))
	}
}

func TestNewDescriptorErrors(t *testing.T) {
	unit := common.AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	tests := []struct {
		name   string
		bounds common.AABB
		counts [3]int
		rays   int
		want   error
	}{
		{"flat bounds", common.AABB{Max: mgl32.Vec3{1, 0, 1}}, [3]int{2, 2, 2}, 32, ErrDegenerateBounds},
		{"empty bounds", common.AABB{}, [3]int{2, 2, 2}, 32, ErrDegenerateBounds},
		{"zero probes", unit, [3]int{0, 2, 2}, 32, ErrProbeCount},
		{"too many probes", unit, [3]int{2, 26, 2}, 32, ErrProbeCount},
		{"zero rays", unit, [3]int{2, 2, 2}, 0, ErrRayCount},
		{"too many rays", unit, [3]int{2, 2, 2}, MaxRaysPerProbe + 1, ErrRayCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDescriptor(tt.bounds, tt.counts, tt.rays); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSingleProbeAxisHasNoSpacing(t *testing.T) {
	bounds := common.AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{4, 4, 4}}
	d, err := NewDescriptor(bounds, [3]int{1, 3, 1}, 64)
	if err != nil {
		t.Fatal(err)
	}
	s := d.ProbeSpacing()
	if s[0] != 0 || s[2] != 0 || s[1] == 0 {
		t.Errorf("ProbeSpacing() = %v", s)
	}
}

func TestRelocationGroups(t *testing.T) {
	for flat, want := range map[int]int{1: 1, 32: 1, 33: 2, 8: 1, 10648: 333} {
		if got := RelocationGroups(flat); got != want {
			t.Errorf("RelocationGroups(%d) = %d, want %d", flat, got, want)
		}
	}
	if got := RayDispatchGroups(144, 8, 64); got != [3]int{3, 8, 1} {
		t.Errorf("RayDispatchGroups = %v", got)
	}
}
