package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCeilDiv(t *testing.T) {
	tests := []struct {
		n, d, want int
	}{
		{0, 32, 0},
		{1, 32, 1},
		{32, 32, 1},
		{33, 32, 2},
		{10648, 32, 333},
	}
	for _, tt := range tests {
		if got := CeilDiv(tt.n, tt.d); got != tt.want {
			t.Errorf("CeilDiv(%d, %d) = %d, want %d", tt.n, tt.d, got, tt.want)
		}
	}
}

func TestPutFloat32sRoundTrip(t *testing.T) {
	buf := make([]byte, 12)
	PutFloat32s(buf, 4, 1.5, -2)
	if got := Float32At(buf, 4); got != 1.5 {
		t.Errorf("Float32At(4) = %v, want 1.5", got)
	}
	if got := Float32At(buf, 8); got != -2 {
		t.Errorf("Float32At(8) = %v, want -2", got)
	}
	if got := Float32At(buf, 0); got != 0 {
		t.Errorf("Float32At(0) = %v, want 0", got)
	}
}

func TestAABBEncapsulate(t *testing.T) {
	var b AABB
	b = b.Encapsulate(AABB{Min: mgl32.Vec3{1, 1, 1}, Max: mgl32.Vec3{2, 2, 2}})
	if b.Min != (mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("zero value should adopt the first box, got min %v", b.Min)
	}
	b = b.Encapsulate(AABB{Min: mgl32.Vec3{-1, 0, 1.5}, Max: mgl32.Vec3{0, 3, 1.5}})
	want := AABB{Min: mgl32.Vec3{-1, 0, 1}, Max: mgl32.Vec3{2, 3, 2}}
	if b != want {
		t.Errorf("union = %+v, want %+v", b, want)
	}
	if !b.Contains(AABB{Min: mgl32.Vec3{0, 1, 1}, Max: mgl32.Vec3{1, 2, 2}}) {
		t.Error("union should contain an inner box")
	}
}

func TestAABBDegenerate(t *testing.T) {
	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"zero value", AABB{}, true},
		{"flat plane", AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{10, 0, 10}}, true},
		{"unit cube", AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.IsDegenerate(); got != tt.want {
				t.Errorf("IsDegenerate() = %v, want %v", got, tt.want)
			}
		})
	}
}
