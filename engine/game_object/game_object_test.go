package game_object

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

var unitCube = []mgl32.Vec3{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

func TestWorldBounds(t *testing.T) {
	tests := []struct {
		name     string
		opts     []GameObjectBuilderOption
		min, max mgl32.Vec3
	}{
		{"identity", nil, mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}},
		{"translated and scaled", []GameObjectBuilderOption{WithPosition(10, 0, 0), WithScale(2, 1, 3)}, mgl32.Vec3{8, -1, -3}, mgl32.Vec3{12, 1, 3}},
		{"rotated about y", []GameObjectBuilderOption{WithScale(2, 1, 1), WithRotation(0, math.Pi/2, 0)}, mgl32.Vec3{-1, -1, -2}, mgl32.Vec3{1, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]GameObjectBuilderOption{WithGeometry(unitCube, []uint32{0, 1, 2})}, tt.opts...)
			b := NewGameObject(opts...).WorldBounds()
			if !b.Min.ApproxEqualThreshold(tt.min, 1e-5) || !b.Max.ApproxEqualThreshold(tt.max, 1e-5) {
				t.Errorf("bounds = %v, want [%v, %v]", b, tt.min, tt.max)
			}
		})
	}
}

func TestWorldBoundsWithoutGeometry(t *testing.T) {
	if b := NewGameObject(WithPosition(3, 3, 3)).WorldBounds(); !b.IsEmpty() {
		t.Errorf("bounds = %v, want empty", b)
	}
}

func TestAttachedLightFollowsPosition(t *testing.T) {
	l := light.NewLight(light.LightTypePoint)
	obj := NewGameObject(WithPosition(1, 2, 3), WithLight(l))
	if l.Position() != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("light position = %v after construction", l.Position())
	}
	obj.SetPosition(mgl32.Vec3{4, 5, 6})
	if l.Position() != (mgl32.Vec3{4, 5, 6}) {
		t.Errorf("light position = %v after move", l.Position())
	}
}

func TestMeshCarriesTransform(t *testing.T) {
	obj := NewGameObject(WithGeometry(unitCube, []uint32{0, 1, 2}), WithPosition(0, 5, 0), WithAlbedo(1, 0, 0))
	m := obj.Mesh()
	if m.TriangleCount() != 1 || m.Albedo != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("mesh = %+v", m)
	}
	if got := mgl32.TransformCoordinate(mgl32.Vec3{}, m.Transform); got != (mgl32.Vec3{0, 5, 0}) {
		t.Errorf("origin maps to %v", got)
	}
}
