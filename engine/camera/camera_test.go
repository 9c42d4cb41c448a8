package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestViewProjectionTracksSetters(t *testing.T) {
	c := NewCamera(WithPosition(0, 0, 10), WithAspect(16.0/9.0))
	target := mgl32.Vec4{0, 0, 0, 1}

	clip := c.ViewProjectionMatrix().Mul4x1(target)
	ndc := clip.Vec3().Mul(1 / clip[3])
	if !ndc.Vec2().ApproxEqual(mgl32.Vec2{}) {
		t.Errorf("target should project to the screen center, got %v", ndc)
	}

	c.SetTarget(mgl32.Vec3{5, 0, 0})
	clip = c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{5, 0, 0, 1})
	if ndc := clip.Vec3().Mul(1 / clip[3]); !ndc.Vec2().ApproxEqual(mgl32.Vec2{}) {
		t.Errorf("new target should project to the screen center, got %v", ndc)
	}

	want := c.ProjectionMatrix().Mul4(c.ViewMatrix())
	if !c.ViewProjectionMatrix().ApproxEqual(want) {
		t.Error("view-projection is not projection * view")
	}
}
