package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/game_object"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

var tri = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 1}}

func box(x, y, z float32, opts ...game_object.GameObjectBuilderOption) game_object.GameObject {
	opts = append([]game_object.GameObjectBuilderOption{
		game_object.WithGeometry(tri, []uint32{0, 1, 2}),
		game_object.WithPosition(x, y, z),
	}, opts...)
	return game_object.NewGameObject(opts...)
}

func TestBoundsUnion(t *testing.T) {
	s := NewScene("test", WithObjects(
		box(0, 0, 0),
		box(10, 0, 0, game_object.WithSkinned(true)),
		box(-50, 0, 0, game_object.WithEnabled(false)),
		game_object.NewGameObject(game_object.WithPosition(100, 100, 100)),
	))

	b := s.Bounds(false)
	want := common.AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{11, 1, 1}}
	if b != want {
		t.Errorf("bounds = %v, want %v", b, want)
	}
	if len(s.Meshes()) != 2 {
		t.Errorf("meshes = %d, want 2", len(s.Meshes()))
	}
}

func TestBoundsEmptyScene(t *testing.T) {
	s := NewScene("empty")
	if b := s.Bounds(false); !b.IsDegenerate() {
		t.Errorf("bounds = %v, want degenerate", b)
	}
	if b := s.Bounds(true); b != (common.AABB{}) {
		t.Errorf("custom bounds = %v, want zero", b)
	}
}

func TestCustomBoundsUsesFirstVolume(t *testing.T) {
	first := common.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	s := NewScene("custom",
		WithObjects(box(20, 0, 0)),
		WithBoundsVolumes(first, common.AABB{Max: mgl32.Vec3{100, 100, 100}}),
	)
	if b := s.Bounds(true); b != first {
		t.Errorf("bounds = %v, want %v", b, first)
	}
	s.ClearBoundsVolumes()
	if b := s.Bounds(true); b != (common.AABB{}) {
		t.Errorf("bounds = %v after clear, want zero", b)
	}
}

func TestAddRemoveTracksAttachedLights(t *testing.T) {
	l := light.NewLight(light.LightTypePoint)
	s := NewScene("lights", WithLights(light.NewLight(light.LightTypeDirectional)))

	id := s.Add(box(0, 0, 0, game_object.WithLight(l)))
	if id == 0 || s.Get(id) == nil {
		t.Fatalf("object not registered, id %d", id)
	}
	if len(s.Lights()) != 2 {
		t.Errorf("lights = %d, want 2", len(s.Lights()))
	}

	s.Remove(id)
	if s.Count() != 0 || len(s.Lights()) != 1 {
		t.Errorf("count = %d, lights = %d after remove", s.Count(), len(s.Lights()))
	}
	s.Remove(id)
}

func TestEnvironmentImplementsLightEnvironment(t *testing.T) {
	env := NewEnvironment(WithAmbientMode(light.AmbientModeTrilight), WithAmbientColors(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}))
	s := NewScene("env", WithEnvironment(env))
	if got := light.ResolveSky(s.Environment(), light.CubemapShaderName); got.Mode != light.SkyModeGradient || got.Ground != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("resolved sky = %+v", got)
	}
}
