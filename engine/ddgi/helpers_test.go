package ddgi

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/camera"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/game_object"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// cube returns the 8 corners and 12 triangles of an axis-aligned cube of the given half size.
func cube(half float32) ([]mgl32.Vec3, []uint32) {
	positions := []mgl32.Vec3{
		{-half, -half, -half}, {half, -half, -half}, {half, half, -half}, {-half, half, -half},
		{-half, -half, half}, {half, -half, half}, {half, half, half}, {-half, half, half},
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2,
		4, 5, 6, 4, 6, 7,
		0, 1, 5, 0, 5, 4,
		3, 6, 2, 3, 7, 6,
		0, 4, 7, 0, 7, 3,
		1, 2, 6, 1, 6, 5,
	}
	return positions, indices
}

// roomScene is a scene holding one 10x10x10 box at the origin.
func roomScene(opts ...scene.SceneBuilderOption) scene.Scene {
	positions, indices := cube(5)
	room := game_object.NewGameObject(
		game_object.WithGeometry(positions, indices),
		game_object.WithAlbedo(0.8, 0.8, 0.8),
	)
	return scene.NewScene("room", append([]scene.SceneBuilderOption{scene.WithObjects(room)}, opts...)...)
}

// activeSettings returns enabled settings with a small grid so tests stay fast.
func activeSettings(opts ...SettingsBuilderOption) Settings {
	return NewSettings(append([]SettingsBuilderOption{
		WithEnabled(true),
		WithProbeCounts(2, 2, 2),
		WithRaysPerProbe(32),
	}, opts...)...)
}

// newRecordingRenderer returns a renderer over a fresh recording backend with every probe volume
// pipeline registered.
func newRecordingRenderer(t *testing.T) (renderer.Renderer, *renderertest.Backend) {
	t.Helper()
	backend := renderertest.NewBackend()
	r := renderer.NewRenderer(backend)
	compute, err := ComputePipelines()
	if err != nil {
		t.Fatalf("ComputePipelines: %v", err)
	}
	viz, err := VisualizationPipeline()
	if err != nil {
		t.Fatalf("VisualizationPipeline: %v", err)
	}
	if err := r.RegisterPipelines(append(compute, viz)...); err != nil {
		t.Fatalf("RegisterPipelines: %v", err)
	}
	return r, backend
}

func testFrame() FrameContext {
	return FrameContext{Camera: camera.NewCamera(camera.WithPosition(0, 0, 8), camera.WithTarget(0, 0, 0))}
}

// runFrame sets up and executes one frame, failing the test on error.
func runFrame(t *testing.T, p ProbeUpdatePipeline, s Settings) {
	t.Helper()
	ctx := context.Background()
	if err := p.SetupForCamera(ctx, s); err != nil {
		t.Fatalf("SetupForCamera: %v", err)
	}
	if err := p.Execute(ctx, testFrame()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

// bufferByLabel returns the most recently created live buffer with the label.
func bufferByLabel(b *renderertest.Backend, label string) *renderertest.Buffer {
	for i := len(b.Buffers) - 1; i >= 0; i-- {
		if b.Buffers[i].Desc.Label == label && !b.Buffers[i].Released {
			return b.Buffers[i]
		}
	}
	return nil
}

// textureByLabel returns the most recently created live texture with the label.
func textureByLabel(b *renderertest.Backend, label string) *renderertest.Texture {
	for i := len(b.Textures) - 1; i >= 0; i-- {
		if b.Textures[i].Desc.Label == label && !b.Textures[i].Released {
			return b.Textures[i]
		}
	}
	return nil
}

// variabilityReadback answers every readback with a mean of value over one sample.
func variabilityReadback(value float32) func(resource.Texture) []byte {
	return func(resource.Texture) []byte {
		data := make([]byte, 8)
		common.PutFloat32s(data, 0, value, 1)
		return data
	}
}
