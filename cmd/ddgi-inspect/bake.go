package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/camera"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/ddgi"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/game_object"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/urfave/cli"
)

// boxGeometry returns an axis-aligned box with inward facing triangles.
func boxGeometry(half mgl32.Vec3) ([]mgl32.Vec3, []uint32) {
	x, y, z := half[0], half[1], half[2]
	positions := []mgl32.Vec3{
		{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
		{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
	}
	indices := []uint32{
		0, 1, 2, 0, 2, 3,
		4, 6, 5, 4, 7, 6,
		0, 5, 1, 0, 4, 5,
		3, 2, 6, 3, 6, 7,
		0, 7, 4, 0, 3, 7,
		1, 6, 2, 1, 5, 6,
	}
	return positions, indices
}

// bakeScene is a closed room with a colored pillar, one sun and one point light.
func bakeScene() scene.Scene {
	roomPositions, roomIndices := boxGeometry(mgl32.Vec3{5, 3, 5})
	pillarPositions, pillarIndices := boxGeometry(mgl32.Vec3{0.5, 1.5, 0.5})
	// The pillar faces outward, so flip its winding.
	for i := 0; i < len(pillarIndices); i += 3 {
		pillarIndices[i+1], pillarIndices[i+2] = pillarIndices[i+2], pillarIndices[i+1]
	}

	return scene.NewScene("bake",
		scene.WithObjects(
			game_object.NewGameObject(
				game_object.WithGeometry(roomPositions, roomIndices),
				game_object.WithAlbedo(0.75, 0.75, 0.75),
			),
			game_object.NewGameObject(
				game_object.WithGeometry(pillarPositions, pillarIndices),
				game_object.WithPosition(1.5, -1.5, 0),
				game_object.WithAlbedo(0.8, 0.1, 0.1),
			),
		),
		scene.WithLights(
			light.NewLight(light.LightTypeDirectional, light.WithForward(0.3, -1, 0.2), light.WithIntensity(1.2)),
			light.NewLight(light.LightTypePoint, light.WithPosition(-2, 1.5, 1), light.WithRange(8), light.WithColor(1, 0.9, 0.7)),
		),
		scene.WithEnvironment(scene.NewEnvironment(
			scene.WithAmbientMode(light.AmbientModeTrilight),
			scene.WithAmbientColors(mgl32.Vec3{0.4, 0.5, 0.7}, mgl32.Vec3{0.3, 0.3, 0.3}, mgl32.Vec3{0.1, 0.08, 0.06}),
		)),
	)
}

// bake runs the probe update on a headless device until the volume converges or the frame
// budget runs out.
func bake(c *cli.Context) error {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: c.Bool("fallback"),
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("bake: request adapter: %w", err)
	}
	defer adapter.Release()

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "DDGI Bake Device"})
	if err != nil {
		return fmt.Errorf("bake: request device: %w", err)
	}
	defer device.Release()

	backend := wgpu_backend.NewBackend(device, device.GetQueue(), wgpu_backend.WithReadbackWorkers(1))
	defer backend.Release()
	r := renderer.NewRenderer(backend)

	prof := profiler.NewProfiler()
	settings := ddgi.NewSettings(
		ddgi.WithEnabled(true),
		ddgi.WithProbeCounts(c.Int("x"), c.Int("y"), c.Int("z")),
		ddgi.WithRaysPerProbe(c.Int("rays")),
		ddgi.WithVariability(true, float32(c.Float64("threshold"))),
	)
	feature, err := ddgi.NewFeature(r, bakeScene(), ddgi.WithSettings(settings), ddgi.WithFeatureProfiler(prof))
	if err != nil {
		return fmt.Errorf("bake: %w", err)
	}
	defer feature.Release()

	frame := ddgi.FrameContext{Camera: camera.NewCamera(camera.WithPosition(0, 0, 4.5), camera.WithTarget(0, 0, 0))}
	ctx := context.Background()
	ticker := time.NewTicker(c.Duration("tick"))
	defer ticker.Stop()

	w := c.App.Writer
	frames := c.Int("frames")
	for i := 1; i <= frames; i++ {
		<-ticker.C
		if err := feature.BeforeOpaque(ctx, frame); err != nil {
			return fmt.Errorf("bake: frame %d: %w", i, err)
		}
		prof.Tick()
		if feature.Pipeline().Converged() {
			fmt.Fprintf(w, "converged after %d frames\n", i)
			break
		}
	}

	stats := feature.Pipeline().Stats()
	logger.For("ddgi").Info("bake finished", "stats", stats)
	fmt.Fprintf(w, "frames %d  rays %d  passes %d  readbacks %d  samples %d\n",
		stats.Frames, stats.RaysTraced, stats.Passes, stats.Readbacks, feature.Pipeline().Convergence().SampleCount())
	return nil
}
