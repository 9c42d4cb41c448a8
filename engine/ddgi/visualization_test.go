package ddgi

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/renderertest"
	"github.com/chewxy/math32"
)

func TestGenerateSphere(t *testing.T) {
	positions, indices := GenerateSphere(2, 4, 6)
	if got, want := len(positions), 5*7*3; got != want {
		t.Errorf("positions = %d floats, want %d", got, want)
	}
	if got, want := len(indices), 4*6*6; got != want {
		t.Errorf("indices = %d, want %d", got, want)
	}
	for i := 0; i < len(positions); i += 3 {
		x, y, z := positions[i], positions[i+1], positions[i+2]
		if r := math32.Sqrt(x*x + y*y + z*z); math32.Abs(r-2) > 1e-4 {
			t.Fatalf("vertex %d at radius %v, want 2", i/3, r)
		}
	}
	for _, idx := range indices {
		if int(idx) >= len(positions)/3 {
			t.Fatalf("index %d out of range", idx)
		}
	}

	// Degenerate tessellation is raised to the minimum.
	_, indices = GenerateSphere(1, 0, 0)
	if len(indices) != 2*3*6 {
		t.Errorf("minimum sphere indices = %d, want %d", len(indices), 2*3*6)
	}
}

func TestVisualizationDrawsOneSpherePerProbe(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	volume := NewProbeUpdatePipeline(r, roomScene())
	s := activeSettings(WithProbeDebug(ProbeDebugDistance, 5))
	runFrame(t, volume, s)

	viz := NewVisualizationPass(r, nil)
	if err := viz.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer viz.Release()
	backend.Reset()

	if err := viz.Render(context.Background(), testFrame(), s, volume); err != nil {
		t.Fatalf("Render: %v", err)
	}
	draws := backend.Filter(renderertest.CommandDraw)
	if len(draws) != 1 || draws[0].Key != PipelineProbeVisualization {
		t.Fatalf("draws = %v, want one %s", draws, PipelineProbeVisualization)
	}
	args := viz.IndirectArgs()
	if args.InstanceCount != 8 || args.IndexCount != debugSphereRings*debugSphereSegments*6 {
		t.Errorf("args = %+v, want 8 instances of %d indices", args, debugSphereRings*debugSphereSegments*6)
	}

	uniforms := bufferByLabel(backend, labelVisualizationUniforms)
	if uniforms == nil {
		t.Fatal("uniform buffer missing")
	}
	if got := uniforms.Data[128]; got != byte(ProbeDebugDistance) {
		t.Errorf("debug mode = %d, want %d", got, ProbeDebugDistance)
	}

	// Unchanged arguments are not rewritten.
	backend.Reset()
	if err := viz.Render(context.Background(), testFrame(), s, volume); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, w := range backend.Filter(renderertest.CommandWriteBuffer) {
		if w.Dst == labelVisualizationArgs {
			t.Error("indirect args rewritten without a change")
		}
	}
}

func TestVisualizationNoOps(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	volume := NewProbeUpdatePipeline(r, roomScene())
	debug := activeSettings(WithProbeDebug(ProbeDebugIrradiance, 1))
	runFrame(t, volume, debug)

	viz := NewVisualizationPass(r, nil)
	if err := viz.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer viz.Release()

	uninitialized := NewProbeUpdatePipeline(r, roomScene())
	tests := []struct {
		name     string
		frame    FrameContext
		settings Settings
		volume   ProbeUpdatePipeline
	}{
		{"debug off", testFrame(), activeSettings(), volume},
		{"inactive", testFrame(), DefaultSettings(), volume},
		{"no volume", testFrame(), debug, nil},
		{"uninitialized volume", testFrame(), debug, uninitialized},
		{"no camera", FrameContext{}, debug, volume},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend.Reset()
			if err := viz.Render(context.Background(), tt.frame, tt.settings, tt.volume); err != nil {
				t.Fatalf("Render: %v", err)
			}
			if draws := backend.Filter(renderertest.CommandDraw); len(draws) != 0 {
				t.Errorf("draws = %v, want none", draws)
			}
		})
	}
}
