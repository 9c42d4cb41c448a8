package ddgi

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/accel"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/scene"
	"github.com/chewxy/math32"
)

type failingBuilder struct{}

func (failingBuilder) Build([]accel.Mesh) (*accel.BVH, error) {
	return nil, accel.ErrIndexOutOfRange
}

func TestFirstFrameDispatchOrder(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	p := NewProbeUpdatePipeline(r, roomScene())
	runFrame(t, p, activeSettings())

	want := []string{
		PipelineRayTrace,
		PipelineUpdateIrradiance,
		PipelineUpdateDistance,
		PipelineRelocateReset,
		PipelineRelocate,
		PipelineClassifyReset,
		PipelineClassify,
	}
	if got := backend.Dispatches(); !slices.Equal(got, want) {
		t.Fatalf("dispatches = %v, want %v", got, want)
	}

	dispatches := backend.Filter(renderertest.CommandDispatch)
	if got := dispatches[0].Groups; got != [3]uint32{1, 8, 1} {
		t.Errorf("ray trace groups = %v, want [1 8 1]", got)
	}
	if got := dispatches[1].Groups; got != [3]uint32{2, 2, 2} {
		t.Errorf("irradiance groups = %v, want [2 2 2]", got)
	}
	if got := dispatches[4].Groups; got != [3]uint32{1, 1, 1} {
		t.Errorf("relocation groups = %v, want [1 1 1]", got)
	}

	clears := backend.Filter(renderertest.CommandClear)
	var cleared []string
	for _, c := range clears {
		cleared = append(cleared, c.Dst)
	}
	for _, label := range []string{LabelIrradianceHistory, LabelDistanceHistory} {
		if !slices.Contains(cleared, label) {
			t.Errorf("%s not cleared on the first frame", label)
		}
	}

	copies := backend.Filter(renderertest.CommandCopy)
	n := len(copies)
	if n < 2 ||
		copies[n-2] != (renderertest.Command{Kind: renderertest.CommandCopy, Src: LabelIrradiance, Dst: LabelIrradianceHistory}) ||
		copies[n-1] != (renderertest.Command{Kind: renderertest.CommandCopy, Src: LabelDistance, Dst: LabelDistanceHistory}) {
		t.Errorf("last copies = %v, want irradiance then distance into history", copies)
	}

	stats := p.Stats()
	if stats.Frames != 1 || stats.Passes != 7 || stats.RaysTraced != 8*32 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSecondFrameSkipsResets(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	p := NewProbeUpdatePipeline(r, roomScene())
	s := activeSettings()
	runFrame(t, p, s)
	backend.Reset()
	runFrame(t, p, s)

	want := []string{PipelineRayTrace, PipelineUpdateIrradiance, PipelineUpdateDistance, PipelineRelocate, PipelineClassify}
	if got := backend.Dispatches(); !slices.Equal(got, want) {
		t.Errorf("dispatches = %v, want %v", got, want)
	}
	if clears := backend.Filter(renderertest.CommandClear); len(clears) != 0 {
		t.Errorf("history cleared again: %v", clears)
	}
}

func TestProbePassReadsScratchCopy(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	p := NewProbeUpdatePipeline(r, roomScene())
	runFrame(t, p, activeSettings(WithClassification(false, 0)))

	var last renderertest.Command
	for _, c := range backend.Commands {
		if c.Kind == renderertest.CommandDispatch && c.Key == PipelineRelocate {
			break
		}
		if c.Kind == renderertest.CommandCopy {
			last = c
		}
	}
	if last.Src != LabelProbeData || last.Dst != LabelProbeDataScratch {
		t.Errorf("copy before relocation = %+v, want probe data into scratch", last)
	}
}

func TestDegenerateBoundsStayUninitialized(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	p := NewProbeUpdatePipeline(r, scene.NewScene("empty"))
	runFrame(t, p, activeSettings())

	if p.Initialized() {
		t.Error("initialized with degenerate bounds")
	}
	if len(backend.Textures) != 0 || len(backend.Dispatches()) != 0 {
		t.Errorf("textures = %d, dispatches = %v", len(backend.Textures), backend.Dispatches())
	}
	if p.Stats().SkippedFrames != 1 {
		t.Errorf("SkippedFrames = %d, want 1", p.Stats().SkippedFrames)
	}
}

func TestInactiveSettingsSkipFrame(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	p := NewProbeUpdatePipeline(r, roomScene())
	runFrame(t, p, activeSettings(WithIndirectIntensity(0)))

	if len(backend.Dispatches()) != 0 {
		t.Errorf("dispatches = %v, want none", backend.Dispatches())
	}
	if backend.Frames != 0 {
		t.Errorf("compute frames = %d, want 0", backend.Frames)
	}
}

func TestRelocationResetTransitions(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	p := NewProbeUpdatePipeline(r, roomScene())
	on := activeSettings(WithClassification(false, 0))
	off := activeSettings(WithClassification(false, 0), WithRelocation(false, 0))

	steps := []struct {
		name      string
		settings  Settings
		wantFlag  bool
		wantReset bool
	}{
		{"enabled", on, false, true},
		{"disabled", off, true, true},
		{"still disabled", off, true, false},
		{"re-enabled", on, false, true},
	}
	if !p.NeedsRelocationReset() {
		t.Fatal("reset not pending on a new pipeline")
	}
	for _, step := range steps {
		backend.Reset()
		runFrame(t, p, step.settings)
		if got := p.NeedsRelocationReset(); got != step.wantFlag {
			t.Errorf("%s: NeedsRelocationReset() = %v, want %v", step.name, got, step.wantFlag)
		}
		if got := slices.Contains(backend.Dispatches(), PipelineRelocateReset); got != step.wantReset {
			t.Errorf("%s: reset dispatched = %v, want %v", step.name, got, step.wantReset)
		}
	}
}

func TestClassificationResetTransitions(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	p := NewProbeUpdatePipeline(r, roomScene())
	on := activeSettings(WithRelocation(false, 0))
	off := activeSettings(WithRelocation(false, 0), WithClassification(false, 0))

	runFrame(t, p, on)
	if p.NeedsClassificationReset() {
		t.Fatal("reset still pending after an enabled frame")
	}
	backend.Reset()
	runFrame(t, p, off)
	if got := backend.Dispatches(); slices.Contains(got, PipelineClassify) || !slices.Contains(got, PipelineClassifyReset) {
		t.Errorf("disabled frame dispatches = %v, want only the reset", got)
	}
	if !p.NeedsClassificationReset() {
		t.Error("reset not re-armed after disabling")
	}
}

func TestConvergenceSkipsTracing(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	backend.ReadbackData = variabilityReadback(0.001)
	sc := roomScene()
	p := NewProbeUpdatePipeline(r, sc)
	s := activeSettings(WithVariability(true, 0.025))

	// Each frame applies the readback issued by the previous one.
	for range 17 {
		runFrame(t, p, s)
	}
	if p.Converged() {
		t.Fatalf("converged after %d samples", p.Convergence().SampleCount())
	}

	backend.Reset()
	runFrame(t, p, s)
	if !p.Converged() {
		t.Fatalf("not converged after %d samples", p.Convergence().SampleCount())
	}
	got := backend.Dispatches()
	for _, key := range []string{PipelineRayTrace, PipelineUpdateIrradiance, PipelineUpdateDistance} {
		if slices.Contains(got, key) {
			t.Errorf("converged frame dispatched %s", key)
		}
	}
	if !slices.Contains(got, PipelineRelocate) || !slices.Contains(got, PipelineReduce) {
		t.Errorf("converged frame dispatches = %v, want relocation and reduction", got)
	}
	if copies := backend.Filter(renderertest.CommandCopy); len(copies) < 2 || copies[len(copies)-1].Dst != LabelDistanceHistory {
		t.Errorf("converged frame did not copy history: %v", copies)
	}
	if p.Stats().ConvergedFrames != 1 {
		t.Errorf("ConvergedFrames = %d, want 1", p.Stats().ConvergedFrames)
	}

	// A new light drops convergence and traces on the same frame.
	sc.AddLight(light.NewLight(light.LightTypePoint, light.WithPosition(0, 2, 0)))
	backend.Reset()
	runFrame(t, p, s)
	if p.Converged() {
		t.Error("still converged after a lighting change")
	}
	got = backend.Dispatches()
	for _, key := range []string{PipelineRayTrace, PipelineUpdateIrradiance, PipelineUpdateDistance} {
		if !slices.Contains(got, key) {
			t.Errorf("lighting change frame dispatches = %v, missing %s", got, key)
		}
	}

	backend.Reset()
	runFrame(t, p, s)
	if p.Converged() {
		t.Error("converged again one sample after a lighting change")
	}
	if !slices.Contains(backend.Dispatches(), PipelineRayTrace) {
		t.Error("tracing stopped after a lighting change")
	}
}

func TestConvergenceUsesClampedThreshold(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	backend.ReadbackData = variabilityReadback(1.2)
	p := NewProbeUpdatePipeline(r, roomScene())
	s := activeSettings(WithVariability(true, 1))
	s.VariabilityThreshold = 1.5
	for range 20 {
		runFrame(t, p, s)
	}
	if p.Converged() {
		t.Error("variability 1.2 converged against a threshold clamped to 1")
	}
}

func TestDisablingVariabilityClearsConvergence(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	backend.ReadbackData = variabilityReadback(0.001)
	p := NewProbeUpdatePipeline(r, roomScene())
	s := activeSettings(WithVariability(true, 0.025))
	for range 18 {
		runFrame(t, p, s)
	}
	if !p.Converged() {
		t.Fatal("not converged")
	}
	runFrame(t, p, activeSettings())
	if p.Converged() || !p.Convergence().ClearPending() {
		t.Error("convergence kept after disabling variability")
	}
}

func TestMultiPassReduction(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	p := NewProbeUpdatePipeline(r, roomScene())
	runFrame(t, p, activeSettings(WithProbeCounts(6, 6, 6), WithVariability(true, 0.025)))

	var reduce []renderertest.Command
	for _, c := range backend.Filter(renderertest.CommandDispatch) {
		if c.Key == PipelineReduce || c.Key == PipelineReduceExtra {
			reduce = append(reduce, c)
		}
	}
	if len(reduce) != 2 {
		t.Fatalf("reduction dispatches = %v, want 2", reduce)
	}
	if reduce[0].Key != PipelineReduce || reduce[0].Groups != [3]uint32{3, 3, 2} {
		t.Errorf("first reduction = %+v, want reduce over [3 3 2]", reduce[0])
	}
	if reduce[1].Key != PipelineReduceExtra || reduce[1].Groups != [3]uint32{1, 1, 1} {
		t.Errorf("final reduction = %+v, want reduce_extra over [1 1 1]", reduce[1])
	}

	readbacks := backend.Filter(renderertest.CommandReadback)
	if len(readbacks) != 1 || readbacks[0].Src != LabelVariabilityAverage {
		t.Errorf("readbacks = %v, want one of %s", readbacks, LabelVariabilityAverage)
	}
	if p.Stats().Readbacks != 1 {
		t.Errorf("Readbacks = %d, want 1", p.Stats().Readbacks)
	}
}

func TestRandomRotationConstants(t *testing.T) {
	tests := []struct {
		name      string
		rotation  bool
		wantAxis  [3]float32
		wantAngle float32
	}{
		{"rotated", true, [3]float32{-1 / math32.Sqrt(3), -1 / math32.Sqrt(3), -1 / math32.Sqrt(3)}, math32.Pi / 2},
		{"fixed", false, [3]float32{0, 0, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, backend := newRecordingRenderer(t)
			p := NewProbeUpdatePipeline(r, roomScene(), WithRandom(func() float32 { return 0.25 }))
			runFrame(t, p, activeSettings(WithProbeRotation(tt.rotation)))

			buf := bufferByLabel(backend, LabelConstants)
			if buf == nil {
				t.Fatal("constants buffer missing")
			}
			for i := range 3 {
				if got := common.Float32At(buf.Data, 48+i*4); math32.Abs(got-tt.wantAxis[i]) > 1e-5 {
					t.Errorf("axis[%d] = %v, want %v", i, got, tt.wantAxis[i])
				}
			}
			if got := common.Float32At(buf.Data, 60); math32.Abs(got-tt.wantAngle) > 1e-5 {
				t.Errorf("angle = %v, want %v", got, tt.wantAngle)
			}
		})
	}
}

func TestAccelerationFailureSkipsTrace(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	p := NewProbeUpdatePipeline(r, roomScene(), WithAccelBuilder(failingBuilder{}))
	runFrame(t, p, activeSettings())

	got := backend.Dispatches()
	if slices.Contains(got, PipelineRayTrace) {
		t.Error("traced without an acceleration structure")
	}
	if !slices.Contains(got, PipelineRelocate) {
		t.Errorf("dispatches = %v, want probe passes to keep running", got)
	}
}

func TestUnregisteredPipelineFails(t *testing.T) {
	backend := renderertest.NewBackend()
	p := NewProbeUpdatePipeline(renderer.NewRenderer(backend), roomScene())
	ctx := context.Background()
	if err := p.SetupForCamera(ctx, activeSettings()); err != nil {
		t.Fatalf("SetupForCamera: %v", err)
	}
	err := p.Execute(ctx, testFrame())
	if !errors.Is(err, renderer.ErrPipelineNotFound) {
		t.Errorf("Execute() = %v, want ErrPipelineNotFound", err)
	}
	if backend.Frames != 1 {
		t.Errorf("compute frames = %d, want the frame closed once", backend.Frames)
	}
}

func TestReinitializeRebuildsVolume(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	p := NewProbeUpdatePipeline(r, roomScene())
	s := activeSettings()
	runFrame(t, p, s)

	p.Reinitialize()
	if p.Initialized() || !p.NeedsRelocationReset() || !p.NeedsClassificationReset() {
		t.Fatal("Reinitialize did not reset pipeline state")
	}
	backend.Reset()
	runFrame(t, p, s.Clamp())

	if p.Resources().Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", p.Resources().Generation())
	}
	if clears := backend.Filter(renderertest.CommandClear); len(clears) < 2 {
		t.Errorf("history not cleared after reinitialize: %v", clears)
	}
	if got := len(backend.LiveTextures()); got != fullSetTextures {
		t.Errorf("live textures = %d, want %d", got, fullSetTextures)
	}

	p.Release()
	p.Release()
	if live := backend.LiveTextures(); len(live) != 0 {
		t.Errorf("live textures after Release = %d", len(live))
	}
}
