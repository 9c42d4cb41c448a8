package ddgi

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
)

func sample(value float32) renderer.ReadbackResult {
	data := make([]byte, 8)
	common.PutFloat32s(data, 0, value, 1)
	return renderer.ReadbackResult{Data: data}
}

func TestConvergesAfterSeventeenSamples(t *testing.T) {
	c := NewConvergenceEstimator(0.025)
	for i := 1; i <= 16; i++ {
		c.Apply(sample(0.001))
		if c.Converged() {
			t.Fatalf("converged after %d samples", i)
		}
	}
	c.Apply(sample(0.001))
	if !c.Converged() {
		t.Fatal("not converged after 17 samples")
	}
	if c.SampleCount() != 17 {
		t.Errorf("SampleCount() = %d, want 17", c.SampleCount())
	}

	c.Apply(sample(0.5))
	if c.Converged() {
		t.Error("still converged above the threshold")
	}
}

func TestLightingChangeRestartsCount(t *testing.T) {
	c := NewConvergenceEstimator(0.025)
	for range 20 {
		c.Apply(sample(0.001))
	}
	if !c.Converged() {
		t.Fatal("not converged before the lighting change")
	}
	c.MarkLightingChanged()
	if c.Converged() {
		t.Error("still converged right after a lighting change")
	}
	if !c.ClearPending() {
		t.Fatal("clear not pending")
	}
	c.Apply(sample(0.001))
	if c.SampleCount() != 1 || c.Converged() {
		t.Errorf("after clear: samples = %d, converged = %v", c.SampleCount(), c.Converged())
	}
	if c.ClearPending() {
		t.Error("clear still pending after a sample")
	}
}

func TestFailedReadbackLeavesState(t *testing.T) {
	c := NewConvergenceEstimator(0.025)
	for range 17 {
		c.Apply(sample(0.001))
	}

	tests := []struct {
		name string
		res  renderer.ReadbackResult
	}{
		{"error", renderer.ReadbackResult{Err: errors.New("map failed")}},
		{"empty", renderer.ReadbackResult{}},
		{"short", renderer.ReadbackResult{Data: []byte{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c.Apply(tt.res) {
				t.Error("Apply() = true, want false")
			}
			if !c.Converged() || c.SampleCount() != 17 {
				t.Errorf("state changed: converged = %v, samples = %d", c.Converged(), c.SampleCount())
			}
		})
	}
}

func newReadbackTargets(t *testing.T, r renderer.Renderer) (resource.Texture, resource.Buffer) {
	t.Helper()
	tex, err := r.CreateTexture(resource.TextureDescriptor{Label: LabelVariabilityAverage, Width: 1, Height: 1, Layers: 1})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	buf, err := r.CreateBuffer(resource.BufferDescriptor{Label: LabelStaging, Size: stagingBufferSize})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	return tex, buf
}

func TestSingleReadbackInFlight(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	backend.HoldReadbacks = true
	backend.ReadbackData = variabilityReadback(0.001)
	tex, staging := newReadbackTargets(t, r)

	c := NewConvergenceEstimator(0.025)
	if !c.Request(r, tex, staging) {
		t.Fatal("first Request() = false")
	}
	if c.Request(r, tex, staging) {
		t.Fatal("second Request() = true while one is in flight")
	}
	backend.EndComputeFrame()
	if c.Poll() {
		t.Fatal("Poll() applied an undelivered readback")
	}
	if !c.InFlight() {
		t.Fatal("readback no longer in flight")
	}

	backend.Deliver()
	if !c.Poll() {
		t.Fatal("Poll() did not apply the delivered readback")
	}
	if c.SampleCount() != 1 {
		t.Errorf("SampleCount() = %d, want 1", c.SampleCount())
	}
	if !c.Request(r, tex, staging) {
		t.Error("Request() = false after the readback completed")
	}
}

func TestStaleReadbackDiscarded(t *testing.T) {
	r, backend := newRecordingRenderer(t)
	backend.HoldReadbacks = true
	backend.ReadbackData = variabilityReadback(0.001)
	tex, staging := newReadbackTargets(t, r)

	c := NewConvergenceEstimator(0.025)
	c.Request(r, tex, staging)
	backend.EndComputeFrame()
	c.Reset()
	backend.Deliver()

	if c.Poll() {
		t.Error("Poll() applied a readback issued before Reset")
	}
	if c.SampleCount() != 0 {
		t.Errorf("SampleCount() = %d, want 0", c.SampleCount())
	}
	if !c.Request(r, tex, staging) {
		t.Error("Request() = false after discarding the stale readback")
	}
}
