package light

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type testEnv struct {
	mode      AmbientMode
	intensity float32
	sky       mgl32.Vec3
	skybox    *SkyboxMaterial
}

func (e *testEnv) AmbientMode() AmbientMode  { return e.mode }
func (e *testEnv) AmbientIntensity() float32 { return e.intensity }
func (e *testEnv) AmbientColors() (mgl32.Vec3, mgl32.Vec3, mgl32.Vec3) {
	return e.sky, mgl32.Vec3{}, mgl32.Vec3{}
}
func (e *testEnv) Skybox() *SkyboxMaterial { return e.skybox }

func TestDistanceAttenuationZeroAtRange(t *testing.T) {
	for _, r := range []float32{1, 2, 4, 8, 16, 64} {
		x, _ := DistanceAttenuation(r)
		if got := EvaluateDistanceAttenuation(r*r, x); got != 0 {
			t.Errorf("range %v: attenuation at range = %v, want 0", r, got)
		}
		for _, f := range []float32{0.1, 0.5, 0.79} {
			d := r * f
			if got := EvaluateDistanceAttenuation(d*d, x); got <= 0 {
				t.Errorf("range %v: attenuation at %v = %v, want > 0", r, d, got)
			}
		}
	}
}

func TestDistanceAttenuationFloor(t *testing.T) {
	x, _ := DistanceAttenuation(0)
	if math32.Abs(x-1e4) > 1 {
		t.Errorf("x = %v, want 1e4 for zero range", x)
	}
}

func TestSpotAttenuationEdges(t *testing.T) {
	inner := float32(60)
	z, w := SpotAttenuation(90, &inner)

	cosOuter := math32.Cos(45 * math32.Pi / 180)
	cosInner := math32.Cos(30 * math32.Pi / 180)
	if a := cosOuter*z + w; math32.Abs(a) > 1e-4 {
		t.Errorf("attenuation at outer edge = %v, want 0", a)
	}
	if a := cosInner*z + w; math32.Abs(a-1) > 1e-4 {
		t.Errorf("attenuation at inner edge = %v, want 1", a)
	}

	zf, _ := SpotAttenuation(90, nil)
	if zf <= 0 {
		t.Errorf("fallback scale = %v, want > 0", zf)
	}
}

func TestBuildPunctual(t *testing.T) {
	point := NewLight(LightTypePoint, WithPosition(1, 2, 3), WithColor(1, 0.5, 0), WithIntensity(2), WithRange(4))
	g := BuildPunctual(point)
	if g.Position != [4]float32{1, 2, 3, 1} {
		t.Errorf("position = %v", g.Position)
	}
	if g.Color != [4]float32{2, 1, 0, 1} {
		t.Errorf("color = %v, want intensity-scaled", g.Color)
	}
	if g.Attenuation[0] != 1.0/16 || g.Attenuation[2] != 0 || g.Attenuation[3] != 1 {
		t.Errorf("attenuation = %v", g.Attenuation)
	}
	if g.SpotDirection != [4]float32{0, 0, 1, 0} {
		t.Errorf("spot direction = %v, want default", g.SpotDirection)
	}

	spot := NewLight(LightTypeSpot, WithForward(0, -2, 0))
	gs := BuildPunctual(spot)
	if gs.SpotDirection != [4]float32{0, 1, 0, 0} {
		t.Errorf("spot direction = %v, want negated forward", gs.SpotDirection)
	}
}

func TestBuildDirectionalIgnoresIntensity(t *testing.T) {
	d := BuildDirectional(NewLight(LightTypeDirectional, WithForward(1, 0, 0), WithColor(0.5, 0.5, 0.5), WithIntensity(10)))
	if d.Direction != [4]float32{-1, 0, 0, 0} {
		t.Errorf("direction = %v", d.Direction)
	}
	if d.Color[0] != 0.5 {
		t.Errorf("color = %v, want unscaled", d.Color)
	}
}

func TestSnapshotSkipsAndCounts(t *testing.T) {
	lights := []Light{
		NewLight(LightTypeDirectional),
		NewLight(LightTypePoint),
		NewLight(LightTypeSpot),
		NewLight(LightTypeArea),
		NewLight(LightTypePoint, WithBakeType(BakeTypeBaked)),
		NewLight(LightTypePoint, WithBakeType(BakeTypeMixed)),
		NewLight(LightTypePoint, WithEnabled(false)),
	}
	s := NewSnapshotBuilder().Build(lights, nil)
	if len(s.Directional) != 1 || len(s.Punctual) != 3 {
		t.Errorf("got %d directional, %d punctual, want 1, 3", len(s.Directional), len(s.Punctual))
	}
	if len(s.DirectionalBytes()) != 32 || len(s.PunctualBytes()) != 3*64 {
		t.Errorf("byte sizes = %d, %d", len(s.DirectionalBytes()), len(s.PunctualBytes()))
	}
}

func TestSnapshotEmptyStillAllocatesOneElement(t *testing.T) {
	s := NewSnapshotBuilder().Build(nil, nil)
	if len(s.DirectionalBytes()) != 32 || len(s.PunctualBytes()) != 64 {
		t.Errorf("byte sizes = %d, %d, want 32, 64", len(s.DirectionalBytes()), len(s.PunctualBytes()))
	}
	if s.Changed {
		t.Error("empty first frame should match the initial cache")
	}
}

func TestSnapshotChangeDetection(t *testing.T) {
	b := NewSnapshotBuilder()
	l := NewLight(LightTypePoint, WithColor(1, 1, 1))
	lights := []Light{l}

	if s := b.Build(lights, nil); !s.LightsChanged || !s.Changed {
		t.Fatal("first frame with a light should report a change")
	}
	if s := b.Build(lights, nil); s.Changed {
		t.Error("identical frame should not report a change")
	}

	l.SetColor(mgl32.Vec3{1, 0, 0})
	if s := b.Build(lights, nil); !s.LightsChanged {
		t.Error("color change should report a change")
	}
	if s := b.Build(lights, nil); s.Changed {
		t.Error("cache should hold the new color")
	}

	if s := b.Build(append(lights, NewLight(LightTypePoint, WithColor(1, 0, 0))), nil); !s.LightsChanged {
		t.Error("added light should report a change")
	}
}

func TestSnapshotSkyChange(t *testing.T) {
	b := NewSnapshotBuilder()
	env := &testEnv{mode: AmbientModeFlat, sky: mgl32.Vec3{0.2, 0.2, 0.2}}
	if s := b.Build(nil, env); !s.SkyChanged || s.LightsChanged {
		t.Fatalf("sky = %v, lights = %v, want sky change only", s.SkyChanged, s.LightsChanged)
	}
	if s := b.Build(nil, env); s.Changed {
		t.Error("identical sky should not report a change")
	}
	env.sky = mgl32.Vec3{0.2, 0.2, 0.20001}
	if s := b.Build(nil, env); s.Changed {
		t.Error("change below epsilon should be ignored")
	}
}

func TestSnapshotWarnsOnceForUnsupportedSky(t *testing.T) {
	var buf bytes.Buffer
	logger.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { logger.SetLogger(nil) })

	b := NewSnapshotBuilder()
	env := &testEnv{mode: AmbientModeSkybox, skybox: &SkyboxMaterial{Shader: "skybox/procedural"}}
	for range 5 {
		if s := b.Build(nil, env); s.Sky.Mode != SkyModeUnsupported {
			t.Fatalf("mode = %v, want unsupported", s.Sky.Mode)
		}
	}
	if n := strings.Count(buf.String(), "sky lighting disabled"); n != 1 {
		t.Errorf("warnings = %d, want 1\n%s", n, buf.String())
	}

	env.mode = AmbientModeFlat
	b.Build(nil, env)
	env.mode = AmbientModeSkybox
	b.Build(nil, env)
	if n := strings.Count(buf.String(), "sky lighting disabled"); n != 2 {
		t.Errorf("warnings = %d, want 2 after returning to the unsupported sky", n)
	}
}

func TestResolveSky(t *testing.T) {
	cubemap := &SkyboxMaterial{Shader: CubemapShaderName, Cubemap: nil}
	other := &SkyboxMaterial{Shader: "skybox/procedural"}

	tests := []struct {
		name   string
		env    *testEnv
		shader string
		want   SkyMode
	}{
		{"skybox without material", &testEnv{mode: AmbientModeSkybox}, CubemapShaderName, SkyModeColor},
		{"skybox with foreign shader", &testEnv{mode: AmbientModeSkybox, skybox: other}, CubemapShaderName, SkyModeUnsupported},
		{"no cubemap shader available", &testEnv{mode: AmbientModeSkybox, skybox: cubemap}, "", SkyModeUnsupported},
		{"trilight", &testEnv{mode: AmbientModeTrilight}, CubemapShaderName, SkyModeGradient},
		{"flat", &testEnv{mode: AmbientModeFlat}, CubemapShaderName, SkyModeColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveSky(tt.env, tt.shader).Mode; got != tt.want {
				t.Errorf("mode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSkyEqualIgnoresMaterialOutsideSkyboxMode(t *testing.T) {
	a := SkyDescriptor{Mode: SkyModeGradient, Ambient: AmbientModeTrilight, Exposure: 1}
	b := a
	b.Exposure = 2
	if !a.Equal(b) {
		t.Error("exposure should be ignored in trilight mode")
	}

	a.Ambient, b.Ambient = AmbientModeSkybox, AmbientModeSkybox
	if a.Equal(b) {
		t.Error("exposure should be compared in skybox mode")
	}
}
