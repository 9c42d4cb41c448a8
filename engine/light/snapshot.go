package light

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
)

// Snapshot is the per-frame light state produced by a SnapshotBuilder.
type Snapshot struct {
	Directional []GPUDirectionalLight
	Punctual    []GPUPunctualLight
	Sky         SkyDescriptor

	// LightsChanged is true when either light array differs from the previous frame.
	LightsChanged bool
	// SkyChanged is true when the sky differs from the previous frame.
	SkyChanged bool
	// Changed is LightsChanged || SkyChanged; probe variability must be reset when set.
	Changed bool
}

// DirectionalBytes returns the directional lights packed for upload.
func (s Snapshot) DirectionalBytes() []byte {
	return MarshalDirectionalLights(s.Directional)
}

// PunctualBytes returns the punctual lights packed for upload.
func (s Snapshot) PunctualBytes() []byte {
	return MarshalPunctualLights(s.Punctual)
}

// SnapshotBuilder converts scene lights into GPU arrays each frame and detects changes against
// the previous frame.
type SnapshotBuilder struct {
	cubemapShader string

	prevDirectional []GPUDirectionalLight
	prevPunctual    []GPUPunctualLight
	prevSky         SkyDescriptor
}

// SnapshotBuilderOption is a function that configures a SnapshotBuilder during construction.
type SnapshotBuilderOption func(*SnapshotBuilder)

// WithCubemapShader sets the skybox shader name the probes can sample. An empty name means the
// host has no cubemap skybox shader and every skybox degrades to black.
//
// Parameters:
//   - name: the shader name
//
// Returns:
//   - SnapshotBuilderOption: a function that applies the option to a SnapshotBuilder
func WithCubemapShader(name string) SnapshotBuilderOption {
	return func(b *SnapshotBuilder) {
		b.cubemapShader = name
	}
}

// NewSnapshotBuilder creates a SnapshotBuilder whose cache starts empty with DefaultSky.
//
// Parameters:
//   - opts: variadic list of SnapshotBuilderOption functions
//
// Returns:
//   - *SnapshotBuilder: the builder
func NewSnapshotBuilder(opts ...SnapshotBuilderOption) *SnapshotBuilder {
	b := &SnapshotBuilder{
		cubemapShader: CubemapShaderName,
		prevSky:       DefaultSky,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build snapshots lights and env. Disabled, baked and area lights are skipped. The cached arrays
// and sky are replaced only when they changed.
//
// Parameters:
//   - lights: the scene lights
//   - env: the host environment, nil keeps DefaultSky
//
// Returns:
//   - Snapshot: the frame's light state
func (b *SnapshotBuilder) Build(lights []Light, env Environment) Snapshot {
	var s Snapshot
	for _, l := range lights {
		if l == nil || !l.Enabled() || l.BakeType() == BakeTypeBaked {
			continue
		}
		switch l.Type() {
		case LightTypeDirectional:
			s.Directional = append(s.Directional, BuildDirectional(l))
		case LightTypePoint, LightTypeSpot:
			s.Punctual = append(s.Punctual, BuildPunctual(l))
		}
	}

	s.Sky = DefaultSky
	if env != nil {
		s.Sky = ResolveSky(env, b.cubemapShader)
	}

	s.LightsChanged = !slices.Equal(s.Directional, b.prevDirectional) || !slices.Equal(s.Punctual, b.prevPunctual)
	s.SkyChanged = !s.Sky.Equal(b.prevSky)
	s.Changed = s.LightsChanged || s.SkyChanged

	if s.LightsChanged {
		b.prevDirectional = s.Directional
		b.prevPunctual = s.Punctual
	}
	if s.SkyChanged {
		b.prevSky = s.Sky
		if s.Sky.Mode == SkyModeUnsupported {
			b.warnUnsupportedSky(env)
		}
	}
	return s
}

// Reset forgets the cached lights and sky.
func (b *SnapshotBuilder) Reset() {
	b.prevDirectional = nil
	b.prevPunctual = nil
	b.prevSky = DefaultSky
}

func (b *SnapshotBuilder) warnUnsupportedSky(env Environment) {
	if b.cubemapShader == "" {
		logger.For("light").Warn("no cubemap skybox shader registered, sky lighting disabled")
		return
	}
	logger.For("light").Warn("unsupported skybox material, sky lighting disabled", "shader", env.Skybox().Shader)
}
