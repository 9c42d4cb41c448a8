package light

import (
	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
	"github.com/go-gl/mathgl/mgl32"
)

// CubemapShaderName is the shader name of the only skybox material kind probes can sample.
const CubemapShaderName = "skybox/cubemap"

// SkyMode selects how escaped probe rays are shaded.
type SkyMode uint32

const (
	// SkyModeSkyboxCubemap samples the skybox cubemap.
	SkyModeSkyboxCubemap SkyMode = iota
	// SkyModeGradient blends the sky, equator and ground colors by ray elevation.
	SkyModeGradient
	// SkyModeColor returns the flat ambient color.
	SkyModeColor
	// SkyModeUnsupported returns black.
	SkyModeUnsupported
)

func (m SkyMode) String() string {
	switch m {
	case SkyModeSkyboxCubemap:
		return "skybox_cubemap"
	case SkyModeGradient:
		return "gradient"
	case SkyModeColor:
		return "color"
	case SkyModeUnsupported:
		return "unsupported"
	}
	return "unknown"
}

// AmbientMode is the host's ambient lighting source.
type AmbientMode int

const (
	AmbientModeSkybox AmbientMode = iota
	AmbientModeTrilight
	AmbientModeFlat
)

// SkyboxMaterial is the host's skybox material.
type SkyboxMaterial struct {
	// Shader is the name of the shader the material uses.
	Shader string
	// Tint is the RGB tint applied to cubemap samples.
	Tint mgl32.Vec3
	// Exposure scales cubemap samples.
	Exposure float32
	// Rotation is the rotation of the cubemap around the up axis, in degrees.
	Rotation float32
	// Cubemap is a six-layer texture holding the sky faces.
	Cubemap resource.Texture
}

// Environment is the host's ambient lighting settings.
type Environment interface {
	// AmbientMode returns the ambient lighting source.
	//
	// Returns:
	//   - AmbientMode: skybox, trilight or flat
	AmbientMode() AmbientMode

	// AmbientIntensity returns the skybox intensity multiplier.
	//
	// Returns:
	//   - float32: the intensity
	AmbientIntensity() float32

	// AmbientColors returns the sky, equator and ground colors. The sky color doubles as the
	// flat ambient color.
	//
	// Returns:
	//   - mgl32.Vec3: sky color
	//   - mgl32.Vec3: equator color
	//   - mgl32.Vec3: ground color
	AmbientColors() (mgl32.Vec3, mgl32.Vec3, mgl32.Vec3)

	// Skybox returns the skybox material, or nil when none is assigned.
	//
	// Returns:
	//   - *SkyboxMaterial: the material or nil
	Skybox() *SkyboxMaterial
}

// SkyDescriptor is the resolved sky state uploaded with the volume constants.
type SkyDescriptor struct {
	Mode      SkyMode
	Ambient   AmbientMode
	Intensity float32
	Sky       mgl32.Vec3
	Equator   mgl32.Vec3
	Ground    mgl32.Vec3

	// HasSkybox, Tint, Exposure, Rotation and Cubemap mirror the skybox material. They are
	// only meaningful in skybox ambient mode.
	HasSkybox bool
	Tint      mgl32.Vec3
	Exposure  float32
	Rotation  float32
	Cubemap   resource.Texture
}

// DefaultSky is the state a SnapshotBuilder compares the first frame against: flat black with no
// skybox.
var DefaultSky = SkyDescriptor{Mode: SkyModeColor, Ambient: AmbientModeFlat}

// ResolveSky maps the host environment onto a SkyDescriptor. A skybox mode without a material
// degrades to the flat ambient color, and a skybox whose shader is not cubemapShader (or an
// empty cubemapShader, meaning the host has none) degrades to black.
//
// Parameters:
//   - env: the host environment
//   - cubemapShader: the recognized cubemap shader name
//
// Returns:
//   - SkyDescriptor: the resolved sky
func ResolveSky(env Environment, cubemapShader string) SkyDescriptor {
	sky, equator, ground := env.AmbientColors()
	d := SkyDescriptor{
		Ambient:   env.AmbientMode(),
		Intensity: env.AmbientIntensity(),
		Sky:       sky,
		Equator:   equator,
		Ground:    ground,
	}

	if mat := env.Skybox(); mat != nil {
		d.HasSkybox = true
		d.Tint = mat.Tint
		d.Exposure = mat.Exposure
		d.Rotation = mat.Rotation
		d.Cubemap = mat.Cubemap
	}

	switch d.Ambient {
	case AmbientModeSkybox:
		switch {
		case !d.HasSkybox:
			d.Mode = SkyModeColor
		case cubemapShader == "", env.Skybox().Shader != cubemapShader || d.Cubemap == nil:
			d.Mode = SkyModeUnsupported
		default:
			d.Mode = SkyModeSkyboxCubemap
		}
	case AmbientModeTrilight:
		d.Mode = SkyModeGradient
	default:
		d.Mode = SkyModeColor
	}
	return d
}

// Equal reports whether two sky states produce the same probe lighting. Material properties are
// only compared when both sides are in skybox ambient mode.
//
// Parameters:
//   - other: the state to compare against
//
// Returns:
//   - bool: true when equal within common.FloatEpsilon
func (d SkyDescriptor) Equal(other SkyDescriptor) bool {
	if d.Ambient != other.Ambient || d.Mode != other.Mode {
		return false
	}
	if !common.NearlyEqual(d.Intensity, other.Intensity) ||
		!vec3NearlyEqual(d.Sky, other.Sky) ||
		!vec3NearlyEqual(d.Equator, other.Equator) ||
		!vec3NearlyEqual(d.Ground, other.Ground) {
		return false
	}
	if d.Ambient != AmbientModeSkybox {
		return true
	}
	return d.HasSkybox == other.HasSkybox &&
		vec3NearlyEqual(d.Tint, other.Tint) &&
		common.NearlyEqual(d.Exposure, other.Exposure) &&
		common.NearlyEqual(d.Rotation, other.Rotation) &&
		d.Cubemap == other.Cubemap
}

func vec3NearlyEqual(a, b mgl32.Vec3) bool {
	return common.NearlyEqual(a[0], b[0]) && common.NearlyEqual(a[1], b[1]) && common.NearlyEqual(a[2], b[2])
}
