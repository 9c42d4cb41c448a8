package light

import "github.com/go-gl/mathgl/mgl32"

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. Affects all surfaces
	// uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Attenuates with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along its forward axis.
	// Attenuates with both distance and angle from the cone axis.
	LightTypeSpot

	// LightTypeArea represents an emissive rectangle or disc. Area lights do not contribute
	// to dynamic probe lighting.
	LightTypeArea
)

// BakeType describes whether a light is evaluated at runtime, baked offline, or both.
type BakeType int

const (
	// BakeTypeRealtime lights are fully dynamic.
	BakeTypeRealtime BakeType = iota
	// BakeTypeMixed lights are baked for static geometry and dynamic for everything else.
	BakeTypeMixed
	// BakeTypeBaked lights exist only in baked lighting data.
	BakeTypeBaked
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType  LightType
	bakeType   BakeType
	position   mgl32.Vec3
	forward    mgl32.Vec3
	color      mgl32.Vec3
	intensity  float32
	lightRange float32
	spotAngle  float32  // full outer cone angle in degrees
	innerAngle *float32 // full inner cone angle in degrees, nil when unset
	enabled    bool
}

// Light defines the interface for a light source in the scene.
//
// All light types (directional, point, spot, area) share this interface; type-specific
// properties (e.g. cone angles for spot lights) are ignored when not applicable.
//
// Lights are owned by the scene and snapshotted into GPU storage buffers every frame
// by a SnapshotBuilder.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, spot or area)
	Type() LightType

	// BakeType returns how the light participates in baked lighting.
	// Baked lights are skipped by the snapshot.
	//
	// Returns:
	//   - BakeType: the bake type
	BakeType() BakeType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - mgl32.Vec3: position as (x, y, z)
	Position() mgl32.Vec3

	// Forward returns the normalized direction the light faces.
	// For directional lights this is the direction light travels. For spot lights this
	// is the cone axis. Meaningless for point lights.
	//
	// Returns:
	//   - mgl32.Vec3: normalized forward vector
	Forward() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the distance at which point and spot lights fade to zero.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// SpotAngle returns the full outer cone angle of a spot light in degrees.
	//
	// Returns:
	//   - float32: the outer cone angle
	SpotAngle() float32

	// InnerSpotAngle returns the full inner cone angle in degrees, or nil when the light does
	// not define one and the default falloff applies.
	//
	// Returns:
	//   - *float32: the inner cone angle or nil
	InnerSpotAngle() *float32

	// Enabled returns whether this light is active.
	// Disabled lights are skipped during snapshotting.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - p: the new position
	SetPosition(p mgl32.Vec3)

	// SetForward sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - f: the new forward direction (will be normalized)
	SetForward(f mgl32.Vec3)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - c: the new color
	SetColor(c mgl32.Vec3)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetRange sets the attenuation range.
	//
	// Parameters:
	//   - lightRange: the range value
	SetRange(lightRange float32)

	// SetSpotAngles sets the full outer and optional inner cone angles in degrees.
	//
	// Parameters:
	//   - outerDeg: the outer cone angle
	//   - innerDeg: the inner cone angle, or nil for the default falloff
	SetSpotAngles(outerDeg float32, innerDeg *float32)

	// SetEnabled enables or disables the light.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:  lightType,
		bakeType:   BakeTypeRealtime,
		forward:    mgl32.Vec3{0, -1, 0},
		color:      mgl32.Vec3{1, 1, 1},
		intensity:  1.0,
		lightRange: 10.0,
		spotAngle:  30.0,
		enabled:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) BakeType() BakeType {
	return l.bakeType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Forward() mgl32.Vec3 {
	return l.forward
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) SpotAngle() float32 {
	return l.spotAngle
}

func (l *lightImpl) InnerSpotAngle() *float32 {
	return l.innerAngle
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) SetPosition(p mgl32.Vec3) {
	l.position = p
}

func (l *lightImpl) SetForward(f mgl32.Vec3) {
	l.forward = normalizeOr(f, l.forward)
}

func (l *lightImpl) SetColor(c mgl32.Vec3) {
	l.color = c
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.lightRange = lightRange
}

func (l *lightImpl) SetSpotAngles(outerDeg float32, innerDeg *float32) {
	l.spotAngle = outerDeg
	if innerDeg == nil {
		l.innerAngle = nil
		return
	}
	inner := *innerDeg
	l.innerAngle = &inner
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

// normalizeOr returns v normalized, or fallback when v has zero length.
func normalizeOr(v, fallback mgl32.Vec3) mgl32.Vec3 {
	if v.Len() == 0 {
		return fallback
	}
	return v.Normalize()
}
