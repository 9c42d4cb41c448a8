package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = mgl32.Vec3{x, y, z}
	}
}

// WithForward is an option builder that sets the direction the light faces.
// The direction is normalized before storing.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - LightBuilderOption: a function that applies the forward option to a lightImpl
func WithForward(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.forward = normalizeOr(mgl32.Vec3{x, y, z}, l.forward)
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = mgl32.Vec3{r, g, b}
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithRange is an option builder that sets the attenuation range of point and spot lights.
//
// Parameters:
//   - lightRange: the range value
//
// Returns:
//   - LightBuilderOption: a function that applies the range option to a lightImpl
func WithRange(lightRange float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.lightRange = lightRange
	}
}

// WithSpotAngle is an option builder that sets the full outer cone angle in degrees.
//
// Parameters:
//   - outerDeg: the outer cone angle
//
// Returns:
//   - LightBuilderOption: a function that applies the spot angle option to a lightImpl
func WithSpotAngle(outerDeg float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.spotAngle = outerDeg
	}
}

// WithInnerSpotAngle is an option builder that sets the full inner cone angle in degrees.
// Without it spot lights use the default falloff derived from the outer angle.
//
// Parameters:
//   - innerDeg: the inner cone angle
//
// Returns:
//   - LightBuilderOption: a function that applies the inner spot angle option to a lightImpl
func WithInnerSpotAngle(innerDeg float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.innerAngle = &innerDeg
	}
}

// WithBakeType is an option builder that sets how the light participates in baked lighting.
//
// Parameters:
//   - bakeType: the bake type
//
// Returns:
//   - LightBuilderOption: a function that applies the bake type option to a lightImpl
func WithBakeType(bakeType BakeType) LightBuilderOption {
	return func(l *lightImpl) {
		l.bakeType = bakeType
	}
}

// WithEnabled is an option builder that sets whether the light is active.
//
// Parameters:
//   - enabled: true to enable
//
// Returns:
//   - LightBuilderOption: a function that applies the enabled option to a lightImpl
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}
