package light

import (
	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/chewxy/math32"
)

// innerSpotFallbackRatio is the tangent ratio used to derive an inner cone from the outer one
// when a spot light does not define an inner angle.
const innerSpotFallbackRatio float32 = 46.0 / 64.0

// fadeStart is the squared fraction of the range at which the linear fade variant begins.
const fadeStart float32 = 0.8 * 0.8

// DistanceAttenuation computes the distance attenuation coefficients stored in
// GPUPunctualLight.Attenuation.xy.
//
// Parameters:
//   - lightRange: the light's range
//
// Returns:
//   - float32: x, the inverse squared range (with a 1e-4 floor on the squared range)
//   - float32: y, the fade-range ratio used by the linear fade shading variant
func DistanceAttenuation(lightRange float32) (float32, float32) {
	rangeSq := lightRange * lightRange
	x := 1 / math32.Max(1e-4, rangeSq)
	fadeRangeSq := fadeStart*rangeSq - rangeSq
	var y float32
	if fadeRangeSq != 0 {
		y = -rangeSq / fadeRangeSq
	}
	return x, y
}

// EvaluateDistanceAttenuation is the CPU twin of the kernel's smooth inverse-square falloff.
// The result is exactly zero at the light range and strictly positive inside it.
//
// Parameters:
//   - distSq: squared distance from the light
//   - invRangeSq: the x coefficient returned by DistanceAttenuation
//
// Returns:
//   - float32: the attenuation factor
func EvaluateDistanceAttenuation(distSq, invRangeSq float32) float32 {
	factor := distSq * invRangeSq
	smooth := common.Saturate(1 - factor*factor)
	return (1 / math32.Max(distSq, 1e-4)) * smooth * smooth
}

// SpotAttenuation computes the angular attenuation coefficients stored in
// GPUPunctualLight.Attenuation.zw.
//
// Parameters:
//   - outerDeg: the full outer cone angle in degrees
//   - innerDeg: the full inner cone angle in degrees, or nil for the default falloff
//
// Returns:
//   - float32: z, the angular scale
//   - float32: w, the angular offset
func SpotAttenuation(outerDeg float32, innerDeg *float32) (float32, float32) {
	halfOuter := outerDeg * 0.5 * math32.Pi / 180
	cosOuter := math32.Cos(halfOuter)

	var cosInner float32
	if innerDeg != nil {
		cosInner = math32.Cos(*innerDeg * 0.5 * math32.Pi / 180)
	} else {
		cosInner = math32.Cos(math32.Atan(math32.Tan(halfOuter) * innerSpotFallbackRatio))
	}

	invRange := 1 / math32.Max(0.001, cosInner-cosOuter)
	return invRange, -cosOuter * invRange
}

// BuildPunctual converts a point or spot light into its GPU representation.
//
// Parameters:
//   - l: the light to convert
//
// Returns:
//   - GPUPunctualLight: the packed light
func BuildPunctual(l Light) GPUPunctualLight {
	p := l.Position()
	c := l.Color().Mul(l.Intensity())
	g := GPUPunctualLight{
		Position:      [4]float32{p[0], p[1], p[2], 1},
		Color:         [4]float32{c[0], c[1], c[2], 1},
		Attenuation:   [4]float32{0, 1, 0, 1},
		SpotDirection: [4]float32{0, 0, 1, 0},
	}
	g.Attenuation[0], g.Attenuation[1] = DistanceAttenuation(l.Range())

	if l.Type() == LightTypeSpot {
		f := l.Forward()
		g.SpotDirection = [4]float32{-f[0], -f[1], -f[2], 0}
		g.Attenuation[2], g.Attenuation[3] = SpotAttenuation(l.SpotAngle(), l.InnerSpotAngle())
	}
	return g
}

// BuildDirectional converts a directional light into its GPU representation. The color is not
// scaled by intensity.
//
// Parameters:
//   - l: the light to convert
//
// Returns:
//   - GPUDirectionalLight: the packed light
func BuildDirectional(l Light) GPUDirectionalLight {
	f := l.Forward()
	c := l.Color()
	return GPUDirectionalLight{
		Direction: [4]float32{-f[0], -f[1], -f[2], 0},
		Color:     [4]float32{c[0], c[1], c[2], 1},
	}
}
