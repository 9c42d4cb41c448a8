// Package volume computes the layout of a probe volume: where probes sit, how large each GPU
// surface is, and how the variability reduction is dispatched. Everything here is pure.
package volume

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// IrradianceInteriorTexels is the octahedral interior size of one probe's irradiance tile.
	IrradianceInteriorTexels = 6
	// IrradianceTexels is the irradiance tile size including its one texel border.
	IrradianceTexels = IrradianceInteriorTexels + 2
	// DistanceInteriorTexels is the octahedral interior size of one probe's distance tile.
	DistanceInteriorTexels = 14
	// DistanceTexels is the distance tile size including its one texel border.
	DistanceTexels = DistanceInteriorTexels + 2

	// MaxRaysPerProbe is the ray record stride per probe in the ray buffer.
	MaxRaysPerProbe = 512
	// RayRecordBytes is the size of one ray record (radiance rgb + hit distance).
	RayRecordBytes = 16

	// BoundsMargin scales the scene half-extents so border geometry lies inside the volume.
	BoundsMargin float32 = 1.1

	// MinProbeCount and MaxProbeCount bound the probe count along each axis.
	MinProbeCount = 1
	MaxProbeCount = 25

	// RelocationGroupSize is the workgroup width of the per-probe relocation and classification kernels.
	RelocationGroupSize = 32
)

var (
	// ReductionThreadsPerGroup is the workgroup size of the variability reduction kernels.
	ReductionThreadsPerGroup = [3]int{4, 8, 4}
	// ReductionSampleFootprint is how many input texels each reduction thread averages in x and y.
	ReductionSampleFootprint = [2]int{4, 2}
)

var (
	// ErrDegenerateBounds is returned when the scene bounds enclose no volume.
	ErrDegenerateBounds = errors.New("volume bounds are degenerate")
	// ErrProbeCount is returned when a probe count is outside [MinProbeCount, MaxProbeCount].
	ErrProbeCount = errors.New("probe count out of range")
	// ErrRayCount is returned when the rays per probe are outside [1, MaxRaysPerProbe].
	ErrRayCount = errors.New("rays per probe out of range")
)

// SurfaceKind names one of the volume's GPU surfaces.
type SurfaceKind int

const (
	SurfaceIrradiance SurfaceKind = iota
	SurfaceDistance
	SurfaceProbeData
	SurfaceVariability
	SurfaceVariabilityAverage
	SurfaceRayData
)

// SurfaceKinds lists every kind in declaration order.
var SurfaceKinds = []SurfaceKind{
	SurfaceIrradiance,
	SurfaceDistance,
	SurfaceProbeData,
	SurfaceVariability,
	SurfaceVariabilityAverage,
	SurfaceRayData,
}

func (k SurfaceKind) String() string {
	switch k {
	case SurfaceIrradiance:
		return "irradiance"
	case SurfaceDistance:
		return "distance"
	case SurfaceProbeData:
		return "probe-data"
	case SurfaceVariability:
		return "variability"
	case SurfaceVariabilityAverage:
		return "variability-average"
	case SurfaceRayData:
		return "ray-data"
	}
	return "unknown"
}

// Dimensions is the size of a 2D array surface. Layers is always the probe grid's Y axis,
// except for the variability average which is a reduction output.
type Dimensions struct {
	Width, Height, Layers int
}

// Texels returns Width * Height * Layers.
func (d Dimensions) Texels() int {
	return d.Width * d.Height * d.Layers
}

// Descriptor is the CPU-side description of a probe volume.
type Descriptor struct {
	// Origin is the world-space center of the volume.
	Origin mgl32.Vec3
	// Extents is the half-size of the volume, already scaled by BoundsMargin.
	Extents mgl32.Vec3
	// ProbeCounts is the probe grid size along x, y and z. Y is up.
	ProbeCounts [3]int
	// RaysPerProbe is how many rays each probe traces per frame.
	RaysPerProbe int
	// MaxRaysPerProbe is the ray buffer stride per probe.
	MaxRaysPerProbe int
}

// NewDescriptor builds a descriptor from scene bounds.
//
// Parameters:
//   - bounds: the world-space scene bounds
//   - counts: the probe grid size per axis, each within [MinProbeCount, MaxProbeCount]
//   - rays: the rays traced per probe per frame, within [1, MaxRaysPerProbe]
//
// Returns:
//   - Descriptor: the volume descriptor
//   - error: ErrDegenerateBounds, ErrProbeCount or ErrRayCount
func NewDescriptor(bounds common.AABB, counts [3]int, rays int) (Descriptor, error) {
	if bounds.IsDegenerate() {
		return Descriptor{}, ErrDegenerateBounds
	}
	for axis, c := range counts {
		if c < MinProbeCount || c > MaxProbeCount {
			return Descriptor{}, fmt.Errorf("axis %d count %d: %w", axis, c, ErrProbeCount)
		}
	}
	if rays < 1 || rays > MaxRaysPerProbe {
		return Descriptor{}, fmt.Errorf("%d rays: %w", rays, ErrRayCount)
	}
	return Descriptor{
		Origin:          bounds.Center(),
		Extents:         bounds.Extents().Mul(BoundsMargin),
		ProbeCounts:     counts,
		RaysPerProbe:    rays,
		MaxRaysPerProbe: MaxRaysPerProbe,
	}, nil
}

// ProbeCountFlat returns the total number of probes.
func (d Descriptor) ProbeCountFlat() int {
	return d.ProbeCounts[0] * d.ProbeCounts[1] * d.ProbeCounts[2]
}

// RayCount returns the number of ray records the ray buffer holds.
func (d Descriptor) RayCount() int {
	return d.ProbeCountFlat() * d.MaxRaysPerProbe
}

// StartPosition returns the world-space position of probe (0, 0, 0).
func (d Descriptor) StartPosition() mgl32.Vec3 {
	return d.Origin.Sub(d.Extents)
}

// ProbeSpacing returns the distance between neighboring probes along each axis. An axis with a
// single probe has zero spacing.
func (d Descriptor) ProbeSpacing() mgl32.Vec3 {
	var spacing mgl32.Vec3
	for i := range 3 {
		if d.ProbeCounts[i] > 1 {
			spacing[i] = 2 * d.Extents[i] / float32(d.ProbeCounts[i]-1)
		}
	}
	return spacing
}

// ProbePosition returns the unrelocated world-space position of the probe at grid coordinate c.
func (d Descriptor) ProbePosition(c [3]int) mgl32.Vec3 {
	spacing := d.ProbeSpacing()
	start := d.StartPosition()
	return mgl32.Vec3{
		start[0] + float32(c[0])*spacing[0],
		start[1] + float32(c[1])*spacing[1],
		start[2] + float32(c[2])*spacing[2],
	}
}

// SurfaceDimensions returns the size of a surface for the given probe counts.
//
// Parameters:
//   - counts: the probe grid size along x, y and z
//   - kind: the surface
//
// Returns:
//   - Dimensions: width, height and layer count
func SurfaceDimensions(counts [3]int, kind SurfaceKind) Dimensions {
	x, y, z := counts[0], counts[1], counts[2]
	switch kind {
	case SurfaceIrradiance:
		return Dimensions{x * IrradianceTexels, z * IrradianceTexels, y}
	case SurfaceDistance:
		return Dimensions{x * DistanceTexels, z * DistanceTexels, y}
	case SurfaceProbeData:
		return Dimensions{x, z, y}
	case SurfaceVariability:
		return Dimensions{x * IrradianceInteriorTexels, z * IrradianceInteriorTexels, y}
	case SurfaceVariabilityAverage:
		out := ReductionStep(ReductionInput(counts))
		return Dimensions{out[0], out[1], out[2]}
	case SurfaceRayData:
		return Dimensions{MaxRaysPerProbe, x * z, y}
	}
	return Dimensions{}
}

// ReductionInput returns the texel extent of the variability surface the first reduction reads.
func ReductionInput(counts [3]int) [3]int {
	return [3]int{counts[0] * IrradianceInteriorTexels, counts[2] * IrradianceInteriorTexels, counts[1]}
}

// ReductionStep returns the output extent, and so the workgroup count, of one reduction pass
// over an input of extent in.
func ReductionStep(in [3]int) [3]int {
	return [3]int{
		common.CeilDiv(in[0], ReductionThreadsPerGroup[0]*ReductionSampleFootprint[0]),
		common.CeilDiv(in[1], ReductionThreadsPerGroup[1]*ReductionSampleFootprint[1]),
		common.CeilDiv(in[2], ReductionThreadsPerGroup[2]),
	}
}

// ReductionPass is one dispatch of the variability reduction.
type ReductionPass struct {
	// Input is the texel extent read by the pass.
	Input [3]int
	// Groups is the workgroup count, equal to the texel extent written.
	Groups [3]int
}

// ReductionChain returns every reduction dispatch for the given probe counts: the first pass
// over the variability surface, then extra passes over the average until one texel remains.
func ReductionChain(counts [3]int) []ReductionPass {
	in := ReductionInput(counts)
	out := ReductionStep(in)
	chain := []ReductionPass{{Input: in, Groups: out}}
	for out[0] > 1 || out[1] > 1 || out[2] > 1 {
		in = out
		out = ReductionStep(in)
		chain = append(chain, ReductionPass{Input: in, Groups: out})
	}
	return chain
}

// RelocationGroups returns the workgroup count of the per-probe kernels for flat probes.
func RelocationGroups(flat int) int {
	return common.CeilDiv(flat, RelocationGroupSize)
}

// RayDispatchGroups returns the workgroup grid of the ray trace kernel: one row of
// ceil(rays/groupWidth) groups per probe.
func RayDispatchGroups(rays, flat, groupWidth int) [3]int {
	return [3]int{common.CeilDiv(rays, groupWidth), flat, 1}
}
