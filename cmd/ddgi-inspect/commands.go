package main

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/ddgi/volume"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/urfave/cli"
)

// texelBytes is the storage size of one texel of each surface.
var texelBytes = map[volume.SurfaceKind]int{
	volume.SurfaceIrradiance:         8,  // rgba16float
	volume.SurfaceDistance:           8,  // rg32float
	volume.SurfaceProbeData:          8,  // rgba16float
	volume.SurfaceVariability:        4,  // r32float
	volume.SurfaceVariabilityAverage: 8,  // rg32float
	volume.SurfaceRayData:            16, // one ray record
}

func gridCounts(c *cli.Context) [3]int {
	return [3]int{c.Int("x"), c.Int("y"), c.Int("z")}
}

func layout(c *cli.Context) error {
	half := float32(c.Float64("extent")) / 2
	bounds := common.NewAABBFromCenter(mgl32.Vec3{}, mgl32.Vec3{half, half, half})
	desc, err := volume.NewDescriptor(bounds, gridCounts(c), c.Int("rays"))
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	logger.For("ddgi").Debug("described volume", "origin", desc.Origin, "extents", desc.Extents)

	w := c.App.Writer
	fmt.Fprintf(w, "probes   %v (%d total), %d rays each\n", desc.ProbeCounts, desc.ProbeCountFlat(), desc.RaysPerProbe)
	fmt.Fprintf(w, "spacing  %.3f %.3f %.3f\n", desc.ProbeSpacing()[0], desc.ProbeSpacing()[1], desc.ProbeSpacing()[2])

	var total int
	for _, kind := range volume.SurfaceKinds {
		dims := volume.SurfaceDimensions(desc.ProbeCounts, kind)
		size := dims.Texels() * texelBytes[kind]
		total += size
		fmt.Fprintf(w, "%-20s %5d x %5d x %3d  %10d bytes\n", kind, dims.Width, dims.Height, dims.Layers, size)
	}
	fmt.Fprintf(w, "%-20s %38d bytes\n", "total", total)
	return nil
}

func reduction(c *cli.Context) error {
	counts := gridCounts(c)
	for axis, n := range counts {
		if n < volume.MinProbeCount || n > volume.MaxProbeCount {
			return fmt.Errorf("reduction: axis %d count %d: %w", axis, n, volume.ErrProbeCount)
		}
	}

	w := c.App.Writer
	for i, pass := range volume.ReductionChain(counts) {
		kernel := "reduce"
		if i > 0 {
			kernel = "reduce_extra"
		}
		fmt.Fprintf(w, "%d  %-12s input %v  groups %v\n", i, kernel, pass.Input, pass.Groups)
	}
	return nil
}

func attenuation(c *cli.Context) error {
	lightRange := float32(c.Float64("range"))
	if lightRange <= 0 {
		return errors.New("attenuation: range must be positive")
	}
	var inner *float32
	if c.IsSet("inner") {
		v := float32(c.Float64("inner"))
		inner = &v
	}

	invRangeSq, fade := light.DistanceAttenuation(lightRange)
	scale, offset := light.SpotAttenuation(float32(c.Float64("outer")), inner)

	w := c.App.Writer
	fmt.Fprintf(w, "distance  x=%.6g y=%.6g\n", invRangeSq, fade)
	fmt.Fprintf(w, "spot      z=%.6g w=%.6g\n", scale, offset)

	samples := max(c.Int("samples"), 1)
	for i := 0; i <= samples; i++ {
		d := lightRange * float32(i) / float32(samples)
		fmt.Fprintf(w, "  d=%-8.3f %.6g\n", d, light.EvaluateDistanceAttenuation(d*d, invRangeSq))
	}
	return nil
}
