// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// AABB is a world-space axis-aligned bounding box.
// The zero value is an empty box at the origin, which Encapsulate treats as "no bounds yet".
type AABB struct {
	// Min is the minimum corner of the box.
	Min mgl32.Vec3
	// Max is the maximum corner of the box.
	Max mgl32.Vec3
}

// NewAABBFromCenter builds an AABB from a center point and half-extents.
//
// Parameters:
//   - center: the box center
//   - extents: the half-size along each axis
//
// Returns:
//   - AABB: the resulting box
func NewAABBFromCenter(center, extents mgl32.Vec3) AABB {
	return AABB{Min: center.Sub(extents), Max: center.Add(extents)}
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extents returns the half-size of the box along each axis.
func (b AABB) Extents() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Size returns the full size of the box along each axis.
func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// IsEmpty reports whether the box has zero extent on every axis.
// An empty box means no geometry has contributed to it.
func (b AABB) IsEmpty() bool {
	return b.Extents() == (mgl32.Vec3{})
}

// IsDegenerate reports whether any axis has zero (or negative) extent, i.e. the box
// encloses no volume.
func (b AABB) IsDegenerate() bool {
	e := b.Extents()
	return e[0] <= 0 || e[1] <= 0 || e[2] <= 0
}

// Encapsulate grows b to contain other and returns the result. An empty receiver
// adopts other wholesale, so unions can start from the zero value.
//
// Parameters:
//   - other: the box to include
//
// Returns:
//   - AABB: the union of both boxes
func (b AABB) Encapsulate(other AABB) AABB {
	if b == (AABB{}) {
		return other
	}
	return AABB{
		Min: mgl32.Vec3{math32.Min(b.Min[0], other.Min[0]), math32.Min(b.Min[1], other.Min[1]), math32.Min(b.Min[2], other.Min[2])},
		Max: mgl32.Vec3{math32.Max(b.Max[0], other.Max[0]), math32.Max(b.Max[1], other.Max[1]), math32.Max(b.Max[2], other.Max[2])},
	}
}

// EncapsulatePoint grows b to contain p.
func (b AABB) EncapsulatePoint(p mgl32.Vec3) AABB {
	return AABB{
		Min: mgl32.Vec3{math32.Min(b.Min[0], p[0]), math32.Min(b.Min[1], p[1]), math32.Min(b.Min[2], p[2])},
		Max: mgl32.Vec3{math32.Max(b.Max[0], p[0]), math32.Max(b.Max[1], p[1]), math32.Max(b.Max[2], p[2])},
	}
}

// Contains reports whether other lies entirely inside b.
func (b AABB) Contains(other AABB) bool {
	for i := range 3 {
		if other.Min[i] < b.Min[i] || other.Max[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// LongestAxis returns the index (0=x, 1=y, 2=z) of the largest dimension.
func (b AABB) LongestAxis() int {
	s := b.Size()
	axis := 0
	if s[1] > s[axis] {
		axis = 1
	}
	if s[2] > s[axis] {
		axis = 2
	}
	return axis
}

// SurfaceArea returns the total surface area of the box.
func (b AABB) SurfaceArea() float32 {
	s := b.Size()
	return 2 * (s[0]*s[1] + s[1]*s[2] + s[2]*s[0])
}
