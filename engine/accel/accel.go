// Package accel builds the ray tracing acceleration structure the probe ray kernel traverses:
// a linear bounding volume hierarchy over world-space scene triangles.
package accel

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrIndexOutOfRange is returned when a mesh index references a missing vertex.
var ErrIndexOutOfRange = errors.New("mesh index out of range")

// DefaultMaxLeafTriangles is the triangle count at or below which a node becomes a leaf.
const DefaultMaxLeafTriangles = 4

// maxDepth bounds the tree depth so the kernel's fixed traversal stack never overflows.
const maxDepth = 30

// Mesh is an indexed triangle list in object space plus its placement in the world.
type Mesh struct {
	// Positions are the object-space vertex positions.
	Positions []mgl32.Vec3
	// Indices lists three vertex indices per triangle.
	Indices []uint32
	// Transform maps object space to world space.
	Transform mgl32.Mat4
	// Albedo is the diffuse color returned for ray hits on this mesh.
	Albedo mgl32.Vec3
}

// TriangleCount returns the number of complete triangles described by the index list.
func (m Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle is a world-space triangle with its surface albedo.
type Triangle struct {
	V0, V1, V2 mgl32.Vec3
	Albedo     mgl32.Vec3
}

// Bounds returns the triangle's bounding box.
func (t Triangle) Bounds() common.AABB {
	return common.AABB{Min: t.V0, Max: t.V0}.EncapsulatePoint(t.V1).EncapsulatePoint(t.V2)
}

// Centroid returns the average of the three vertices.
func (t Triangle) Centroid() mgl32.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Mul(1.0 / 3.0)
}

// Node is one entry of the flattened hierarchy. Leaves have TriangleCount > 0 and reference
// Triangles[Offset : Offset+TriangleCount]. Interior nodes have TriangleCount == 0; their first
// child immediately follows them and Offset is the index of the second child.
type Node struct {
	Bounds        common.AABB
	Offset        uint32
	TriangleCount uint32
}

// IsLeaf reports whether the node references triangles.
func (n Node) IsLeaf() bool {
	return n.TriangleCount > 0
}

// BVH is a linear bounding volume hierarchy. An empty BVH has no nodes.
type BVH struct {
	Nodes     []Node
	Triangles []Triangle

	// Depth is the deepest level reached, with the root at 0.
	Depth int
	// Leaves is the number of leaf nodes.
	Leaves int
}

// Bounds returns the root bounds, or the zero AABB for an empty hierarchy.
func (b *BVH) Bounds() common.AABB {
	if b == nil || len(b.Nodes) == 0 {
		return common.AABB{}
	}
	return b.Nodes[0].Bounds
}

// Empty reports whether the hierarchy contains no triangles.
func (b *BVH) Empty() bool {
	return b == nil || len(b.Nodes) == 0
}
