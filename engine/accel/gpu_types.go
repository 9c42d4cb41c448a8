package accel

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
)

// GPUBVHSource is the canonical WGSL definition of the BVHNode and BVHTriangle structs plus the
// ray/box and ray/triangle tests used during traversal.
//
//go:embed assets/bvh.wgsl
var GPUBVHSource string

// GPUNodeSize is the encoded size of one Node in bytes.
const GPUNodeSize = 32

// GPUTriangleSize is the encoded size of one Triangle in bytes.
const GPUTriangleSize = 48

// MarshalNode encodes a node in the WGSL BVHNode layout.
//
//	offset  0: bounds min xyz
//	offset 12: second child index (interior) or first triangle (leaf)
//	offset 16: bounds max xyz
//	offset 28: triangle count, 0 for interior nodes
//
// Parameters:
//   - buf: destination, at least GPUNodeSize bytes
//   - n: the node to encode
func MarshalNode(buf []byte, n Node) {
	common.PutFloat32s(buf, 0, n.Bounds.Min[:]...)
	common.PutUint32s(buf, 12, n.Offset)
	common.PutFloat32s(buf, 16, n.Bounds.Max[:]...)
	common.PutUint32s(buf, 28, n.TriangleCount)
}

// MarshalTriangle encodes a triangle in the WGSL BVHTriangle layout, with the albedo channels
// stored in the w components of the three vertices.
//
// Parameters:
//   - buf: destination, at least GPUTriangleSize bytes
//   - t: the triangle to encode
func MarshalTriangle(buf []byte, t Triangle) {
	common.PutFloat32s(buf, 0, t.V0[0], t.V0[1], t.V0[2], t.Albedo[0])
	common.PutFloat32s(buf, 16, t.V1[0], t.V1[1], t.V1[2], t.Albedo[1])
	common.PutFloat32s(buf, 32, t.V2[0], t.V2[1], t.V2[2], t.Albedo[2])
}

// NodeBytes encodes every node. An empty hierarchy still yields one zeroed node because
// zero-sized GPU buffers are invalid; kernels must check the node count.
//
// Returns:
//   - []byte: max(len(Nodes), 1) * GPUNodeSize bytes
func (b *BVH) NodeBytes() []byte {
	buf := make([]byte, max(len(b.Nodes), 1)*GPUNodeSize)
	for i, n := range b.Nodes {
		MarshalNode(buf[i*GPUNodeSize:], n)
	}
	return buf
}

// TriangleBytes encodes every triangle, with the same one-element minimum as NodeBytes.
//
// Returns:
//   - []byte: max(len(Triangles), 1) * GPUTriangleSize bytes
func (b *BVH) TriangleBytes() []byte {
	buf := make([]byte, max(len(b.Triangles), 1)*GPUTriangleSize)
	for i, t := range b.Triangles {
		MarshalTriangle(buf[i*GPUTriangleSize:], t)
	}
	return buf
}
