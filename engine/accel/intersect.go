package accel

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Hit describes the closest intersection found by Intersect.
type Hit struct {
	// T is the distance along the ray.
	T float32
	// Triangle indexes BVH.Triangles.
	Triangle int
	// FrontFace is true when the ray hit the counter-clockwise side.
	FrontFace bool
}

// Intersect finds the closest triangle hit by the ray within tMax. It is the CPU twin of the
// kernel traversal, used by tests and tools.
//
// Parameters:
//   - origin: the ray origin
//   - dir: the ray direction, need not be normalized
//   - tMax: the maximum hit distance
//
// Returns:
//   - Hit: the closest hit
//   - bool: false when nothing was hit
func (b *BVH) Intersect(origin, dir mgl32.Vec3, tMax float32) (Hit, bool) {
	if b.Empty() {
		return Hit{}, false
	}
	invDir := mgl32.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}

	best := Hit{T: tMax, Triangle: -1}
	var stack [64]uint32
	sp := 1

	for sp > 0 {
		sp--
		ptr := stack[sp]
		node := b.Nodes[ptr]
		if _, ok := rayAABB(origin, invDir, node, best.T); !ok {
			continue
		}
		if node.IsLeaf() {
			for i := node.Offset; i < node.Offset+node.TriangleCount; i++ {
				if t, front, ok := rayTriangle(origin, dir, b.Triangles[i]); ok && t > 0 && t < best.T {
					best = Hit{T: t, Triangle: int(i), FrontFace: front}
				}
			}
			continue
		}
		stack[sp] = node.Offset
		stack[sp+1] = ptr + 1
		sp += 2
	}
	return best, best.Triangle >= 0
}

func rayAABB(origin, invDir mgl32.Vec3, n Node, tMax float32) (float32, bool) {
	tNear, tFar := float32(0), tMax
	for a := range 3 {
		t0 := (n.Bounds.Min[a] - origin[a]) * invDir[a]
		t1 := (n.Bounds.Max[a] - origin[a]) * invDir[a]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tNear = math32.Max(tNear, t0)
		tFar = math32.Min(tFar, t1)
	}
	return tNear, tNear <= tFar
}

func rayTriangle(origin, dir mgl32.Vec3, tri Triangle) (float32, bool, bool) {
	e1 := tri.V1.Sub(tri.V0)
	e2 := tri.V2.Sub(tri.V0)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < 1e-8 {
		return 0, false, false
	}
	inv := 1 / det
	s := origin.Sub(tri.V0)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false, false
	}
	return e2.Dot(q) * inv, det > 0, true
}
