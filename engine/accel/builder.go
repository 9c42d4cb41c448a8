package accel

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"github.com/go-gl/mathgl/mgl32"
)

// builder is the implementation of the Builder interface.
type builder struct {
	maxLeafTriangles int
	workers          int
	pool             worker.DynamicWorkerPool
	taskID           int

	// scratch reused between builds
	triangles []Triangle
	centroids []mgl32.Vec3
	refs      []int
}

// Builder gathers scene meshes into world-space triangles and builds a BVH over them.
// A Builder is reused every frame; it is not safe for concurrent use.
type Builder interface {
	// Build transforms every mesh to world space on the worker pool and builds a hierarchy
	// over the resulting triangles using binned midpoint splits along the longest centroid axis.
	//
	// Parameters:
	//   - meshes: the meshes to include
	//
	// Returns:
	//   - *BVH: the flattened hierarchy (empty when meshes hold no triangles)
	//   - error: ErrIndexOutOfRange if a mesh references a missing vertex
	Build(meshes []Mesh) (*BVH, error)
}

var _ Builder = &builder{}

// NewBuilder creates a Builder with the provided options applied.
//
// Parameters:
//   - opts: variadic list of BuilderOption functions
//
// Returns:
//   - Builder: the builder
func NewBuilder(opts ...BuilderOption) Builder {
	b := &builder{
		maxLeafTriangles: DefaultMaxLeafTriangles,
		workers:          4,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.pool = worker.NewDynamicWorkerPool(b.workers, 256, 1*time.Second)
	return b
}

func (b *builder) Build(meshes []Mesh) (*BVH, error) {
	start := time.Now()
	if err := b.gather(meshes); err != nil {
		return nil, err
	}

	bvh := &BVH{}
	if len(b.triangles) == 0 {
		return bvh, nil
	}

	b.centroids = b.centroids[:0]
	b.refs = b.refs[:0]
	for i, t := range b.triangles {
		b.centroids = append(b.centroids, t.Centroid())
		b.refs = append(b.refs, i)
	}

	bvh.Nodes = make([]Node, 0, 2*len(b.triangles)/b.maxLeafTriangles+1)
	bvh.Triangles = make([]Triangle, 0, len(b.triangles))
	b.split(bvh, b.refs, 0)

	logger.For("accel").Debug("bvh built",
		"triangles", len(bvh.Triangles),
		"nodes", len(bvh.Nodes),
		"leaves", bvh.Leaves,
		"depth", bvh.Depth,
		"elapsed", time.Since(start),
	)
	return bvh, nil
}

// gather transforms every mesh into b.triangles. Each mesh is one pool task writing its own slot,
// and a WaitGroup is the barrier.
func (b *builder) gather(meshes []Mesh) error {
	slots := make([][]Triangle, len(meshes))
	errs := make([]error, len(meshes))

	var wg sync.WaitGroup
	for i := range meshes {
		if meshes[i].TriangleCount() == 0 {
			continue
		}
		wg.Add(1)
		idx := i
		id := b.taskID
		b.taskID++
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				slots[idx], errs[idx] = transformMesh(meshes[idx])
				return nil, errs[idx]
			},
		})
	}
	wg.Wait()

	b.triangles = b.triangles[:0]
	for i, s := range slots {
		if errs[i] != nil {
			return fmt.Errorf("mesh %d: %w", i, errs[i])
		}
		b.triangles = append(b.triangles, s...)
	}
	return nil
}

func transformMesh(m Mesh) ([]Triangle, error) {
	n := m.TriangleCount()
	out := make([]Triangle, n)
	world := func(i uint32) (mgl32.Vec3, error) {
		if int(i) >= len(m.Positions) {
			return mgl32.Vec3{}, fmt.Errorf("%w: %d >= %d", ErrIndexOutOfRange, i, len(m.Positions))
		}
		return mgl32.TransformCoordinate(m.Positions[i], m.Transform), nil
	}
	for t := range n {
		var err error
		tri := &out[t]
		if tri.V0, err = world(m.Indices[t*3]); err != nil {
			return nil, err
		}
		if tri.V1, err = world(m.Indices[t*3+1]); err != nil {
			return nil, err
		}
		if tri.V2, err = world(m.Indices[t*3+2]); err != nil {
			return nil, err
		}
		tri.Albedo = m.Albedo
	}
	return out, nil
}

// split appends the subtree for refs to bvh in depth-first order.
func (b *builder) split(bvh *BVH, refs []int, depth int) {
	bvh.Depth = max(bvh.Depth, depth)

	var bounds, centroidBounds common.AABB
	for i, r := range refs {
		tb := b.triangles[r].Bounds()
		c := b.centroids[r]
		if i == 0 {
			bounds = tb
			centroidBounds = common.AABB{Min: c, Max: c}
			continue
		}
		bounds = bounds.Encapsulate(tb)
		centroidBounds = centroidBounds.EncapsulatePoint(c)
	}

	idx := len(bvh.Nodes)
	bvh.Nodes = append(bvh.Nodes, Node{Bounds: bounds})

	if len(refs) <= b.maxLeafTriangles || depth >= maxDepth {
		bvh.Nodes[idx].Offset = uint32(len(bvh.Triangles))
		bvh.Nodes[idx].TriangleCount = uint32(len(refs))
		for _, r := range refs {
			bvh.Triangles = append(bvh.Triangles, b.triangles[r])
		}
		bvh.Leaves++
		return
	}

	axis := centroidBounds.LongestAxis()
	mid := centroidBounds.Center()[axis]
	left := partition(refs, func(r int) bool { return b.centroids[r][axis] < mid })
	if left == 0 || left == len(refs) {
		// all centroids on one side of the midpoint, fall back to a median split
		slices.SortFunc(refs, func(x, y int) int {
			switch cx, cy := b.centroids[x][axis], b.centroids[y][axis]; {
			case cx < cy:
				return -1
			case cx > cy:
				return 1
			}
			return 0
		})
		left = len(refs) / 2
	}

	b.split(bvh, refs[:left], depth+1)
	bvh.Nodes[idx].Offset = uint32(len(bvh.Nodes))
	b.split(bvh, refs[left:], depth+1)
}

// partition reorders refs so every element satisfying pred comes first and returns their count.
func partition(refs []int, pred func(int) bool) int {
	i := 0
	for j := range refs {
		if pred(refs[j]) {
			refs[i], refs[j] = refs[j], refs[i]
			i++
		}
	}
	return i
}
