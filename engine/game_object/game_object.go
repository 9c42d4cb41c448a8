package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/accel"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	mu *sync.RWMutex

	id      uint64
	enabled atomic.Bool
	skinned bool

	positions   []mgl32.Vec3
	indices     []uint32
	localBounds common.AABB

	position mgl32.Vec3
	rotation mgl32.Vec3 // euler angles in radians, applied X then Y then Z
	scale    mgl32.Vec3
	albedo   mgl32.Vec3

	attachedLight light.Light
}

// GameObject defines the interface for a renderable scene entity: an indexed triangle mesh
// placed in the world, with a diffuse albedo and an optional attached light.
// The probe pipeline reads world bounds for volume placement and world-space triangles for
// ray tracing.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// Enabled returns whether this object contributes to lighting.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the object contributes to lighting.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Skinned returns whether the mesh is deformed by a skeleton. Skinned objects are traced
	// with their bind-pose geometry and included in scene bounds like any other renderable.
	//
	// Returns:
	//   - bool: true for skinned meshes
	Skinned() bool

	// Position returns the world-space translation.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// SetPosition sets the world-space translation. An attached point or spot light follows.
	//
	// Parameters:
	//   - p: the new position
	SetPosition(p mgl32.Vec3)

	// Rotation returns the euler rotation in radians.
	//
	// Returns:
	//   - mgl32.Vec3: rotation about x, y and z
	Rotation() mgl32.Vec3

	// SetRotation sets the euler rotation in radians.
	//
	// Parameters:
	//   - r: rotation about x, y and z
	SetRotation(r mgl32.Vec3)

	// Scale returns the per-axis scale.
	//
	// Returns:
	//   - mgl32.Vec3: the scale
	Scale() mgl32.Vec3

	// SetScale sets the per-axis scale.
	//
	// Parameters:
	//   - s: the new scale
	SetScale(s mgl32.Vec3)

	// Transform returns the object-to-world matrix (translation * rotation * scale).
	//
	// Returns:
	//   - mgl32.Mat4: the model matrix
	Transform() mgl32.Mat4

	// Albedo returns the diffuse surface color.
	//
	// Returns:
	//   - mgl32.Vec3: the albedo
	Albedo() mgl32.Vec3

	// SetAlbedo sets the diffuse surface color.
	//
	// Parameters:
	//   - c: the new albedo
	SetAlbedo(c mgl32.Vec3)

	// SetGeometry replaces the mesh and recomputes its local bounds.
	//
	// Parameters:
	//   - positions: object-space vertex positions
	//   - indices: three vertex indices per triangle
	SetGeometry(positions []mgl32.Vec3, indices []uint32)

	// WorldBounds returns the world-space box enclosing the transformed local bounds.
	// Objects without geometry return the zero AABB.
	//
	// Returns:
	//   - common.AABB: the world bounds
	WorldBounds() common.AABB

	// Mesh returns the geometry, transform and albedo for acceleration structure builds.
	// The returned slices are shared with the object and must not be modified.
	//
	// Returns:
	//   - accel.Mesh: the mesh description
	Mesh() accel.Mesh

	// Light returns the Light attached to this object, or nil if none is set.
	//
	// Returns:
	//   - light.Light: the attached light or nil
	Light() light.Light

	// SetLight attaches a Light to this object. The light's position tracks the object.
	//
	// Parameters:
	//   - l: the Light to attach, or nil to detach
	SetLight(l light.Light)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new enabled GameObject at the origin with unit scale and a mid-grey
// albedo, with any options applied.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the new object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	g := &gameObject{
		mu:     &sync.RWMutex{},
		scale:  mgl32.Vec3{1, 1, 1},
		albedo: mgl32.Vec3{0.5, 0.5, 0.5},
	}
	g.enabled.Store(true)
	for _, opt := range options {
		opt(g)
	}
	g.localBounds = boundsOf(g.positions)
	g.syncLight()
	return g
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) Skinned() bool {
	return g.skinned
}

func (g *gameObject) Position() mgl32.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position
}

func (g *gameObject) SetPosition(p mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = p
	g.syncLight()
}

func (g *gameObject) Rotation() mgl32.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotation
}

func (g *gameObject) SetRotation(r mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = r
}

func (g *gameObject) Scale() mgl32.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scale
}

func (g *gameObject) SetScale(s mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = s
}

func (g *gameObject) Transform() mgl32.Mat4 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.transform()
}

func (g *gameObject) Albedo() mgl32.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.albedo
}

func (g *gameObject) SetAlbedo(c mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.albedo = c
}

func (g *gameObject) SetGeometry(positions []mgl32.Vec3, indices []uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.positions = positions
	g.indices = indices
	g.localBounds = boundsOf(positions)
}

func (g *gameObject) WorldBounds() common.AABB {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.positions) == 0 {
		return common.AABB{}
	}

	m := g.transform()
	lb := g.localBounds
	var out common.AABB
	for i := range 8 {
		corner := mgl32.Vec3{lb.Min[0], lb.Min[1], lb.Min[2]}
		if i&1 != 0 {
			corner[0] = lb.Max[0]
		}
		if i&2 != 0 {
			corner[1] = lb.Max[1]
		}
		if i&4 != 0 {
			corner[2] = lb.Max[2]
		}
		w := mgl32.TransformCoordinate(corner, m)
		if i == 0 {
			out = common.AABB{Min: w, Max: w}
			continue
		}
		out = out.EncapsulatePoint(w)
	}
	return out
}

func (g *gameObject) Mesh() accel.Mesh {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return accel.Mesh{
		Positions: g.positions,
		Indices:   g.indices,
		Transform: g.transform(),
		Albedo:    g.albedo,
	}
}

func (g *gameObject) Light() light.Light {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.attachedLight
}

func (g *gameObject) SetLight(l light.Light) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attachedLight = l
	g.syncLight()
}

// transform builds the model matrix. Caller must hold the mutex.
func (g *gameObject) transform() mgl32.Mat4 {
	t := mgl32.Translate3D(g.position[0], g.position[1], g.position[2])
	r := mgl32.HomogRotate3DZ(g.rotation[2]).
		Mul4(mgl32.HomogRotate3DY(g.rotation[1])).
		Mul4(mgl32.HomogRotate3DX(g.rotation[0]))
	s := mgl32.Scale3D(g.scale[0], g.scale[1], g.scale[2])
	return t.Mul4(r).Mul4(s)
}

// syncLight moves the attached light to the object's position. Caller must hold the mutex.
func (g *gameObject) syncLight() {
	if g.attachedLight != nil && g.attachedLight.Type() != light.LightTypeDirectional {
		g.attachedLight.SetPosition(g.position)
	}
}

func boundsOf(positions []mgl32.Vec3) common.AABB {
	if len(positions) == 0 {
		return common.AABB{}
	}
	b := common.AABB{Min: positions[0], Max: positions[0]}
	for _, p := range positions[1:] {
		b = b.EncapsulatePoint(p)
	}
	return b
}
