package scene

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/accel"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/camera"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/game_object"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
)

// Scene holds everything the probe pipeline samples from the host: renderable objects, lights,
// the ambient environment and optional custom bounds volumes.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Add registers a GameObject and returns its ID. Objects with ID 0 are assigned the next
	// free ID. An attached light is added to the scene's light list.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the object's ID
	Add(obj game_object.GameObject) uint64

	// Get looks up an object by ID.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - game_object.GameObject: the object, or nil if not registered
	Get(id uint64) game_object.GameObject

	// Remove unregisters an object and its attached light. Unknown IDs are ignored.
	//
	// Parameters:
	//   - id: the object ID
	Remove(id uint64)

	// Count returns the number of registered objects.
	//
	// Returns:
	//   - int: object count
	Count() int

	// Clear removes every object and light. The environment and bounds volumes are kept.
	Clear()

	// Objects returns the enabled objects in insertion order.
	//
	// Returns:
	//   - []game_object.GameObject: enabled objects
	Objects() []game_object.GameObject

	// Meshes returns the meshes of every enabled object for acceleration structure builds.
	//
	// Returns:
	//   - []accel.Mesh: one mesh per enabled object with geometry
	Meshes() []accel.Mesh

	// AddLight adds a free-standing light.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// RemoveLight removes a light. Unknown lights are ignored.
	//
	// Parameters:
	//   - l: the light to remove
	RemoveLight(l light.Light)

	// Lights returns every light in the scene, including lights attached to objects.
	//
	// Returns:
	//   - []light.Light: the lights
	Lights() []light.Light

	// Environment returns the ambient lighting settings, or nil when none are set.
	//
	// Returns:
	//   - light.Environment: the environment
	Environment() light.Environment

	// SetEnvironment replaces the ambient lighting settings.
	//
	// Parameters:
	//   - env: the new environment, or nil
	SetEnvironment(env light.Environment)

	// AddBoundsVolume adds an author-placed volume that overrides geometry bounds when custom
	// bounds are requested.
	//
	// Parameters:
	//   - b: the volume
	AddBoundsVolume(b common.AABB)

	// BoundsVolumes returns the author-placed volumes.
	//
	// Returns:
	//   - []common.AABB: the volumes in insertion order
	BoundsVolumes() []common.AABB

	// ClearBoundsVolumes removes every author-placed volume.
	ClearBoundsVolumes()

	// Bounds returns the region the probe volume must cover. With useCustom set it is the first
	// bounds volume; otherwise it is the union of the world bounds of every enabled object with
	// geometry, skinned objects included. Returns the zero AABB when nothing qualifies.
	//
	// Parameters:
	//   - useCustom: true to use the author-placed volume
	//
	// Returns:
	//   - common.AABB: the bounds
	Bounds(useCustom bool) common.AABB
}

type scene struct {
	mu     sync.RWMutex
	nextID uint64

	name string
	cam  camera.Camera

	order    []uint64
	registry map[uint64]game_object.GameObject
	lights   []light.Light
	env      light.Environment
	volumes  []common.AABB
}

var _ Scene = &scene{}

// NewScene creates a new empty Scene with any options applied.
//
// Parameters:
//   - name: the scene's identifier
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		name:     name,
		nextID:   1,
		registry: make(map[uint64]game_object.GameObject),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(obj)
}

// add registers obj. Caller must hold the write lock.
func (s *scene) add(obj game_object.GameObject) uint64 {
	if obj.ID() == 0 {
		obj.SetID(atomic.AddUint64(&s.nextID, 1) - 1)
	}
	if _, exists := s.registry[obj.ID()]; !exists {
		s.order = append(s.order, obj.ID())
	}
	s.registry[obj.ID()] = obj
	if l := obj.Light(); l != nil {
		s.lights = append(s.lights, l)
	}
	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, exists := s.registry[id]
	if !exists {
		return
	}
	delete(s.registry, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if l := obj.Light(); l != nil {
		s.removeLight(l)
	}
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = make(map[uint64]game_object.GameObject)
	s.order = nil
	s.lights = nil
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]game_object.GameObject, 0, len(s.order))
	for _, id := range s.order {
		if obj := s.registry[id]; obj.Enabled() {
			out = append(out, obj)
		}
	}
	return out
}

func (s *scene) Meshes() []accel.Mesh {
	objs := s.Objects()
	out := make([]accel.Mesh, 0, len(objs))
	for _, obj := range objs {
		if m := obj.Mesh(); m.TriangleCount() > 0 {
			out = append(out, m)
		}
	}
	return out
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLight(l)
}

// removeLight drops l from the light list. Caller must hold the write lock.
func (s *scene) removeLight(l light.Light) {
	for i, existing := range s.lights {
		if existing == l {
			s.lights = append(s.lights[:i], s.lights[i+1:]...)
			return
		}
	}
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]light.Light, len(s.lights))
	copy(out, s.lights)
	return out
}

func (s *scene) Environment() light.Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env
}

func (s *scene) SetEnvironment(env light.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = env
}

func (s *scene) AddBoundsVolume(b common.AABB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volumes = append(s.volumes, b)
}

func (s *scene) BoundsVolumes() []common.AABB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.AABB, len(s.volumes))
	copy(out, s.volumes)
	return out
}

func (s *scene) ClearBoundsVolumes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volumes = nil
}

func (s *scene) Bounds(useCustom bool) common.AABB {
	if useCustom {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if len(s.volumes) == 0 {
			return common.AABB{}
		}
		return s.volumes[0]
	}

	var b common.AABB
	for _, obj := range s.Objects() {
		wb := obj.WorldBounds()
		if wb.IsEmpty() {
			continue
		}
		b = b.Encapsulate(wb)
	}
	return b
}
