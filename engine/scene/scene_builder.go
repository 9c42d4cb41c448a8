package scene

import (
	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/camera"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/game_object"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene via NewScene.
type SceneBuilderOption func(s *scene)

// WithCamera sets the scene's camera.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: a function that applies the camera option to a scene
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithObjects registers the given objects at construction, as if by Add.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: a function that applies the objects option to a scene
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.add(obj)
		}
	}
}

// WithLights adds free-standing lights.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: a function that applies the lights option to a scene
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.lights = append(s.lights, lights...)
	}
}

// WithEnvironment sets the ambient lighting settings.
//
// Parameters:
//   - env: the environment
//
// Returns:
//   - SceneBuilderOption: a function that applies the environment option to a scene
func WithEnvironment(env light.Environment) SceneBuilderOption {
	return func(s *scene) {
		s.env = env
	}
}

// WithBoundsVolumes adds author-placed bounds volumes.
//
// Parameters:
//   - volumes: the volumes to add
//
// Returns:
//   - SceneBuilderOption: a function that applies the bounds option to a scene
func WithBoundsVolumes(volumes ...common.AABB) SceneBuilderOption {
	return func(s *scene) {
		s.volumes = append(s.volumes, volumes...)
	}
}
