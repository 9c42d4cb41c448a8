package game_object

import (
	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithEnabled sets whether the GameObject contributes to lighting.
//
// Parameters:
//   - enabled: true to include the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithSkinned marks the GameObject as a skinned mesh.
//
// Parameters:
//   - skinned: true for skinned meshes
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Skinned flag
func WithSkinned(skinned bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.skinned = skinned
	}
}

// WithGeometry sets the object-space mesh.
//
// Parameters:
//   - positions: vertex positions
//   - indices: three vertex indices per triangle
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the geometry
func WithGeometry(positions []mgl32.Vec3, indices []uint32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.positions = positions
		obj.indices = indices
	}
}

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the position
func WithPosition(x, y, z float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = mgl32.Vec3{x, y, z}
	}
}

// WithRotation sets the initial euler rotation in radians.
//
// Parameters:
//   - rx, ry, rz: rotation about each axis
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the rotation
func WithRotation(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotation = mgl32.Vec3{rx, ry, rz}
	}
}

// WithScale sets the initial per-axis scale.
//
// Parameters:
//   - sx, sy, sz: scale components
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the scale
func WithScale(sx, sy, sz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.scale = mgl32.Vec3{sx, sy, sz}
	}
}

// WithAlbedo sets the diffuse surface color.
//
// Parameters:
//   - r, g, b: color components
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the albedo
func WithAlbedo(r, g, b float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.albedo = mgl32.Vec3{r, g, b}
	}
}

// WithLight attaches a Light that follows the object's position.
//
// Parameters:
//   - l: the Light to attach
//
// Returns:
//   - GameObjectBuilderOption: functional option to attach the light
func WithLight(l light.Light) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.attachedLight = l
	}
}
