package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Environment is a mutable light.Environment for hosts without their own ambient settings.
type Environment interface {
	light.Environment

	// SetAmbientMode selects the ambient lighting source.
	//
	// Parameters:
	//   - mode: skybox, trilight or flat
	SetAmbientMode(mode light.AmbientMode)

	// SetAmbientIntensity sets the skybox intensity multiplier.
	//
	// Parameters:
	//   - intensity: the multiplier
	SetAmbientIntensity(intensity float32)

	// SetAmbientColors sets the sky, equator and ground colors.
	//
	// Parameters:
	//   - sky: the sky (and flat ambient) color
	//   - equator: the horizon color
	//   - ground: the ground color
	SetAmbientColors(sky, equator, ground mgl32.Vec3)

	// SetSkybox replaces the skybox material.
	//
	// Parameters:
	//   - mat: the material, or nil
	SetSkybox(mat *light.SkyboxMaterial)
}

type environment struct {
	mu sync.RWMutex

	mode      light.AmbientMode
	intensity float32
	sky       mgl32.Vec3
	equator   mgl32.Vec3
	ground    mgl32.Vec3
	skybox    *light.SkyboxMaterial
}

var _ Environment = &environment{}

// NewEnvironment creates a flat black Environment with unit intensity and any options applied.
//
// Parameters:
//   - options: functional options to configure the environment
//
// Returns:
//   - Environment: the new environment
func NewEnvironment(options ...EnvironmentBuilderOption) Environment {
	e := &environment{
		mode:      light.AmbientModeFlat,
		intensity: 1,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *environment) AmbientMode() light.AmbientMode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

func (e *environment) AmbientIntensity() float32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.intensity
}

func (e *environment) AmbientColors() (mgl32.Vec3, mgl32.Vec3, mgl32.Vec3) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sky, e.equator, e.ground
}

func (e *environment) Skybox() *light.SkyboxMaterial {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.skybox
}

func (e *environment) SetAmbientMode(mode light.AmbientMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = mode
}

func (e *environment) SetAmbientIntensity(intensity float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.intensity = intensity
}

func (e *environment) SetAmbientColors(sky, equator, ground mgl32.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sky, e.equator, e.ground = sky, equator, ground
}

func (e *environment) SetSkybox(mat *light.SkyboxMaterial) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skybox = mat
}

// EnvironmentBuilderOption is a functional option for configuring an Environment via NewEnvironment.
type EnvironmentBuilderOption func(*environment)

// WithAmbientMode sets the ambient lighting source.
//
// Parameters:
//   - mode: skybox, trilight or flat
//
// Returns:
//   - EnvironmentBuilderOption: a function that applies the mode option
func WithAmbientMode(mode light.AmbientMode) EnvironmentBuilderOption {
	return func(e *environment) {
		e.mode = mode
	}
}

// WithAmbientIntensity sets the skybox intensity multiplier.
//
// Parameters:
//   - intensity: the multiplier
//
// Returns:
//   - EnvironmentBuilderOption: a function that applies the intensity option
func WithAmbientIntensity(intensity float32) EnvironmentBuilderOption {
	return func(e *environment) {
		e.intensity = intensity
	}
}

// WithAmbientColors sets the sky, equator and ground colors.
//
// Parameters:
//   - sky: the sky (and flat ambient) color
//   - equator: the horizon color
//   - ground: the ground color
//
// Returns:
//   - EnvironmentBuilderOption: a function that applies the colors option
func WithAmbientColors(sky, equator, ground mgl32.Vec3) EnvironmentBuilderOption {
	return func(e *environment) {
		e.sky, e.equator, e.ground = sky, equator, ground
	}
}

// WithSkybox sets the skybox material.
//
// Parameters:
//   - mat: the material
//
// Returns:
//   - EnvironmentBuilderOption: a function that applies the skybox option
func WithSkybox(mat *light.SkyboxMaterial) EnvironmentBuilderOption {
	return func(e *environment) {
		e.skybox = mat
	}
}
