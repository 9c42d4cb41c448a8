package ddgi

// SettingsBuilderOption is a function that configures Settings during NewSettings.
type SettingsBuilderOption func(*Settings)

// WithEnabled turns the volume on or off.
//
// Parameters:
//   - enabled: true to enable
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithEnabled(enabled bool) SettingsBuilderOption {
	return func(s *Settings) {
		s.Enabled = enabled
	}
}

// WithIndirectIntensity sets the indirect lighting multiplier, range [0, 3].
//
// Parameters:
//   - intensity: the multiplier
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithIndirectIntensity(intensity float32) SettingsBuilderOption {
	return func(s *Settings) {
		s.IndirectIntensity = intensity
	}
}

// WithBias sets the normal and view bias multipliers, each in [0, 1].
//
// Parameters:
//   - normal: the normal bias multiplier
//   - view: the view bias multiplier
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithBias(normal, view float32) SettingsBuilderOption {
	return func(s *Settings) {
		s.NormalBias = normal
		s.ViewBias = view
	}
}

// WithProbeRotation enables per-frame random rotation of the probe ray set.
//
// Parameters:
//   - enabled: true to rotate
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithProbeRotation(enabled bool) SettingsBuilderOption {
	return func(s *Settings) {
		s.ProbeRotation = enabled
	}
}

// WithProbeDebug enables the probe visualization.
//
// Parameters:
//   - mode: what each probe sphere shows
//   - radius: the sphere scale, range [0.01, 20]
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithProbeDebug(mode ProbeDebugMode, radius float32) SettingsBuilderOption {
	return func(s *Settings) {
		s.DebugProbe = true
		s.ProbeDebugMode = mode
		s.ProbeRadius = radius
	}
}

// WithIndirectDebug enables the indirect lighting debug output of the host lit shader.
//
// Parameters:
//   - mode: full or pure indirect radiance
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithIndirectDebug(mode IndirectDebugMode) SettingsBuilderOption {
	return func(s *Settings) {
		s.DebugIndirect = true
		s.IndirectDebugMode = mode
	}
}

// WithRelocation configures probe relocation.
//
// Parameters:
//   - enabled: true to relocate probes out of geometry
//   - minFrontfaceDistance: the minimum clearance to front faces, range [0, 2]
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithRelocation(enabled bool, minFrontfaceDistance float32) SettingsBuilderOption {
	return func(s *Settings) {
		s.EnableRelocation = enabled
		s.MinFrontfaceDistance = minFrontfaceDistance
	}
}

// WithClassification configures probe classification.
//
// Parameters:
//   - enabled: true to deactivate probes inside geometry
//   - backfaceThreshold: the fraction of backface hits that marks a probe as inside, range [0, 1]
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithClassification(enabled bool, backfaceThreshold float32) SettingsBuilderOption {
	return func(s *Settings) {
		s.EnableClassification = enabled
		s.FixedRayBackfaceThreshold = backfaceThreshold
	}
}

// WithVariability configures convergence detection.
//
// Parameters:
//   - enabled: true to stop tracing once the volume converges
//   - threshold: the mean variability below which the volume counts as converged, range [0, 1]
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithVariability(enabled bool, threshold float32) SettingsBuilderOption {
	return func(s *Settings) {
		s.EnableVariability = enabled
		s.VariabilityThreshold = threshold
	}
}

// WithCustomBounds makes the volume cover the scene's first bounds volume instead of its geometry.
//
// Parameters:
//   - enabled: true to use custom bounds
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithCustomBounds(enabled bool) SettingsBuilderOption {
	return func(s *Settings) {
		s.UseCustomBounds = enabled
	}
}

// WithProbeCounts sets the probe grid size, each axis in [1, 25].
//
// Parameters:
//   - x, y, z: probes per axis
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithProbeCounts(x, y, z int) SettingsBuilderOption {
	return func(s *Settings) {
		s.ProbeCounts = [3]int{x, y, z}
	}
}

// WithRaysPerProbe sets the number of rays traced per probe each frame, range [32, 256].
//
// Parameters:
//   - n: rays per probe
//
// Returns:
//   - SettingsBuilderOption: a function that applies the option
func WithRaysPerProbe(n int) SettingsBuilderOption {
	return func(s *Settings) {
		s.RaysPerProbe = n
	}
}
