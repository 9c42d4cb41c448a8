package ddgi

import "github.com/Carmen-Shannon/oxy-ddgi/common"

// ProbeDebugMode selects what the probe visualization shades each sphere with.
type ProbeDebugMode uint32

const (
	ProbeDebugIrradiance ProbeDebugMode = iota
	ProbeDebugDistance
	ProbeDebugRelocationOffset
)

func (m ProbeDebugMode) String() string {
	switch m {
	case ProbeDebugIrradiance:
		return "irradiance"
	case ProbeDebugDistance:
		return "distance"
	case ProbeDebugRelocationOffset:
		return "relocation_offset"
	}
	return "unknown"
}

// IndirectDebugMode selects what the host lit shader outputs when indirect debugging is on.
type IndirectDebugMode uint32

const (
	// IndirectDebugFull shows the full indirect radiance (albedo * irradiance).
	IndirectDebugFull IndirectDebugMode = iota
	// IndirectDebugPure shows the raw probe irradiance.
	IndirectDebugPure
)

// Settings is the per-camera configuration of the probe volume. The zero value is not usable;
// start from DefaultSettings or NewSettings.
type Settings struct {
	Enabled           bool
	IndirectIntensity float32

	NormalBias float32
	ViewBias   float32

	ProbeRotation bool

	DebugProbe        bool
	ProbeDebugMode    ProbeDebugMode
	ProbeRadius       float32
	DebugIndirect     bool
	IndirectDebugMode IndirectDebugMode

	EnableRelocation          bool
	MinFrontfaceDistance      float32
	EnableClassification      bool
	FixedRayBackfaceThreshold float32

	EnableVariability    bool
	VariabilityThreshold float32

	UseCustomBounds bool
	ProbeCounts     [3]int
	RaysPerProbe    int
}

const (
	minRaysPerProbe = 32
	maxRaysPerProbe = 256
)

// DefaultSettings returns the stock configuration: disabled, 22x22x22 probes, 144 rays each.
//
// Returns:
//   - Settings: the defaults
func DefaultSettings() Settings {
	return Settings{
		IndirectIntensity:         1,
		NormalBias:                0.2,
		ViewBias:                  0.8,
		ProbeRotation:             true,
		ProbeDebugMode:            ProbeDebugIrradiance,
		ProbeRadius:               11,
		IndirectDebugMode:         IndirectDebugFull,
		EnableRelocation:          true,
		MinFrontfaceDistance:      0.3,
		EnableClassification:      true,
		FixedRayBackfaceThreshold: 0.25,
		VariabilityThreshold:      0.025,
		ProbeCounts:               [3]int{22, 22, 22},
		RaysPerProbe:              144,
	}
}

// NewSettings returns DefaultSettings with the options applied and the result clamped.
//
// Parameters:
//   - opts: variadic list of SettingsBuilderOption functions
//
// Returns:
//   - Settings: the configured settings
func NewSettings(opts ...SettingsBuilderOption) Settings {
	s := DefaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s.Clamp()
}

// Clamp restricts every ranged field to its valid range.
//
// Returns:
//   - Settings: the clamped copy
func (s Settings) Clamp() Settings {
	s.IndirectIntensity = common.Clamp(s.IndirectIntensity, 0, 3)
	s.NormalBias = common.Saturate(s.NormalBias)
	s.ViewBias = common.Saturate(s.ViewBias)
	s.ProbeRadius = common.Clamp(s.ProbeRadius, 0.01, 20)
	s.MinFrontfaceDistance = common.Clamp(s.MinFrontfaceDistance, 0, 2)
	s.FixedRayBackfaceThreshold = common.Saturate(s.FixedRayBackfaceThreshold)
	s.VariabilityThreshold = common.Saturate(s.VariabilityThreshold)
	for i := range s.ProbeCounts {
		s.ProbeCounts[i] = common.ClampInt(s.ProbeCounts[i], 1, 25)
	}
	s.RaysPerProbe = common.ClampInt(s.RaysPerProbe, minRaysPerProbe, maxRaysPerProbe)
	return s
}

// IsActive reports whether the volume should do any work.
func (s Settings) IsActive() bool {
	return s.Enabled && s.IndirectIntensity > 0
}

// RequiresReinitialize reports whether moving from prev to next changes the volume layout, in
// which case the host must call Reinitialize.
//
// Parameters:
//   - prev: the settings in effect
//   - next: the new settings
//
// Returns:
//   - bool: true when probe counts, rays per probe or the bounds mode changed
func RequiresReinitialize(prev, next Settings) bool {
	return prev.ProbeCounts != next.ProbeCounts ||
		prev.RaysPerProbe != next.RaysPerProbe ||
		prev.UseCustomBounds != next.UseCustomBounds
}

// Keywords returns the global shader keywords the host lit shader should enable for s.
//
// Returns:
//   - []string: the enabled keywords, empty when the volume is inactive
func (s Settings) Keywords() []string {
	if !s.IsActive() {
		return nil
	}
	var out []string
	if s.DebugIndirect {
		switch s.IndirectDebugMode {
		case IndirectDebugFull:
			out = append(out, KeywordIndirectOnly)
		case IndirectDebugPure:
			out = append(out, KeywordPureIndirect)
		}
	}
	if s.DebugProbe {
		switch s.ProbeDebugMode {
		case ProbeDebugIrradiance:
			out = append(out, KeywordDebugIrradiance)
		case ProbeDebugDistance:
			out = append(out, KeywordDebugDistance)
		case ProbeDebugRelocationOffset:
			out = append(out, KeywordDebugOffset)
		}
	}
	if s.EnableRelocation {
		out = append(out, KeywordProbeRelocation)
	}
	if s.EnableVariability {
		out = append(out, KeywordProbeReduction)
	}
	if s.EnableClassification {
		out = append(out, KeywordProbeClassification)
	}
	return out
}

// Flags returns the volume constant flag bits for s.
func (s Settings) Flags() uint32 {
	var flags uint32
	if s.EnableRelocation {
		flags |= FlagRelocation
	}
	if s.EnableVariability {
		flags |= FlagReduction
	}
	if s.EnableClassification {
		flags |= FlagClassification
	}
	return flags
}

// DebugKeywordBits returns the indirect debug bits for s.
func (s Settings) DebugKeywordBits() uint32 {
	if !s.DebugIndirect {
		return 0
	}
	if s.IndirectDebugMode == IndirectDebugPure {
		return DebugShowPureIndirect
	}
	return DebugShowIndirectOnly
}
