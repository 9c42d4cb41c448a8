package ddgi

import (
	"slices"
	"testing"
)

func TestClampRanges(t *testing.T) {
	s := Settings{
		IndirectIntensity:         5,
		NormalBias:                -1,
		ViewBias:                  2,
		ProbeRadius:               0,
		MinFrontfaceDistance:      3,
		FixedRayBackfaceThreshold: 1.5,
		VariabilityThreshold:      -0.1,
		ProbeCounts:               [3]int{0, 30, 12},
		RaysPerProbe:              1000,
	}.Clamp()

	if s.IndirectIntensity != 3 {
		t.Errorf("IndirectIntensity = %v, want 3", s.IndirectIntensity)
	}
	if s.NormalBias != 0 || s.ViewBias != 1 {
		t.Errorf("biases = (%v, %v), want (0, 1)", s.NormalBias, s.ViewBias)
	}
	if s.ProbeRadius != 0.01 {
		t.Errorf("ProbeRadius = %v, want 0.01", s.ProbeRadius)
	}
	if s.MinFrontfaceDistance != 2 {
		t.Errorf("MinFrontfaceDistance = %v, want 2", s.MinFrontfaceDistance)
	}
	if s.FixedRayBackfaceThreshold != 1 || s.VariabilityThreshold != 0 {
		t.Errorf("thresholds = (%v, %v), want (1, 0)", s.FixedRayBackfaceThreshold, s.VariabilityThreshold)
	}
	if s.ProbeCounts != [3]int{1, 25, 12} {
		t.Errorf("ProbeCounts = %v, want [1 25 12]", s.ProbeCounts)
	}
	if s.RaysPerProbe != 256 {
		t.Errorf("RaysPerProbe = %d, want 256", s.RaysPerProbe)
	}
	if low := (Settings{RaysPerProbe: 1}).Clamp(); low.RaysPerProbe != 32 {
		t.Errorf("RaysPerProbe = %d, want 32", low.RaysPerProbe)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.IsActive() {
		t.Error("defaults should be inactive")
	}
	if s.ProbeCounts != [3]int{22, 22, 22} || s.RaysPerProbe != 144 {
		t.Errorf("layout = %v x %d, want [22 22 22] x 144", s.ProbeCounts, s.RaysPerProbe)
	}
	if s != s.Clamp() {
		t.Error("defaults should already be in range")
	}
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		name string
		s    Settings
		want bool
	}{
		{"disabled", NewSettings(WithIndirectIntensity(1)), false},
		{"enabled", NewSettings(WithEnabled(true)), true},
		{"zero intensity", NewSettings(WithEnabled(true), WithIndirectIntensity(0)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.IsActive(); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequiresReinitialize(t *testing.T) {
	base := activeSettings()
	tests := []struct {
		name string
		next Settings
		want bool
	}{
		{"intensity", activeSettings(WithIndirectIntensity(2)), false},
		{"debug", activeSettings(WithProbeDebug(ProbeDebugDistance, 5)), false},
		{"relocation", activeSettings(WithRelocation(false, 0.3)), false},
		{"counts", activeSettings(WithProbeCounts(3, 2, 2)), true},
		{"rays", activeSettings(WithRaysPerProbe(64)), true},
		{"custom bounds", activeSettings(WithCustomBounds(true)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiresReinitialize(base, tt.next); got != tt.want {
				t.Errorf("RequiresReinitialize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeywords(t *testing.T) {
	if kw := DefaultSettings().Keywords(); kw != nil {
		t.Errorf("inactive keywords = %v, want none", kw)
	}

	s := activeSettings(
		WithIndirectDebug(IndirectDebugPure),
		WithProbeDebug(ProbeDebugRelocationOffset, 1),
		WithVariability(true, 0.01),
	)
	want := []string{
		KeywordPureIndirect,
		KeywordDebugOffset,
		KeywordProbeRelocation,
		KeywordProbeReduction,
		KeywordProbeClassification,
	}
	if got := s.Keywords(); !slices.Equal(got, want) {
		t.Errorf("Keywords() = %v, want %v", got, want)
	}

	s = activeSettings(WithRelocation(false, 0), WithClassification(false, 0))
	if got := s.Keywords(); len(got) != 0 {
		t.Errorf("Keywords() = %v, want none", got)
	}
}

func TestFlagsAndDebugBits(t *testing.T) {
	s := activeSettings(WithVariability(true, 0.01))
	if got, want := s.Flags(), uint32(FlagRelocation|FlagReduction|FlagClassification); got != want {
		t.Errorf("Flags() = %b, want %b", got, want)
	}
	if got := s.DebugKeywordBits(); got != 0 {
		t.Errorf("DebugKeywordBits() = %d, want 0", got)
	}
	if got := activeSettings(WithIndirectDebug(IndirectDebugFull)).DebugKeywordBits(); got != DebugShowIndirectOnly {
		t.Errorf("full debug bits = %d, want %d", got, DebugShowIndirectOnly)
	}
	if got := activeSettings(WithIndirectDebug(IndirectDebugPure)).DebugKeywordBits(); got != DebugShowPureIndirect {
		t.Errorf("pure debug bits = %d, want %d", got, DebugShowPureIndirect)
	}
}
