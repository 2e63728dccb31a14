package session

import (
	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/seam"
	"mesh-seam-merge/internal/symmetry"
)

// Settings are the user-tunable merge parameters.
type Settings struct {
	Symmetry          bool
	SymmetryTolerance float64
	SmoothDepth       int     // hops, 0..10
	SmoothStrength    float64 // 0..1
}

// DefaultSettings returns symmetry on at 0.5 mm, depth 3, full strength.
func DefaultSettings() Settings {
	return Settings{
		Symmetry:          true,
		SymmetryTolerance: symmetry.DefaultTolerance,
		SmoothDepth:       3,
		SmoothStrength:    1,
	}
}

// Clamped returns s with depth and strength forced into range and a
// non-positive tolerance replaced by the default.
func (s Settings) Clamped() Settings {
	s.SmoothDepth = max(0, min(s.SmoothDepth, seam.MaxDepth))
	s.SmoothStrength = mathutil.Clamp01(s.SmoothStrength)
	if s.SymmetryTolerance <= 0 {
		s.SymmetryTolerance = symmetry.DefaultTolerance
	}
	return s
}
