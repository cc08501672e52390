package domain

// Reflection is the computed outcome for one Miller triple.
type Reflection struct {
	Miller Miller `json:"hkl"`
	// Spacing is the interplanar distance d in Å.
	Spacing float64 `json:"spacing"`
	// TwoTheta is the diffraction angle 2θ in degrees.
	TwoTheta float64 `json:"twoTheta"`
	// StructureFactor is the complex sum F over every atom of the cell.
	StructureFactor complex128 `json:"-"`
	// Intensity is |F|², never negative.
	Intensity float64 `json:"intensity"`
}

// Peak is a reflection with its intensity rescaled so the strongest peak of
// the pattern is 100.
type Peak struct {
	Reflection

	Normalized float64 `json:"normalized"`
}

// SkippedReflection records a reflection excluded from the pattern because
// Bragg's law has no real solution for it.
type SkippedReflection struct {
	Miller Miller `json:"hkl"`
	Reason string `json:"reason"`
}

// Pattern is a normalized stick pattern. Peaks keep the order of the input
// reflections; the display cutoff is not applied here.
type Pattern struct {
	Crystal    Crystal             `json:"crystal"`
	Wavelength float64             `json:"wavelength"`
	Peaks      []Peak              `json:"peaks"`
	Skipped    []SkippedReflection `json:"skipped,omitempty"`
}

// Strongest returns the peak with the highest normalized intensity, the first
// one on ties. ok is false for an empty pattern.
func (p Pattern) Strongest() (peak Peak, ok bool) {
	for i, candidate := range p.Peaks {
		if i == 0 || candidate.Normalized > peak.Normalized {
			peak = candidate
		}
	}

	return peak, len(p.Peaks) > 0
}
