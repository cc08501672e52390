// Package diffraction computes X-ray diffraction stick patterns for cubic
// crystals: interplanar spacing, Bragg angle and kinematic structure factor per
// reflection, followed by normalization of the whole pattern.
//
// Every function in this package is pure. The package has no logging; callers
// decide what to do with skipped reflections.
package diffraction

import (
	"math"
	"math/cmplx"

	"xrdsim/pkg/domain"
	"xrdsim/pkg/serrors"
)

// NormalizedMax is the value the strongest reflection is scaled to.
const NormalizedMax = 100.0

// extinctionTolerance is the fraction of the largest possible |F|² below which
// an intensity is reported as exactly zero. Phases such as exp(iπ) leave
// residue around 1e-16 that would otherwise turn a systematic absence into a
// tiny positive peak.
const extinctionTolerance = 1e-12

// Result is the output of Compute.
type Result struct {
	// Reflections holds one entry per in-range input reflection, in input order.
	Reflections []domain.Reflection
	// Skipped holds the reflections that cannot diffract at the wavelength.
	Skipped []domain.SkippedReflection
}

// Spacing returns the interplanar spacing d = a / sqrt(h²+k²+l²) of a cubic
// lattice with edge a.
func Spacing(a float64, m domain.Miller) (float64, error) {
	if m.IsZero() {
		return 0, serrors.With(serrors.ErrZeroReflection, "spacing of %s is undefined", m.Label())
	}

	return a / math.Sqrt(m.SumSquares()), nil
}

// BraggAngle solves λ = 2d·sinθ for θ in radians.
func BraggAngle(wavelength, d float64) (float64, error) {
	ratio := wavelength / (2 * d)
	if ratio > 1 || math.IsNaN(ratio) {
		return 0, serrors.With(serrors.ErrBraggOutOfRange,
			"λ/2d = %.4f exceeds 1 (λ = %g Å, d = %.4f Å)", ratio, wavelength, d)
	}

	return math.Asin(ratio), nil
}

// TwoTheta converts a Bragg angle in radians to the diffraction angle 2θ in degrees.
func TwoTheta(theta float64) float64 {
	return 2 * theta * 180 / math.Pi
}

// StructureFactor returns F = Σ f·exp(2πi(hx+ky+lz)) over every position of
// every site.
func StructureFactor(sites []domain.AtomSite, m domain.Miller) complex128 {
	var f complex128
	for _, site := range sites {
		for _, p := range site.Positions {
			phase := 2 * math.Pi * (float64(m.H)*p.X + float64(m.K)*p.Y + float64(m.L)*p.Z)
			f += complex(site.ScatteringFactor, 0) * cmplx.Exp(complex(0, phase))
		}
	}

	return f
}

// Intensity returns |F|².
func Intensity(f complex128) float64 {
	return real(f)*real(f) + imag(f)*imag(f)
}

// maxAmplitude is Σ|f| over every atom, the largest |F| any reflection can reach.
func maxAmplitude(sites []domain.AtomSite) float64 {
	var total float64
	for _, site := range sites {
		total += math.Abs(site.ScatteringFactor) * float64(len(site.Positions))
	}

	return total
}

// Compute evaluates every reflection against the crystal and atom basis.
//
// A zero Miller triple fails the whole computation with ErrZeroReflection and
// no partial Result is returned; the error names the offending index.
// Reflections for which λ/2d > 1 are left out of Result.Reflections and
// listed in Result.Skipped; the remaining results are unaffected. Scattering
// factors whose largest possible |F|² overflows float64 are rejected with
// ErrInvalidStructure.
func Compute(crystal domain.Crystal, sites []domain.AtomSite, reflections []domain.Miller,
	wavelength float64,
) (Result, error) {
	res := Result{Reflections: make([]domain.Reflection, 0, len(reflections))}

	amplitude := maxAmplitude(sites)
	if math.IsInf(amplitude*amplitude, 0) {
		return Result{}, serrors.With(serrors.ErrInvalidStructure,
			"scattering factors too large: Σ|f| = %g overflows |F|²", amplitude)
	}
	floor := extinctionTolerance * amplitude * amplitude

	for i, m := range reflections {
		d, err := Spacing(crystal.LatticeParameter, m)
		if err != nil {
			return Result{}, serrors.Wrap(serrors.ErrZeroReflection, err, "reflection #%d", i)
		}

		theta, err := BraggAngle(wavelength, d)
		if err != nil {
			res.Skipped = append(res.Skipped, domain.SkippedReflection{Miller: m, Reason: err.Error()})

			continue
		}

		f := StructureFactor(sites, m)
		intensity := Intensity(f)
		if intensity <= floor {
			intensity = 0
		}

		res.Reflections = append(res.Reflections, domain.Reflection{
			Miller:          m,
			Spacing:         d,
			TwoTheta:        TwoTheta(theta),
			StructureFactor: f,
			Intensity:       intensity,
		})
	}

	return res, nil
}

// Normalize rescales the raw intensities so the strongest reflection is 100.
// When every intensity is zero the normalized values stay zero.
func Normalize(reflections []domain.Reflection) []domain.Peak {
	var highest float64
	for _, r := range reflections {
		highest = math.Max(highest, r.Intensity)
	}

	peaks := make([]domain.Peak, len(reflections))
	for i, r := range reflections {
		peaks[i] = domain.Peak{Reflection: r}
		if highest > 0 {
			peaks[i].Normalized = r.Intensity / highest * NormalizedMax
		}
	}

	return peaks
}

// Simulate runs Compute on a structure and normalizes the result into a
// pattern. The structure is not validated here.
func Simulate(s domain.Structure) (domain.Pattern, error) {
	res, err := Compute(s.Crystal, s.Sites, s.Reflections, s.Wavelength)
	if err != nil {
		return domain.Pattern{}, err
	}

	return domain.Pattern{
		Crystal:    s.Crystal,
		Wavelength: s.Wavelength,
		Peaks:      Normalize(res.Reflections),
		Skipped:    res.Skipped,
	}, nil
}
