package diffraction_test

import (
	"math"
	"sort"
	"testing"

	"xrdsim/internal/diffraction"
	"xrdsim/pkg/domain"
	"xrdsim/pkg/serrors"

	"github.com/stretchr/testify/require"
)

const tolerance = 1e-6

func TestSpacing(t *testing.T) {
	d, err := diffraction.Spacing(5.41, domain.Miller{H: 1, K: 1, L: 1})
	require.NoError(t, err)
	require.InDelta(t, 3.1234649563, d, tolerance)

	d, err = diffraction.Spacing(5.41, domain.Miller{H: 4})
	require.NoError(t, err)
	require.InDelta(t, 1.3525, d, tolerance)

	// sign of the indices does not change the spacing
	d, err = diffraction.Spacing(5.41, domain.Miller{H: -2, K: 2})
	require.NoError(t, err)
	require.InDelta(t, 1.9127238431, d, tolerance)
}

func TestSpacing_ZeroReflection(t *testing.T) {
	_, err := diffraction.Spacing(5.41, domain.Miller{})
	require.ErrorIs(t, err, serrors.ErrZeroReflection)
}

func TestBraggAngle(t *testing.T) {
	theta, err := diffraction.BraggAngle(1.5406, 5.41/math.Sqrt(3))
	require.NoError(t, err)
	require.InDelta(t, 0.2492, theta, 1e-4)
	require.InDelta(t, 28.5548, diffraction.TwoTheta(theta), 1e-3)

	// exactly at the limit: back-scattering at 2θ = 180°
	theta, err = diffraction.BraggAngle(2, 1)
	require.NoError(t, err)
	require.InDelta(t, 180, diffraction.TwoTheta(theta), tolerance)
}

func TestBraggAngle_OutOfRange(t *testing.T) {
	_, err := diffraction.BraggAngle(1.5406, 0.6)
	require.ErrorIs(t, err, serrors.ErrBraggOutOfRange)
}

func TestStructureFactor_ZincBlende(t *testing.T) {
	sites := domain.ZincBlendeSites()

	tests := []struct {
		hkl       domain.Miller
		intensity float64
	}{
		// Zn contributes 4·30 for unmixed indices, S adds 4·16 with phase exp(iπ(h+k+l)/2)
		{domain.Miller{H: 1, K: 1, L: 1}, 120*120 + 64*64},
		{domain.Miller{H: 2, K: 2, L: 0}, 184 * 184},
		{domain.Miller{H: 3, K: 1, L: 1}, 120*120 + 64*64},
		{domain.Miller{H: 2, K: 2, L: 2}, 56 * 56},
		{domain.Miller{H: 4, K: 0, L: 0}, 184 * 184},
		// mixed parity indices are extinct for the fcc lattice
		{domain.Miller{H: 1, K: 0, L: 0}, 0},
		{domain.Miller{H: 2, K: 1, L: 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.hkl.Label(), func(t *testing.T) {
			f := diffraction.StructureFactor(sites, tt.hkl)
			require.InDelta(t, tt.intensity, diffraction.Intensity(f), 1e-6)
		})
	}
}

func TestStructureFactor_111Phase(t *testing.T) {
	f := diffraction.StructureFactor(domain.ZincBlendeSites(), domain.Miller{H: 1, K: 1, L: 1})
	require.InDelta(t, 120, real(f), 1e-9)
	require.InDelta(t, -64, imag(f), 1e-9)
}

func TestIntensityNonNegative(t *testing.T) {
	for _, f := range []complex128{0, 1, -3, complex(0, -2), complex(-1.5, 2.5)} {
		require.GreaterOrEqual(t, diffraction.Intensity(f), 0.0)
	}
	require.InDelta(t, 25, diffraction.Intensity(complex(-3, 4)), 1e-12)
}

func TestCompute_ZincBlende(t *testing.T) {
	s := domain.ZincBlende()

	res, err := diffraction.Compute(s.Crystal, s.Sites, s.Reflections, s.Wavelength)
	require.NoError(t, err)
	require.Empty(t, res.Skipped)
	require.Len(t, res.Reflections, len(s.Reflections))

	for i, r := range res.Reflections {
		require.Equal(t, s.Reflections[i], r.Miller, "output must keep input order")
	}

	first := res.Reflections[0]
	require.InDelta(t, 3.1235, first.Spacing, 1e-4)
	require.InDelta(t, 28.555, first.TwoTheta, 1e-3)
	require.InDelta(t, 18496, first.Intensity, 1e-6)

	wantTwoTheta := []float64{28.5548, 47.4972, 56.3591, 59.1068, 69.4360}
	for i, r := range res.Reflections {
		require.InDelta(t, wantTwoTheta[i], r.TwoTheta, 1e-3, r.Miller.Label())
	}
}

func TestCompute_ZeroReflectionAborts(t *testing.T) {
	s := domain.ZincBlende()
	reflections := []domain.Miller{{H: 1, K: 1, L: 1}, {}, {H: 2, K: 2}}

	res, err := diffraction.Compute(s.Crystal, s.Sites, reflections, s.Wavelength)
	require.ErrorIs(t, err, serrors.ErrZeroReflection)
	require.Contains(t, err.Error(), "reflection #1")
	require.Empty(t, res.Reflections, "the valid (111) before the zero triple is not returned either")
	require.Empty(t, res.Skipped)
}

func TestCompute_OutOfRangeSkipped(t *testing.T) {
	s := domain.ZincBlende()
	reflections := []domain.Miller{{H: 1, K: 1, L: 1}, {H: 5, K: 5, L: 5}, {H: 2, K: 2}}

	res, err := diffraction.Compute(s.Crystal, s.Sites, reflections, s.Wavelength)
	require.NoError(t, err)

	require.Len(t, res.Reflections, 2)
	require.Equal(t, domain.Miller{H: 1, K: 1, L: 1}, res.Reflections[0].Miller)
	require.Equal(t, domain.Miller{H: 2, K: 2}, res.Reflections[1].Miller)
	for _, r := range res.Reflections {
		require.False(t, math.IsNaN(r.TwoTheta))
		require.False(t, math.IsNaN(r.Intensity))
	}

	require.Len(t, res.Skipped, 1)
	require.Equal(t, domain.Miller{H: 5, K: 5, L: 5}, res.Skipped[0].Miller)
	require.Contains(t, res.Skipped[0].Reason, "exceeds 1")

	// the surviving results match a run without the out-of-range entry
	clean, err := diffraction.Compute(s.Crystal, s.Sites, []domain.Miller{{H: 1, K: 1, L: 1}, {H: 2, K: 2}}, s.Wavelength)
	require.NoError(t, err)
	require.Equal(t, clean.Reflections, res.Reflections)
}

func TestCompute_HugeIndicesSkipped(t *testing.T) {
	s := domain.ZincBlende()
	reflections := []domain.Miller{{H: 1 << 32}, {H: 1, K: 1, L: 1}, {H: -(1 << 31), K: 1 << 31}}

	res, err := diffraction.Compute(s.Crystal, s.Sites, reflections, s.Wavelength)
	require.NoError(t, err)

	require.Len(t, res.Reflections, 1)
	require.Equal(t, domain.Miller{H: 1, K: 1, L: 1}, res.Reflections[0].Miller)
	require.Len(t, res.Skipped, 2)
	require.Equal(t, domain.Miller{H: 1 << 32}, res.Skipped[0].Miller)
	require.Contains(t, res.Skipped[0].Reason, "exceeds 1")
}

func TestCompute_OverflowingScatteringFactor(t *testing.T) {
	s := domain.ZincBlende()
	s.Sites[0].ScatteringFactor = 1e200

	res, err := diffraction.Compute(s.Crystal, s.Sites, s.Reflections, s.Wavelength)
	require.ErrorIs(t, err, serrors.ErrInvalidStructure)
	require.Empty(t, res.Reflections)
}

func TestCompute_LargeScatteringFactorKeepsPeaks(t *testing.T) {
	s := domain.ZincBlende()
	for i := range s.Sites {
		s.Sites[i].ScatteringFactor *= 1e4
	}

	res, err := diffraction.Compute(s.Crystal, s.Sites, s.Reflections, s.Wavelength)
	require.NoError(t, err)
	for _, r := range res.Reflections {
		require.Positive(t, r.Intensity, r.Miller.Label())
		require.False(t, math.IsInf(r.Intensity, 0))
	}
	require.InEpsilon(t, 18496e8, res.Reflections[0].Intensity, 1e-9)
}

func TestCompute_AllOutOfRange(t *testing.T) {
	res, err := diffraction.Compute(domain.Crystal{LatticeParameter: 1}, domain.ZincBlendeSites(),
		[]domain.Miller{{H: 1, K: 1, L: 1}, {H: 2}}, 5)
	require.NoError(t, err)
	require.Empty(t, res.Reflections)
	require.Len(t, res.Skipped, 2)
	require.Empty(t, diffraction.Normalize(res.Reflections))
}

func TestCompute_BraggMonotonic(t *testing.T) {
	s := domain.ZincBlende()
	reflections := []domain.Miller{
		{H: 4, K: 2, L: 2}, {H: 1, K: 1, L: 1}, {H: 3, K: 3, L: 1}, {H: 2}, {H: 4},
		{H: 2, K: 2}, {H: 3, K: 1, L: 1}, {H: 2, K: 2, L: 2}, {H: 1}, {H: 3, K: 2, L: 1},
	}

	res, err := diffraction.Compute(s.Crystal, s.Sites, reflections, s.Wavelength)
	require.NoError(t, err)

	sorted := append([]domain.Reflection(nil), res.Reflections...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Miller.SumSquares() < sorted[j].Miller.SumSquares()
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		require.Less(t, cur.Spacing, prev.Spacing)
		require.Greater(t, cur.TwoTheta, prev.TwoTheta, "%s vs %s", prev.Miller, cur.Miller)
	}
}

func TestCompute_PermutationSymmetry(t *testing.T) {
	s := domain.ZincBlende()

	// (220), (202) and (022) are equivalent planes of a cubic basis
	res, err := diffraction.Compute(s.Crystal, s.Sites,
		[]domain.Miller{{H: 2, K: 2}, {H: 2, L: 2}, {K: 2, L: 2}}, s.Wavelength)
	require.NoError(t, err)
	for _, r := range res.Reflections[1:] {
		require.InDelta(t, res.Reflections[0].Intensity, r.Intensity, 1e-9)
		require.InDelta(t, res.Reflections[0].TwoTheta, r.TwoTheta, 1e-9)
	}

	// permuting basis coordinates together with the indices leaves |F|² unchanged
	permuted := make([]domain.AtomSite, len(s.Sites))
	for i, site := range s.Sites {
		permuted[i] = domain.AtomSite{Species: site.Species, ScatteringFactor: site.ScatteringFactor}
		for _, p := range site.Positions {
			permuted[i].Positions = append(permuted[i].Positions, domain.Position{X: p.Z, Y: p.X, Z: p.Y})
		}
	}
	for _, m := range []domain.Miller{{H: 1, K: 1, L: 1}, {H: 3, K: 1, L: 1}, {H: 4, K: 2}, {H: 3, K: 2, L: 1}} {
		want := diffraction.Intensity(diffraction.StructureFactor(s.Sites, m))
		got := diffraction.Intensity(diffraction.StructureFactor(permuted, domain.Miller{H: m.L, K: m.H, L: m.K}))
		require.InDelta(t, want, got, 1e-9, m.Label())
	}
}

func TestNormalize(t *testing.T) {
	s := domain.ZincBlende()
	res, err := diffraction.Compute(s.Crystal, s.Sites, s.Reflections, s.Wavelength)
	require.NoError(t, err)

	peaks := diffraction.Normalize(res.Reflections)
	require.Len(t, peaks, len(res.Reflections))

	want := []float64{54.6314, 100, 54.6314, 9.2628, 100}
	var highest float64
	for i, p := range peaks {
		require.InDelta(t, want[i], p.Normalized, 1e-3, p.Miller.Label())
		require.GreaterOrEqual(t, p.Normalized, 0.0)
		require.LessOrEqual(t, p.Normalized, 100.0)
		require.Equal(t, res.Reflections[i], p.Reflection, "raw data is kept alongside")
		highest = math.Max(highest, p.Normalized)
	}
	require.Equal(t, 100.0, highest)
}

func TestNormalize_AllZero(t *testing.T) {
	// two equal scatterers half a cell apart cancel for every odd h
	sites := []domain.AtomSite{{
		Species:          "X",
		ScatteringFactor: 1,
		Positions:        []domain.Position{{X: 0}, {X: 0.5}},
	}}
	reflections := []domain.Miller{{H: 1}, {H: 1, K: 1}, {H: 3, L: 2}}

	res, err := diffraction.Compute(domain.Crystal{LatticeParameter: 5}, sites, reflections, 1.5406)
	require.NoError(t, err)
	require.Len(t, res.Reflections, 3)

	for _, p := range diffraction.Normalize(res.Reflections) {
		require.Zero(t, p.Intensity)
		require.Zero(t, p.Normalized)
		require.False(t, math.IsNaN(p.Normalized))
	}
}

func TestNormalize_Empty(t *testing.T) {
	require.Empty(t, diffraction.Normalize(nil))
}

func TestSimulate(t *testing.T) {
	s := domain.ZincBlende()
	s.Reflections = append(s.Reflections, domain.Miller{H: 5, K: 5, L: 5})

	pattern, err := diffraction.Simulate(s)
	require.NoError(t, err)
	require.Equal(t, s.Crystal, pattern.Crystal)
	require.InDelta(t, s.Wavelength, pattern.Wavelength, 0)
	require.Len(t, pattern.Peaks, 5)
	require.Len(t, pattern.Skipped, 1)

	strongest, ok := pattern.Strongest()
	require.True(t, ok)
	require.Equal(t, domain.Miller{H: 2, K: 2}, strongest.Miller)
}
