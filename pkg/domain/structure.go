package domain

import (
	"math"

	"xrdsim/pkg/serrors"
)

// Crystal describes a cubic unit cell.
type Crystal struct {
	// Name is a display name such as "ZnS"; it only appears in titles and reports.
	Name string `json:"name" yaml:"name"`
	// LatticeParameter is the cube edge length a in Å.
	LatticeParameter float64 `json:"latticeParameter" yaml:"latticeParameter"`
}

// Position is a fractional coordinate inside the unit cell.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// AtomSite is a chemical species with a constant scattering factor. Every
// entry of Positions is a distinct atom of the cell.
type AtomSite struct {
	Species          string     `json:"species" yaml:"species"`
	ScatteringFactor float64    `json:"scatteringFactor" yaml:"scatteringFactor"`
	Positions        []Position `json:"positions" yaml:"positions"`
}

// Structure bundles everything a simulation run needs: the crystal, its atom
// basis, the incident wavelength (Å) and the reflections to evaluate.
type Structure struct {
	Crystal     Crystal    `json:"crystal" yaml:"crystal"`
	Sites       []AtomSite `json:"sites" yaml:"sites"`
	Wavelength  float64    `json:"wavelength" yaml:"wavelength"`
	Reflections []Miller   `json:"reflections" yaml:"reflections"`
}

const (
	// ZnSLatticeParameter is the cubic ZnS cell edge in Å.
	ZnSLatticeParameter = 5.41
	// CuKAlpha is the Cu Kα1 wavelength in Å.
	CuKAlpha = 1.5406
	// MaxScatteringFactor bounds |f| per site. Real atomic form factors stay
	// below ~100 electrons; the bound keeps |F|² finite for any cell.
	MaxScatteringFactor = 1e6
)

// ZincBlendeSites returns the ZnS basis: Zn (f = 30) on the fcc positions and
// S (f = 16) on the same lattice shifted by (¼,¼,¼).
func ZincBlendeSites() []AtomSite {
	return []AtomSite{
		{
			Species:          "Zn",
			ScatteringFactor: 30,
			Positions: []Position{
				{0, 0, 0},
				{0.5, 0.5, 0},
				{0.5, 0, 0.5},
				{0, 0.5, 0.5},
			},
		},
		{
			Species:          "S",
			ScatteringFactor: 16,
			Positions: []Position{
				{0.25, 0.25, 0.25},
				{0.75, 0.75, 0.25},
				{0.75, 0.25, 0.75},
				{0.25, 0.75, 0.75},
			},
		},
	}
}

// DefaultReflections returns the reflections simulated when none are configured.
func DefaultReflections() []Miller {
	return []Miller{{1, 1, 1}, {2, 2, 0}, {3, 1, 1}, {2, 2, 2}, {4, 0, 0}}
}

// ZincBlende returns the default ZnS structure probed with Cu Kα radiation.
func ZincBlende() Structure {
	return Structure{
		Crystal:     Crystal{Name: "ZnS", LatticeParameter: ZnSLatticeParameter},
		Sites:       ZincBlendeSites(),
		Wavelength:  CuKAlpha,
		Reflections: DefaultReflections(),
	}
}

// Validate checks the structure against the model constraints. Zero Miller
// triples are not rejected here; the calculator reports them with their own
// error kind.
func (s Structure) Validate() error {
	if !positiveFinite(s.Crystal.LatticeParameter) {
		return serrors.With(serrors.ErrInvalidStructure,
			"lattice parameter must be positive, got %v", s.Crystal.LatticeParameter)
	}
	if !positiveFinite(s.Wavelength) {
		return serrors.With(serrors.ErrInvalidStructure, "wavelength must be positive, got %v", s.Wavelength)
	}
	if len(s.Sites) == 0 {
		return serrors.With(serrors.ErrInvalidStructure, "structure has no atom sites")
	}
	for i, site := range s.Sites {
		if math.IsNaN(site.ScatteringFactor) || math.Abs(site.ScatteringFactor) > MaxScatteringFactor {
			return serrors.With(serrors.ErrInvalidStructure,
				"site %d (%s): scattering factor must be within ±%g, got %v",
				i, site.Species, MaxScatteringFactor, site.ScatteringFactor)
		}
		if len(site.Positions) == 0 {
			return serrors.With(serrors.ErrInvalidStructure, "site %d (%s) has no positions", i, site.Species)
		}
		for j, p := range site.Positions {
			if !fractional(p.X) || !fractional(p.Y) || !fractional(p.Z) {
				return serrors.With(serrors.ErrInvalidStructure,
					"site %d (%s) position %d (%g, %g, %g) is outside [0,1)", i, site.Species, j, p.X, p.Y, p.Z)
			}
		}
	}
	if len(s.Reflections) == 0 {
		return serrors.With(serrors.ErrInvalidStructure, "structure has no reflections")
	}

	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func fractional(v float64) bool {
	return v >= 0 && v < 1
}
