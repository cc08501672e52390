package v1handler

import (
	"fmt"

	"xrdsim/pkg/domain"
	"xrdsim/pkg/serrors"

	"github.com/go-faster/jx"
)

// DecodeStructure reads a JSON structure document on top of base. Fields
// missing from the document keep base's values; "sites" and "reflections"
// replace base's lists entirely when present.
//
//	{
//	  "crystal": {"name": "NaCl", "latticeParameter": 5.64},
//	  "wavelength": 1.5406,
//	  "sites": [{"species": "Na", "scatteringFactor": 11, "positions": [[0, 0, 0]]}],
//	  "reflections": [[1, 1, 1], [2, 0, 0]]
//	}
func DecodeStructure(data []byte, base domain.Structure) (domain.Structure, error) {
	s := base
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "crystal":
			return decodeCrystal(d, &s.Crystal)
		case "wavelength":
			v, err := d.Float64()
			if err != nil {
				return fmt.Errorf("wavelength: %w", err)
			}
			s.Wavelength = v
		case "sites":
			sites, err := decodeSites(d)
			if err != nil {
				return fmt.Errorf("sites: %w", err)
			}
			s.Sites = sites
		case "reflections":
			reflections, err := decodeReflections(d)
			if err != nil {
				return fmt.Errorf("reflections: %w", err)
			}
			s.Reflections = reflections
		default:
			return d.Skip()
		}

		return nil
	})
	if err != nil {
		return domain.Structure{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid structure document")
	}

	return s, nil
}

func decodeCrystal(d *jx.Decoder, c *domain.Crystal) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			if err != nil {
				return fmt.Errorf("crystal name: %w", err)
			}
			c.Name = v
		case "latticeParameter":
			v, err := d.Float64()
			if err != nil {
				return fmt.Errorf("lattice parameter: %w", err)
			}
			c.LatticeParameter = v
		default:
			return d.Skip()
		}

		return nil
	})
}

func decodeSites(d *jx.Decoder) ([]domain.AtomSite, error) {
	var sites []domain.AtomSite
	err := d.Arr(func(d *jx.Decoder) error {
		var site domain.AtomSite
		err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "species":
				v, err := d.Str()
				if err != nil {
					return err
				}
				site.Species = v
			case "scatteringFactor":
				v, err := d.Float64()
				if err != nil {
					return err
				}
				site.ScatteringFactor = v
			case "positions":
				return d.Arr(func(d *jx.Decoder) error {
					var xyz [3]float64
					n := 0
					if err := d.Arr(func(d *jx.Decoder) error {
						v, err := d.Float64()
						if err != nil {
							return err
						}
						if n < len(xyz) {
							xyz[n] = v
						}
						n++

						return nil
					}); err != nil {
						return err
					}
					if n != len(xyz) {
						return fmt.Errorf("position needs 3 coordinates, got %d", n)
					}
					site.Positions = append(site.Positions, domain.Position{X: xyz[0], Y: xyz[1], Z: xyz[2]})

					return nil
				})
			default:
				return d.Skip()
			}

			return nil
		})
		if err != nil {
			return err
		}
		sites = append(sites, site)

		return nil
	})

	return sites, err
}

func decodeReflections(d *jx.Decoder) ([]domain.Miller, error) {
	var reflections []domain.Miller
	err := d.Arr(func(d *jx.Decoder) error {
		var hkl [3]int
		n := 0
		if err := d.Arr(func(d *jx.Decoder) error {
			v, err := d.Int()
			if err != nil {
				return err
			}
			if n < len(hkl) {
				hkl[n] = v
			}
			n++

			return nil
		}); err != nil {
			return err
		}
		if n != len(hkl) {
			return fmt.Errorf("miller triple needs 3 indices, got %d", n)
		}
		reflections = append(reflections, domain.Miller{H: hkl[0], K: hkl[1], L: hkl[2]})

		return nil
	})

	return reflections, err
}
