// Package report writes a diffraction pattern as a terminal table, JSON or
// YAML. Every format carries every peak, including the ones a chart would hide
// below its display cutoff, and every skipped reflection.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"xrdsim/pkg/domain"
	"xrdsim/pkg/serrors"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-faster/jx"
	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat maps a user-supplied name to a Format. The empty string is the
// table format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", serrors.With(serrors.ErrBadRequest, "unknown output format %q (want table, json or yaml)", s)
	}
}

// ContentType returns the media type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Write encodes pattern to w in format f.
func Write(w io.Writer, pattern domain.Pattern, f Format) error {
	var err error
	switch f {
	case FormatTable, "":
		err = writeTable(w, pattern)
	case FormatJSON:
		_, err = w.Write(EncodeJSON(pattern))
	case FormatYAML:
		err = writeYAML(w, pattern)
	default:
		return serrors.With(serrors.ErrBadRequest, "unknown output format %q", string(f))
	}
	if err != nil {
		return serrors.Wrap(serrors.ErrIO, err, "could not write %s report", string(f))
	}

	return nil
}

func writeTable(w io.Writer, pattern domain.Pattern) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("hkl", "d (Å)", "2θ (°)", "|F|²", "I (norm)")

	for _, p := range pattern.Peaks {
		t.Row(
			p.Miller.Label(),
			strconv.FormatFloat(p.Spacing, 'f', 4, 64),
			strconv.FormatFloat(p.TwoTheta, 'f', 3, 64),
			strconv.FormatFloat(p.Intensity, 'f', 1, 64),
			strconv.FormatFloat(p.Normalized, 'f', 2, 64),
		)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  a = %g Å  λ = %g Å\n", pattern.Crystal.Name, pattern.Crystal.LatticeParameter, pattern.Wavelength)
	b.WriteString(t.Render())
	b.WriteByte('\n')
	for _, s := range pattern.Skipped {
		fmt.Fprintf(&b, "skipped %s: %s\n", s.Miller.Label(), s.Reason)
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func encodeMiller(e *jx.Encoder, m domain.Miller) {
	e.ArrStart()
	e.Int(m.H)
	e.Int(m.K)
	e.Int(m.L)
	e.ArrEnd()
}

// EncodeJSON returns the JSON document of pattern.
func EncodeJSON(pattern domain.Pattern) []byte {
	var e jx.Encoder
	e.SetIdent(2)

	e.ObjStart()
	e.FieldStart("crystal")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(pattern.Crystal.Name)
	e.FieldStart("latticeParameter")
	e.Float64(pattern.Crystal.LatticeParameter)
	e.ObjEnd()

	e.FieldStart("wavelength")
	e.Float64(pattern.Wavelength)

	e.FieldStart("peaks")
	e.ArrStart()
	for _, p := range pattern.Peaks {
		e.ObjStart()
		e.FieldStart("hkl")
		encodeMiller(&e, p.Miller)
		e.FieldStart("label")
		e.Str(p.Miller.Label())
		e.FieldStart("spacing")
		e.Float64(p.Spacing)
		e.FieldStart("twoTheta")
		e.Float64(p.TwoTheta)
		e.FieldStart("structureFactor")
		e.ObjStart()
		e.FieldStart("re")
		e.Float64(real(p.StructureFactor))
		e.FieldStart("im")
		e.Float64(imag(p.StructureFactor))
		e.ObjEnd()
		e.FieldStart("intensity")
		e.Float64(p.Intensity)
		e.FieldStart("normalized")
		e.Float64(p.Normalized)
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("skipped")
	e.ArrStart()
	for _, s := range pattern.Skipped {
		e.ObjStart()
		e.FieldStart("hkl")
		encodeMiller(&e, s.Miller)
		e.FieldStart("label")
		e.Str(s.Miller.Label())
		e.FieldStart("reason")
		e.Str(s.Reason)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()

	return append(e.Bytes(), '\n')
}

type yamlPeak struct {
	HKL             [3]int  `yaml:"hkl,flow"`
	Label           string  `yaml:"label"`
	Spacing         float64 `yaml:"spacing"`
	TwoTheta        float64 `yaml:"twoTheta"`
	StructureFactor struct {
		Re float64 `yaml:"re"`
		Im float64 `yaml:"im"`
	} `yaml:"structureFactor,flow"`
	Intensity  float64 `yaml:"intensity"`
	Normalized float64 `yaml:"normalized"`
}

type yamlSkipped struct {
	HKL    [3]int `yaml:"hkl,flow"`
	Label  string `yaml:"label"`
	Reason string `yaml:"reason"`
}

type yamlPattern struct {
	Crystal    domain.Crystal `yaml:"crystal"`
	Wavelength float64        `yaml:"wavelength"`
	Peaks      []yamlPeak     `yaml:"peaks"`
	Skipped    []yamlSkipped  `yaml:"skipped,omitempty"`
}

func writeYAML(w io.Writer, pattern domain.Pattern) error {
	doc := yamlPattern{
		Crystal:    pattern.Crystal,
		Wavelength: pattern.Wavelength,
		Peaks:      make([]yamlPeak, len(pattern.Peaks)),
	}
	for i, p := range pattern.Peaks {
		doc.Peaks[i] = yamlPeak{
			HKL:        [3]int{p.Miller.H, p.Miller.K, p.Miller.L},
			Label:      p.Miller.Label(),
			Spacing:    p.Spacing,
			TwoTheta:   p.TwoTheta,
			Intensity:  p.Intensity,
			Normalized: p.Normalized,
		}
		doc.Peaks[i].StructureFactor.Re = real(p.StructureFactor)
		doc.Peaks[i].StructureFactor.Im = imag(p.StructureFactor)
	}
	for _, s := range pattern.Skipped {
		doc.Skipped = append(doc.Skipped, yamlSkipped{
			HKL:    [3]int{s.Miller.H, s.Miller.K, s.Miller.L},
			Label:  s.Miller.Label(),
			Reason: s.Reason,
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("could not encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("could not encode yaml: %w", err)
	}

	_, err := w.Write(buf.Bytes())

	return err
}
