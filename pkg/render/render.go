// Package render draws diffraction stick patterns with gonum/plot and encodes
// them as PNG.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"

	"xrdsim/pkg/domain"
	"xrdsim/pkg/serrors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	// DefaultCutoff hides peaks at or below 1% of the strongest one.
	DefaultCutoff = 1.0
	// DefaultDPI is the raster resolution of the PNG output.
	DefaultDPI = 200
	// labelOffset is the gap between a peak top and its label, in intensity units.
	labelOffset = 5.0
	// headroom scales the y axis above the strongest visible peak so labels fit.
	headroom = 1.35
)

// Options control the chart.
type Options struct {
	// Title defaults to "Simulated XRD Pattern of Cubic <crystal name>".
	Title string
	// Width and Height are the canvas size.
	Width, Height vg.Length
	// DPI is the PNG resolution.
	DPI int
	// Cutoff is the normalized intensity a peak must exceed to be drawn.
	Cutoff float64
	// LineColor and LineWidth style the sticks.
	LineColor color.Color
	LineWidth vg.Length
}

// DefaultOptions returns an 8×4 inch, 200 DPI chart with blue 2 pt sticks and
// a 1% cutoff.
func DefaultOptions() Options {
	return Options{
		Width:     8 * vg.Inch,
		Height:    4 * vg.Inch,
		DPI:       DefaultDPI,
		Cutoff:    DefaultCutoff,
		LineColor: color.RGBA{B: 255, A: 255},
		LineWidth: vg.Points(2),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	if o.DPI <= 0 {
		o.DPI = def.DPI
	}
	if o.LineColor == nil {
		o.LineColor = def.LineColor
	}
	if o.LineWidth <= 0 {
		o.LineWidth = def.LineWidth
	}

	return o
}

// Visible returns the peaks whose normalized intensity is strictly above
// cutoff. The pattern itself is not modified.
func Visible(peaks []domain.Peak, cutoff float64) []domain.Peak {
	out := make([]domain.Peak, 0, len(peaks))
	for _, p := range peaks {
		if p.Normalized > cutoff {
			out = append(out, p)
		}
	}

	return out
}

// Plot builds the stick chart of pattern.
func Plot(pattern domain.Pattern, opts Options) (*plot.Plot, error) {
	opts = opts.withDefaults()

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = "Simulated XRD Pattern of Cubic " + pattern.Crystal.Name
	}
	p.X.Label.Text = "2θ (degrees)"
	p.Y.Label.Text = "Intensity (normalized)"

	grid := plotter.NewGrid()
	dashes := []vg.Length{vg.Points(4), vg.Points(2)}
	grid.Vertical.Dashes = dashes
	grid.Horizontal.Dashes = dashes
	grid.Vertical.Color = color.Gray{Y: 160}
	grid.Horizontal.Color = color.Gray{Y: 160}
	p.Add(grid)

	visible := Visible(pattern.Peaks, opts.Cutoff)

	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(visible)),
		Labels: make([]string, len(visible)),
	}
	xmin, xmax, ymax := math.Inf(1), math.Inf(-1), 0.0
	for i, peak := range visible {
		stick, err := plotter.NewLine(plotter.XYs{
			{X: peak.TwoTheta, Y: 0},
			{X: peak.TwoTheta, Y: peak.Normalized},
		})
		if err != nil {
			return nil, fmt.Errorf("could not create stick for %s: %w", peak.Miller.Label(), err)
		}
		stick.LineStyle.Color = opts.LineColor
		stick.LineStyle.Width = opts.LineWidth
		p.Add(stick)

		labels.XYs[i] = plotter.XY{X: peak.TwoTheta, Y: peak.Normalized + labelOffset}
		labels.Labels[i] = peak.Miller.Label()

		xmin = math.Min(xmin, peak.TwoTheta)
		xmax = math.Max(xmax, peak.TwoTheta)
		ymax = math.Max(ymax, peak.Normalized)
	}

	if len(visible) > 0 {
		annotations, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, fmt.Errorf("could not create labels: %w", err)
		}
		for i := range annotations.TextStyle {
			// rotated a quarter turn, reading upwards from just above the stick
			annotations.TextStyle[i].Rotation = math.Pi / 2
			annotations.TextStyle[i].XAlign = text.XLeft
			annotations.TextStyle[i].YAlign = text.YCenter
		}
		p.Add(annotations)

		p.X.Min, p.X.Max = math.Max(0, xmin-5), math.Min(180, xmax+5)
		p.Y.Min, p.Y.Max = 0, ymax*headroom+labelOffset
	} else {
		p.X.Min, p.X.Max = 10, 90
		p.Y.Min, p.Y.Max = 0, 100
	}

	return p, nil
}

// WritePNG renders pattern and writes it to w as a PNG.
func WritePNG(w io.Writer, pattern domain.Pattern, opts Options) error {
	opts = opts.withDefaults()

	p, err := Plot(pattern, opts)
	if err != nil {
		return err
	}

	c := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	p.Draw(draw.New(c))

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return serrors.Wrap(serrors.ErrIO, err, "could not encode png")
	}

	return nil
}

// SavePNG writes the chart of pattern to path, replacing any existing file.
func SavePNG(path string, pattern domain.Pattern, opts Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return serrors.Wrap(serrors.ErrIO, err, "could not create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = serrors.Wrap(serrors.ErrIO, cerr, "could not close %s", path)
		}
	}()

	if err := WritePNG(f, pattern, opts); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	return nil
}
