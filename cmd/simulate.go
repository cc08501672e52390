package main

import (
	"xrdsim/internal/simulator"
	"xrdsim/pkg/logger"
	"xrdsim/pkg/render"
	"xrdsim/pkg/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"
)

// simulateOptions override the output section of the configuration. Zero
// values defer to the configuration.
type simulateOptions struct {
	output string
	format string
	dpi    int
	cutoff float64
	noPlot bool
}

func addSimulateFlags(cmd *cobra.Command, opts *simulateOptions) {
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "PNG output path (default from config: xrd_sim.png)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Report format: table|json|yaml (default from config: table)")
	cmd.Flags().IntVar(&opts.dpi, "dpi", 0, "PNG resolution (default from config: 200)")
	cmd.Flags().Float64Var(&opts.cutoff, "cutoff", render.DefaultCutoff, "Hide peaks whose normalized intensity is not above this value")
	cmd.Flags().BoolVar(&opts.noPlot, "no-plot", false, "Print the pattern without writing the chart")
}

func simulateCommand(a *app) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Computes the pattern, prints it and writes the chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.simulate(cmd, opts)
		},
	}
	addSimulateFlags(cmd, opts)

	return cmd
}

// renderOptions merges the configured output section with the flags that were
// set on cmd.
func (a *app) renderOptions(cmd *cobra.Command, opts *simulateOptions) render.Options {
	ro := render.DefaultOptions()
	ro.Width = vg.Length(a.cfg.Output.Width) * vg.Inch
	ro.Height = vg.Length(a.cfg.Output.Height) * vg.Inch
	ro.DPI = a.cfg.Output.DPI
	ro.Cutoff = a.cfg.Output.Cutoff

	if opts.dpi > 0 {
		ro.DPI = opts.dpi
	}
	if cmd.Flags().Changed("cutoff") {
		ro.Cutoff = opts.cutoff
	}

	return ro
}

func (a *app) simulate(cmd *cobra.Command, opts *simulateOptions) error {
	ctx := cmd.Context()

	formatName := a.cfg.Output.Format
	if opts.format != "" {
		formatName = opts.format
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return err
	}

	pattern, err := simulator.New(simulator.Options{}).Simulate(ctx, a.cfg.Structure())
	if err != nil {
		return err
	}

	if err := report.Write(a.stdout, *pattern, format); err != nil {
		return err
	}

	if opts.noPlot {
		return nil
	}

	path := a.cfg.Output.Path
	if opts.output != "" {
		path = opts.output
	}
	ro := a.renderOptions(cmd, opts)
	if err := render.SavePNG(path, *pattern, ro); err != nil {
		return err
	}
	logger.Info(ctx, "chart written",
		zap.String("path", path),
		zap.Int("peaks", len(render.Visible(pattern.Peaks, ro.Cutoff))),
		zap.Int("dpi", ro.DPI))

	return nil
}
