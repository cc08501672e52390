// Package main provides the xrdsim command line. Without a subcommand it
// simulates the configured structure (ZnS under Cu Kα by default), prints the
// pattern and writes the chart to xrd_sim.png.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"xrdsim/internal/config"
	"xrdsim/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once the persistent flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
	stdout     io.Writer
}

// setup loads the configuration and initializes logging. It runs before any
// subcommand.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Setup(logger.Options{Environment: cfg.Environment, Level: cfg.LogLevel}); err != nil {
		return err
	}

	ctx := logger.WithFields(cmd.Context(), zap.String("run_id", uuid.NewString()))
	cmd.SetContext(ctx)
	logger.Debug(ctx, "config loaded", zap.String("path", a.configPath))

	return nil
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	a := &app{stdout: stdout}
	opts := &simulateOptions{}

	rootCmd := &cobra.Command{
		Use:           "xrdsim",
		Short:         "Simulates X-ray diffraction stick patterns of cubic crystals",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.simulate(cmd, opts)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (optional)")
	addSimulateFlags(rootCmd, opts)

	rootCmd.AddCommand(
		simulateCommand(a),
		serveCommand(a),
	)

	return rootCmd
}

func main() {
	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync(ctx)

			panic(p)
		}
	}()

	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	logger.Sync(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "xrdsim:", err)
		os.Exit(1) //nolint: gocritic
	}
}
