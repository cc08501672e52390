package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"xrdsim/internal/api"
	"xrdsim/internal/api/handler/v1handler"
	"xrdsim/internal/simulator"
	"xrdsim/pkg/logger"
	"xrdsim/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the pattern API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mp, err := metrics.NewMeterProvider(prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			defer func() {
				if err := mp.Shutdown(context.Background()); err != nil {
					logger.Warn(ctx, "could not stop meter provider", zap.Error(err))
				}
			}()

			recorder, err := metrics.NewRecorder(mp)
			if err != nil {
				return err
			}

			opts := &simulateOptions{}
			server := api.NewServer(api.Deps{
				Deps: v1handler.Deps{
					Simulator:    simulator.New(simulator.Options{Recorder: recorder}),
					Structure:    a.cfg.Structure(),
					Render:       a.renderOptions(cmd, opts),
					MaxBodyBytes: a.cfg.HTTP.MaxBodyBytes,
				},
			}, api.NewOptions(a.cfg))

			errCh := make(chan error, 1)
			go func() {
				logger.Info(ctx, "starting webserver...", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
			defer cancel()

			logger.Info(ctx, "stopping webserver...")
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error(ctx, "could not stop webserver", zap.Error(err))

				return err
			}

			return nil
		},
	}

	return cmd
}
