package simulator

import (
	"context"
	"fmt"
	"time"

	"xrdsim/internal/diffraction"
	"xrdsim/pkg/domain"
	"xrdsim/pkg/logger"
	"xrdsim/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "xrdsim/internal/simulator"

// Options configure the simulator. Zero values are valid: a nil Recorder
// records nothing and a nil Tracer uses the global tracer provider.
type Options struct {
	// Recorder receives one observation per successful simulation.
	Recorder *metrics.Recorder
	// Tracer wraps each simulation in a span.
	Tracer trace.Tracer
}

// simulator is the concrete implementation of the Simulator interface.
type simulator struct {
	recorder *metrics.Recorder
	tracer   trace.Tracer
	now      func() time.Time
}

// Simulate validates structure, computes its reflections and normalizes them
// into a pattern. Reflections that cannot diffract at the structure's
// wavelength are logged at warn level and reported in Pattern.Skipped.
func (s simulator) Simulate(ctx context.Context, structure domain.Structure) (*domain.Pattern, error) {
	ctx, span := s.tracer.Start(ctx, "Simulate", trace.WithAttributes(
		attribute.String("crystal", structure.Crystal.Name),
		attribute.Int("reflections", len(structure.Reflections)),
	))
	defer span.End()

	ctx = logger.WithFields(ctx, zap.String("crystal", structure.Crystal.Name))

	if err := structure.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("could not validate structure: %w", err)
	}

	start := s.now()
	pattern, err := diffraction.Simulate(structure)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("could not compute pattern: %w", err)
	}
	elapsed := s.now().Sub(start)

	for _, skipped := range pattern.Skipped {
		logger.Warn(ctx, "reflection cannot diffract at this wavelength, skipping",
			zap.String("hkl", skipped.Miller.Label()),
			zap.String("reason", skipped.Reason))
	}
	if strongest, ok := pattern.Strongest(); ok && strongest.Intensity == 0 {
		logger.Warn(ctx, "every reflection is extinct, normalization skipped")
	}

	if logger.IsDebug(ctx) {
		for _, peak := range pattern.Peaks {
			logger.Debug(ctx, "peak",
				zap.String("hkl", peak.Miller.Label()),
				zap.Float64("two_theta", peak.TwoTheta),
				zap.Float64("intensity", peak.Intensity),
				zap.Float64("normalized", peak.Normalized))
		}
	}
	logger.Debug(ctx, "pattern computed",
		zap.Int("peaks", len(pattern.Peaks)),
		zap.Int("skipped", len(pattern.Skipped)),
		zap.Duration("elapsed", elapsed))

	span.SetAttributes(
		attribute.Int("peaks", len(pattern.Peaks)),
		attribute.Int("skipped", len(pattern.Skipped)),
	)
	s.recorder.Simulation(ctx, len(pattern.Peaks), len(pattern.Skipped), elapsed)

	return &pattern, nil
}

// New creates a Simulator configured with options.
func New(options Options) Simulator {
	tracer := options.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	return &simulator{
		recorder: options.Recorder,
		tracer:   tracer,
		now:      time.Now,
	}
}
