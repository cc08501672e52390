// Package metrics defines the OpenTelemetry instruments recorded by the
// simulator and the Prometheus-backed meter provider that exports them.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides histogram buckets in seconds for simulation latency.
var DefaultBuckets = []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1} //nolint: gochecknoglobals

const meterName = "xrdsim"

// NewMeterProvider returns a meter provider whose readings are exported to reg.
func NewMeterProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// Recorder records simulation outcomes.
type Recorder struct {
	simulations metric.Int64Counter
	reflections metric.Int64Counter
	skipped     metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewRecorder creates the simulator instruments on mp.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	meter := mp.Meter(meterName)

	simulations, err := meter.Int64Counter("xrdsim.simulations",
		metric.WithDescription("Number of simulations run"))
	if err != nil {
		return nil, fmt.Errorf("could not create simulations counter: %w", err)
	}

	reflections, err := meter.Int64Counter("xrdsim.reflections",
		metric.WithDescription("Number of reflections evaluated into peaks"))
	if err != nil {
		return nil, fmt.Errorf("could not create reflections counter: %w", err)
	}

	skipped, err := meter.Int64Counter("xrdsim.reflections.skipped",
		metric.WithDescription("Number of reflections excluded because λ/2d > 1"))
	if err != nil {
		return nil, fmt.Errorf("could not create skipped counter: %w", err)
	}

	duration, err := meter.Float64Histogram("xrdsim.simulation.duration",
		metric.WithDescription("Time spent computing a pattern"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create duration histogram: %w", err)
	}

	return &Recorder{
		simulations: simulations,
		reflections: reflections,
		skipped:     skipped,
		duration:    duration,
	}, nil
}

// Simulation records one finished simulation. A nil Recorder records nothing.
func (r *Recorder) Simulation(ctx context.Context, peaks, skipped int, elapsed time.Duration) {
	if r == nil {
		return
	}

	r.simulations.Add(ctx, 1)
	r.reflections.Add(ctx, int64(peaks))
	r.skipped.Add(ctx, int64(skipped))
	r.duration.Record(ctx, elapsed.Seconds())
}
