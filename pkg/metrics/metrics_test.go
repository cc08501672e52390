package metrics_test

import (
	"context"
	"testing"
	"time"

	"xrdsim/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}

	return out
}

func sumOf(t *testing.T, agg metricdata.Aggregation) int64 {
	t.Helper()

	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "unexpected aggregation %T", agg)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestRecorder_Simulation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	rec, err := metrics.NewRecorder(mp)
	require.NoError(t, err)

	ctx := context.Background()
	rec.Simulation(ctx, 5, 0, time.Millisecond)
	rec.Simulation(ctx, 4, 1, 2*time.Millisecond)

	got := collect(t, reader)
	require.Equal(t, int64(2), sumOf(t, got["xrdsim.simulations"]))
	require.Equal(t, int64(9), sumOf(t, got["xrdsim.reflections"]))
	require.Equal(t, int64(1), sumOf(t, got["xrdsim.reflections.skipped"]))

	hist, ok := got["xrdsim.simulation.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	require.Equal(t, uint64(2), hist.DataPoints[0].Count)
	require.Equal(t, metrics.DefaultBuckets, hist.DataPoints[0].Bounds)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *metrics.Recorder
	require.NotPanics(t, func() {
		rec.Simulation(context.Background(), 1, 1, time.Second)
	})
}

func TestNewMeterProvider(t *testing.T) {
	reg := prometheus.NewRegistry()
	mp, err := metrics.NewMeterProvider(reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	rec, err := metrics.NewRecorder(mp)
	require.NoError(t, err)
	rec.Simulation(context.Background(), 3, 0, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["xrdsim_simulations_total"], "exported families: %v", names)
}
