package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/architeacher/svc-task-runner/internal/config"
)

func newManualMetrics(t *testing.T) (*OTELMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := newOTELMetrics(provider, "test", NewTestLogger())
	require.NoError(t, err)

	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}

	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestOTELMetrics_RecordTaskProcessed(t *testing.T) {
	t.Parallel()

	metrics, reader := newManualMetrics(t)
	ctx := context.Background()

	metrics.RecordTaskProcessed(ctx, "tasks", 10*time.Millisecond, true, "")
	metrics.RecordTaskProcessed(ctx, "tasks", 20*time.Millisecond, false, "ack_failed")

	collected := collect(t, reader)

	assert.Equal(t, int64(2), sumOf(t, collected["tasks_total"]))
	assert.Equal(t, int64(1), sumOf(t, collected["task_errors_total"]))

	histogram, ok := collected["task_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	for _, dp := range histogram.DataPoints {
		count += dp.Count
	}

	assert.Equal(t, uint64(2), count)
}

func TestOTELMetrics_RecordSessionEnded(t *testing.T) {
	t.Parallel()

	metrics, reader := newManualMetrics(t)

	metrics.RecordSessionEnded(context.Background(), "tasks", true)

	sum, ok := collect(t, reader)["consumer_sessions_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	outcome, found := sum.DataPoints[0].Attributes.Value(attribute.Key(outcomeKey))
	require.True(t, found)
	assert.Equal(t, "reconnect", outcome.AsString())
}

func TestNewMetrics_Disabled(t *testing.T) {
	t.Parallel()

	metrics, err := NewMetrics(context.Background(), config.ServiceConfig{}, NewTestLogger())
	require.NoError(t, err)

	assert.IsType(t, &NoOpMetrics{}, metrics)
	assert.NotNil(t, metrics.Handler())
	assert.NoError(t, metrics.Shutdown(context.Background()))
}
