package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/intrusive/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.ContainerMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	cm, err := observability.NewContainerMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return cm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumOf(t *testing.T, metrics *metricdata.Metrics) int64 {
	t.Helper()

	require.NotNil(t, metrics)

	sum, ok := metrics.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64

	for _, point := range sum.DataPoints {
		total += point.Value
	}

	return total
}

func TestContainerMetrics_RecordOps(t *testing.T) {
	t.Parallel()

	cm, reader := setupTestMeter(t)
	ctx := context.Background()

	cm.RecordOps(ctx, "rbtree", "insert", 24)
	cm.RecordOps(ctx, "rbtree", "remove", 24)
	cm.RecordOps(ctx, "queue", "push", 0)

	rm := collectMetrics(t, reader)
	ops := findMetric(rm, "intrusive.ops.total")
	assert.Equal(t, int64(48), sumOf(t, ops))

	sum, ok := ops.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, sum.DataPoints, 2)
}

func TestContainerMetrics_RecordDuration(t *testing.T) {
	t.Parallel()

	cm, reader := setupTestMeter(t)

	cm.RecordDuration(context.Background(), "rbtree", "lookup", 3*time.Millisecond)

	rm := collectMetrics(t, reader)
	duration := findMetric(rm, "intrusive.op.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestContainerMetrics_RecordViolation(t *testing.T) {
	t.Parallel()

	cm, reader := setupTestMeter(t)

	cm.RecordViolation(context.Background(), "rbtree", "black_height")

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "intrusive.violations.total")))
}

func TestContainerMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var cm *observability.ContainerMetrics

	assert.NotPanics(t, func() {
		cm.RecordOps(context.Background(), "stack", "push", 1)
		cm.RecordDuration(context.Background(), "stack", "push", time.Microsecond)
		cm.RecordViolation(context.Background(), "stack", "size")
	})
}

func TestNewContainerMetrics_WithNoopMeter(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	cm, err := observability.NewContainerMetrics(providers.Meter)
	require.NoError(t, err)
	assert.NotNil(t, cm)

	cm.RecordOps(context.Background(), "hashtable", "insert", 1)
}
