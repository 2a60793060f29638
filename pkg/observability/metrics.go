package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricOpsTotal        = "intrusive.ops.total"
	metricOpDuration      = "intrusive.op.duration.seconds"
	metricViolationsTotal = "intrusive.violations.total"

	attrContainer = "container"
	attrOp        = "op"
	attrCheck     = "check"
)

// durationBucketBoundaries covers 1µs to 10s: single container operations
// sit at the low end, whole benchmark rounds at the high end.
var durationBucketBoundaries = []float64{1e-6, 1e-5, 1e-4, 1e-3, 0.01, 0.1, 1, 10}

// ContainerMetrics holds the OTel instruments fed by the stress and bench runners.
type ContainerMetrics struct {
	opsTotal        metric.Int64Counter
	opDuration      metric.Float64Histogram
	violationsTotal metric.Int64Counter
}

// NewContainerMetrics creates container metric instruments from the given meter.
func NewContainerMetrics(mt metric.Meter) (*ContainerMetrics, error) {
	in := &instruments{meter: mt}

	cm := &ContainerMetrics{
		opsTotal:        in.int64Counter(metricOpsTotal, "Total container operations by container and op", "{op}"),
		opDuration:      in.secondsHistogram(metricOpDuration, "Container operation batch duration", durationBucketBoundaries),
		violationsTotal: in.int64Counter(metricViolationsTotal, "Total invariant violations detected", "{violation}"),
	}

	err := in.err()
	if err != nil {
		return nil, err
	}

	return cm, nil
}

// RecordOps adds count operations of kind op on container.
// Safe to call on a nil receiver (no-op).
func (cm *ContainerMetrics) RecordOps(ctx context.Context, container, op string, count int64) {
	if cm == nil || count == 0 {
		return
	}

	cm.opsTotal.Add(ctx, count, metric.WithAttributes(
		attribute.String(attrContainer, container),
		attribute.String(attrOp, op),
	))
}

// RecordDuration records how long a batch of op on container took.
// Safe to call on a nil receiver (no-op).
func (cm *ContainerMetrics) RecordDuration(ctx context.Context, container, op string, duration time.Duration) {
	if cm == nil {
		return
	}

	cm.opDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrContainer, container),
		attribute.String(attrOp, op),
	))
}

// RecordViolation counts one failed invariant check on container.
// Safe to call on a nil receiver (no-op).
func (cm *ContainerMetrics) RecordViolation(ctx context.Context, container, check string) {
	if cm == nil {
		return
	}

	cm.violationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrContainer, container),
		attribute.String(attrCheck, check),
	))
}
