package observability

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// instruments creates instruments on one meter and collects every creation
// error, so a constructor checks once at the end.
type instruments struct {
	meter metric.Meter
	errs  []error
}

func (in *instruments) int64Counter(name, desc, unit string) metric.Int64Counter {
	counter, err := in.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	in.check(name, err)

	return counter
}

// secondsHistogram creates a histogram in seconds over the given bucket bounds.
func (in *instruments) secondsHistogram(name, desc string, bounds []float64) metric.Float64Histogram {
	hist, err := in.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(bounds...),
	)
	in.check(name, err)

	return hist
}

func (in *instruments) check(name string, err error) {
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("create %s: %w", name, err))
	}
}

func (in *instruments) err() error {
	return errors.Join(in.errs...)
}
