package calculator

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments, initialized once via InitMetrics().
var (
	inputCounter   metric.Int64Counter
	inputHistogram metric.Float64Histogram
	errorCounter   metric.Int64Counter
)

// InitMetrics registers custom OTel metric instruments for the calculator domain.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	inputCounter, err = meter.Int64Counter("calculator.inputs.total",
		metric.WithDescription("Total number of calculator inputs applied"),
		metric.WithUnit("{input}"),
	)
	if err != nil {
		return fmt.Errorf("creating input counter: %w", err)
	}

	inputHistogram, err = meter.Float64Histogram("calculator.input.duration",
		metric.WithDescription("Duration of applying one calculator input in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("creating input histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of rejected inputs and failed calculations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	return nil
}
