package history

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments, initialized once via InitMetrics().
var (
	appendCounter   metric.Int64Counter
	persistCounter  metric.Int64Counter
	persistFailures metric.Int64Counter
	persistDuration metric.Float64Histogram
	entriesGauge    metric.Int64Gauge
)

// InitMetrics registers the history log's OTel instruments.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("history")

	var err error

	appendCounter, err = meter.Int64Counter("history.records.appended",
		metric.WithDescription("Calculation records appended to the in-memory log"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return fmt.Errorf("creating append counter: %w", err)
	}

	persistCounter, err = meter.Int64Counter("history.persist.total",
		metric.WithDescription("Persistence operations dispatched to the history store"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return fmt.Errorf("creating persist counter: %w", err)
	}

	persistFailures, err = meter.Int64Counter("history.persist.failures",
		metric.WithDescription("Persistence operations that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating persist failure counter: %w", err)
	}

	persistDuration, err = meter.Float64Histogram("history.persist.duration",
		metric.WithDescription("Duration of history store operations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return fmt.Errorf("creating persist histogram: %w", err)
	}

	entriesGauge, err = meter.Int64Gauge("history.entries",
		metric.WithDescription("Records currently held by the in-memory log"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return fmt.Errorf("creating entries gauge: %w", err)
	}

	return nil
}
