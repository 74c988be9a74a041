package main

import (
	"context"

	"calc-history/internal/calculator"
	"calc-history/internal/history"
	"calc-history/internal/observability"
)

// initMetrics initialises all metric providers and application-specific
// metric instruments. Add new domain InitMetrics calls here as the project grows.
func initMetrics(ctx context.Context) (func(context.Context) error, error) {
	shutdown, err := observability.InitMetrics(ctx)
	if err != nil {
		return nil, err
	}

	if err := calculator.InitMetrics(); err != nil {
		return nil, err
	}

	if err := history.InitMetrics(); err != nil {
		return nil, err
	}

	return shutdown, nil
}
