package database

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/trip-planner/internal/app/observability/metrics"
)

// ObserveQuery records the duration of a repository operation and counts it
// as an error when err is non-nil.
func ObserveQuery(ctx context.Context, op string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("db.operation", op))
	m.DBQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.DBQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}
