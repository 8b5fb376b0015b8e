package otel

import (
	"context"
	"fmt"
	"time"

	"github.com/io-da/query"
	cqrs "github.com/terraskye/bankledger"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// WithQueryTelemetry wraps a query handler with OpenTelemetry tracing and
// metrics: a span per query named after the query type, plus in-flight,
// duration, handled and failed counters.
func WithQueryTelemetry[T query.Query, R cqrs.ReadModel](next cqrs.GenericQueryHandler[T, R]) cqrs.GenericQueryHandler[T, R] {
	var zero T
	queryType := fmt.Sprintf("%T", zero)

	return &telemetryQueryHandler[T, R]{
		next:      next,
		queryType: queryType,
	}
}

type telemetryQueryHandler[T query.Query, R cqrs.ReadModel] struct {
	next      cqrs.GenericQueryHandler[T, R]
	queryType string
}

func (h *telemetryQueryHandler[T, R]) HandleQuery(ctx context.Context, qry T) (R, error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("query.handle %s", h.queryType),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrQueryType.String(h.queryType),
			AttrQueryID.String(string(qry.ID())),
		),
	)
	defer span.End()

	QueriesInFlight.Add(ctx, 1, metric.WithAttributes(AttrQueryType.String(h.queryType)))
	defer QueriesInFlight.Add(ctx, -1, metric.WithAttributes(AttrQueryType.String(h.queryType)))

	startTime := time.Now()
	result, err := h.next.HandleQuery(ctx, qry)

	QueriesDuration.Record(ctx, float64(time.Since(startTime).Milliseconds()),
		metric.WithAttributes(AttrQueryType.String(h.queryType)))

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		QueriesFailed.Add(ctx, 1, metric.WithAttributes(AttrQueryType.String(h.queryType)))
		return result, err
	}

	span.SetStatus(codes.Ok, "")
	QueriesHandled.Add(ctx, 1, metric.WithAttributes(AttrQueryType.String(h.queryType)))

	return result, nil
}
