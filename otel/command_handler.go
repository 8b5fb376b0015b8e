package otel

import (
	"context"
	"fmt"
	"time"

	cqrs "github.com/terraskye/bankledger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// WithCommandTelemetry wraps a CommandHandler with OpenTelemetry tracing
// and metrics.
//
// Each dispatch gets a span named after the command type, carrying the
// aggregate id and, once the handler returns, the stream id and resulting
// stream version. In-flight, duration, handled and failed counters are
// recorded per command type.
//
// Concurrency conflicts and business-rule rejections are distinguished
// from system errors: a conflict bumps the conflict counter and a rule
// rejection keeps the span status Ok, since the operation itself executed
// as designed.
func WithCommandTelemetry[C cqrs.Command](next cqrs.CommandHandler[C]) cqrs.CommandHandler[C] {
	var zero C
	commandType := fmt.Sprintf("%T", zero)

	baseAttributes := []attribute.KeyValue{
		AttrCommandType.String(commandType),
	}

	return func(ctx context.Context, cmd C) (cqrs.AppendResult, error) {
		attr := append(baseAttributes, AttrAggregateID.String(cmd.AggregateID()))

		ctx, span := tracer.Start(ctx, fmt.Sprintf("command.handle %s", commandType),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attr...),
		)
		defer span.End()

		CommandsInFlight.Add(ctx, 1, metric.WithAttributes(AttrCommandType.String(commandType)))
		defer CommandsInFlight.Add(ctx, -1, metric.WithAttributes(AttrCommandType.String(commandType)))

		startTime := time.Now()
		result, err := next(ctx, cmd)

		attr = append(attr,
			AttrStreamID.String(result.StreamID),
			AttrStreamVersion.Int64(int64(result.NextExpectedVersion)),
		)

		CommandsDuration.Record(ctx, float64(time.Since(startTime).Milliseconds()),
			metric.WithAttributes(AttrCommandType.String(commandType)))
		span.SetAttributes(attr...)

		if err != nil {
			if cqrs.IsConcurrencyError(err) {
				ConcurrencyConflicts.Add(ctx, 1, metric.WithAttributes(AttrCommandType.String(commandType)))
				span.AddEvent("concurrency_conflict", trace.WithAttributes(
					AttrStreamID.String(result.StreamID),
				))
			}

			if cqrs.IsBusinessRuleViolation(err) {
				// The operation executed; the domain said no.
				span.SetStatus(codes.Ok, fmt.Sprintf("business rule violation: %v", err))
				span.AddEvent("business_rule_violation", trace.WithAttributes(
					AttrCommandType.String(commandType),
					AttrAggregateID.String(cmd.AggregateID()),
				))
				CommandsFailed.Add(ctx, 1, metric.WithAttributes(AttrCommandType.String(commandType)))
				return result, err
			}

			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
			CommandsFailed.Add(ctx, 1, metric.WithAttributes(AttrCommandType.String(commandType)))
			return result, err
		}

		span.SetStatus(codes.Ok, "")
		CommandsHandled.Add(ctx, 1, metric.WithAttributes(AttrCommandType.String(commandType)))

		return result, nil
	}
}
