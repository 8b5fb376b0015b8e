package otel

import (
	"context"
	"io"
	"time"

	cqrs "github.com/terraskye/bankledger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var _ cqrs.EventStore = (*TelemetryStore)(nil)

// TelemetryStore decorates an EventStore with OpenTelemetry tracing and
// metrics. Appends also get the active trace context injected into each
// envelope's metadata, so downstream consumers of the stream can continue
// the trace.
type TelemetryStore struct {
	next cqrs.EventStore
	cfg  *config
}

// WithEventStoreTelemetry wraps the store.
func WithEventStoreTelemetry(next cqrs.EventStore, options ...Option) cqrs.EventStore {
	return &TelemetryStore{next: next, cfg: newConfig(options...)}
}

// Append with metrics + span.
func (t *TelemetryStore) Append(ctx context.Context, streamID string, events []cqrs.Envelope, expectedVersion uint64) (cqrs.AppendResult, error) {
	ctx, span := tracer.Start(ctx, "EventStore.Append",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(t.cfg.spanAttributes(ctx),
			AttrOperation.String("append"),
			AttrStreamID.String(streamID),
			AttrStreamVersion.Int64(int64(expectedVersion)),
			AttrEventCount.Int64(int64(len(events))),
		)...),
	)
	defer span.End()

	{
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		for i := range events {
			if events[i].Metadata.CorrelationID == "" && span.SpanContext().HasTraceID() {
				events[i].Metadata = events[i].Metadata.WithCorrelation(span.SpanContext().TraceID().String())
			}
			for key, value := range carrier {
				events[i].Metadata = events[i].Metadata.WithExtra(key, value)
			}
		}
	}

	start := time.Now()
	result, err := t.next.Append(ctx, streamID, events, expectedVersion)
	duration := time.Since(start)

	EventStoreDuration.Record(ctx, float64(duration.Milliseconds()),
		metric.WithAttributes(AttrOperation.String("append")),
	)
	EventStoreAppends.Add(ctx, 1)

	if err != nil {
		if cqrs.IsConcurrencyError(err) {
			ConcurrencyConflicts.Add(ctx, 1, metric.WithAttributes(AttrStreamID.String(streamID)))
			span.AddEvent("concurrency_conflict", trace.WithAttributes(
				AttrStreamID.String(streamID),
			))
		} else {
			EventStoreErrors.Add(ctx, 1)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	EventsAppended.Add(ctx, int64(len(events)))
	StreamVersionGauge.Record(ctx, int64(result.NextExpectedVersion),
		metric.WithAttributes(AttrStreamID.String(streamID)),
	)
	span.SetStatus(codes.Ok, "")

	return result, nil
}

// LoadStream with inline tracing middleware. The span opens lazily on the
// first Next call and closes when the iterator drains or fails.
func (t *TelemetryStore) LoadStream(ctx context.Context, streamID string) (*cqrs.Iterator[*cqrs.Envelope], error) {
	iter, err := t.next.LoadStream(ctx, streamID)
	if err != nil {
		EventStoreErrors.Add(ctx, 1)
		return iter, err
	}

	EventStoreLoads.Add(ctx, 1)

	started := false
	var startedAt time.Time
	var loadSpan trace.Span
	var eventCount int64

	return cqrs.NewIteratorFunc(func(ctx context.Context) (*cqrs.Envelope, error) {
		if !started {
			started = true
			startedAt = time.Now()
			ctx, loadSpan = tracer.Start(ctx, "EventStore.LoadStream",
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(AttrStreamID.String(streamID)),
			)
		}

		if !iter.Next(ctx) {
			loadSpan.SetAttributes(AttrEventCount.Int64(eventCount))

			err := iter.Err()
			if err == nil || err == io.EOF {
				EventStoreDuration.Record(ctx, float64(time.Since(startedAt).Milliseconds()),
					metric.WithAttributes(AttrOperation.String("load")),
				)
				loadSpan.End()
				return nil, io.EOF
			}

			EventStoreErrors.Add(ctx, 1)
			loadSpan.RecordError(err)
			loadSpan.SetStatus(codes.Error, err.Error())
			loadSpan.End()
			return nil, err
		}

		eventCount++
		EventsLoaded.Add(ctx, 1)

		return iter.Value(), nil
	}), nil
}

// Exists just forwards; existence checks are too cheap to trace.
func (t *TelemetryStore) Exists(ctx context.Context, streamID string) (bool, error) {
	return t.next.Exists(ctx, streamID)
}

// Count just forwards.
func (t *TelemetryStore) Count(ctx context.Context, streamID string) (uint64, error) {
	return t.next.Count(ctx, streamID)
}

// Delete with a span; destructive operations should be visible in traces.
func (t *TelemetryStore) Delete(ctx context.Context, streamID string) error {
	ctx, span := tracer.Start(ctx, "EventStore.Delete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			AttrOperation.String("delete"),
			AttrStreamID.String(streamID),
		),
	)
	defer span.End()

	err := t.next.Delete(ctx, streamID)
	if err != nil {
		EventStoreErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Close just forwards.
func (t *TelemetryStore) Close() error {
	return t.next.Close()
}
