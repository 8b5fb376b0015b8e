package otel

import (
	"context"
	"errors"

	cqrs "github.com/terraskye/bankledger"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var _ cqrs.SnapshotStore = (*TelemetrySnapshotStore)(nil)

// TelemetrySnapshotStore decorates a SnapshotStore with tracing and
// metrics.
type TelemetrySnapshotStore struct {
	next cqrs.SnapshotStore
}

// WithSnapshotStoreTelemetry wraps the store.
func WithSnapshotStoreTelemetry(next cqrs.SnapshotStore) cqrs.SnapshotStore {
	return &TelemetrySnapshotStore{next: next}
}

// Save implements cqrs.SnapshotStore.
func (t *TelemetrySnapshotStore) Save(ctx context.Context, snapshot cqrs.Snapshot) error {
	ctx, span := tracer.Start(ctx, "SnapshotStore.Save",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			AttrOperation.String("save"),
			AttrAggregateID.String(snapshot.AggregateID),
		),
	)
	defer span.End()

	err := t.next.Save(ctx, snapshot)
	if err != nil {
		SnapshotErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	SnapshotsSaved.Add(ctx, 1, metric.WithAttributes(AttrAggregateID.String(snapshot.AggregateID)))
	return nil
}

// GetLatest implements cqrs.SnapshotStore. A missing snapshot is not an
// error worth a red span; reconstruction falls back to the full stream.
func (t *TelemetrySnapshotStore) GetLatest(ctx context.Context, aggregateID string) (cqrs.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "SnapshotStore.GetLatest",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			AttrOperation.String("get_latest"),
			AttrAggregateID.String(aggregateID),
		),
	)
	defer span.End()

	snapshot, err := t.next.GetLatest(ctx, aggregateID)
	if err != nil {
		if errors.Is(err, cqrs.ErrSnapshotNotFound) {
			span.AddEvent("snapshot_miss")
			return snapshot, err
		}
		SnapshotErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return snapshot, err
	}

	SnapshotsLoaded.Add(ctx, 1, metric.WithAttributes(AttrAggregateID.String(aggregateID)))
	return snapshot, nil
}
