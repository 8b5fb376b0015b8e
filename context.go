package bankledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const (
	streamIDKey      ctxKey = "streamID"
	eventIDKey       ctxKey = "eventID"
	versionKey       ctxKey = "version"
	occurredAtKey    ctxKey = "occurredAt"
	metadataKey      ctxKey = "metadata"
	correlationIDKey ctxKey = "correlationID"
	causationIDKey   ctxKey = "causationID"
)

// WithEnvelope adds the context of an Envelope to the context, so handlers
// downstream can attribute their own events to the one that caused them.
func WithEnvelope(ctx context.Context, env *Envelope) context.Context {
	ctx = context.WithValue(ctx, streamIDKey, env.StreamID)
	ctx = context.WithValue(ctx, eventIDKey, env.EventID)
	ctx = context.WithValue(ctx, versionKey, env.Version)
	ctx = context.WithValue(ctx, occurredAtKey, env.OccurredAt)
	ctx = context.WithValue(ctx, metadataKey, env.Metadata)
	ctx = context.WithValue(ctx, correlationIDKey, env.Metadata.CorrelationID)
	ctx = context.WithValue(ctx, causationIDKey, env.EventID.String())
	return ctx
}

// WithCorrelationID pins the correlation id for every event created within
// this context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// WithCausationID pins the causation id for every event created within this
// context.
func WithCausationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, causationIDKey, id)
}

// CorrelationFromContext returns the correlation id or "" if not present.
func CorrelationFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}

// CausationFromContext returns the causation id or "" if not present.
func CausationFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(causationIDKey).(string); ok {
		return v
	}
	return ""
}

// StreamIDFromContext returns the StreamID or "" if not present.
func StreamIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(streamIDKey).(string); ok {
		return v
	}
	return ""
}

// EventIDFromContext returns the EventID or uuid.Nil if not present.
func EventIDFromContext(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(eventIDKey).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// VersionFromContext returns the Version or 0 if not present.
func VersionFromContext(ctx context.Context) uint64 {
	if v, ok := ctx.Value(versionKey).(uint64); ok {
		return v
	}
	return 0
}

// OccurredAtFromContext returns OccurredAt or zero time if not present.
func OccurredAtFromContext(ctx context.Context) time.Time {
	if v, ok := ctx.Value(occurredAtKey).(time.Time); ok {
		return v
	}
	return time.Time{}
}

// MetadataFromContext returns the envelope metadata or the zero value if
// not present.
func MetadataFromContext(ctx context.Context) EventMetadata {
	if v, ok := ctx.Value(metadataKey).(EventMetadata); ok {
		return v
	}
	return EventMetadata{}
}

// MetadataForContext builds creation-time metadata from whatever
// correlation and causation the context carries. A missing correlation id
// is replaced with a fresh one.
func MetadataForContext(ctx context.Context) EventMetadata {
	md := NewEventMetadata()
	md = md.WithCorrelation(CorrelationFromContext(ctx))
	md = md.WithCausation(CausationFromContext(ctx))
	return md
}
