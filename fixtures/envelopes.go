package fixtures

import (
	"time"

	"github.com/google/uuid"
	cqrs "github.com/terraskye/bankledger"
)

// EnvelopeOption is a functional option for configuring an Envelope.
type EnvelopeOption func(*cqrs.Envelope)

// NewEnvelope creates an Envelope with the given event and options.
func NewEnvelope(event cqrs.Event, opts ...EnvelopeOption) *cqrs.Envelope {
	env := &cqrs.Envelope{
		EventID:    uuid.New(),
		StreamID:   event.AggregateID(),
		Event:      event,
		Version:    1,
		OccurredAt: time.Now(),
		Metadata:   cqrs.NewEventMetadata(),
	}

	for _, opt := range opts {
		opt(env)
	}

	return env
}

// WithEventID sets a specific event ID.
func WithEventID(id uuid.UUID) EnvelopeOption {
	return func(e *cqrs.Envelope) {
		e.EventID = id
	}
}

// WithStreamID overrides the stream ID (defaults to event's AggregateID).
func WithStreamID(id string) EnvelopeOption {
	return func(e *cqrs.Envelope) {
		e.StreamID = id
	}
}

// WithVersion sets the stream version.
func WithVersion(v uint64) EnvelopeOption {
	return func(e *cqrs.Envelope) {
		e.Version = v
	}
}

// WithTimestamp sets the occurred-at timestamp.
func WithTimestamp(t time.Time) EnvelopeOption {
	return func(e *cqrs.Envelope) {
		e.OccurredAt = t
	}
}

// WithMetadata sets the envelope metadata.
func WithMetadata(md cqrs.EventMetadata) EnvelopeOption {
	return func(e *cqrs.Envelope) {
		e.Metadata = md
	}
}

// EnvelopesFromEvents creates envelopes from a slice of events with
// sequential versions, one millisecond apart so point-in-time filtering
// has distinct timestamps to bite on.
func EnvelopesFromEvents(events ...cqrs.Event) []*cqrs.Envelope {
	envelopes := make([]*cqrs.Envelope, len(events))
	baseTime := time.Now()

	for i, event := range events {
		envelopes[i] = &cqrs.Envelope{
			EventID:    uuid.New(),
			StreamID:   event.AggregateID(),
			Event:      event,
			Version:    uint64(i + 1),
			OccurredAt: baseTime.Add(time.Duration(i) * time.Millisecond),
			Metadata:   cqrs.NewEventMetadata(),
		}
	}

	return envelopes
}

// EnvelopeValuesFromEvents creates envelope values from a slice of events.
func EnvelopeValuesFromEvents(events ...cqrs.Event) []cqrs.Envelope {
	ptrs := EnvelopesFromEvents(events...)
	values := make([]cqrs.Envelope, len(ptrs))
	for i, p := range ptrs {
		values[i] = *p
	}
	return values
}

// EnvelopeValuesAt is EnvelopeValuesFromEvents with explicit timestamps and
// a starting version, for building histories around a point in time.
func EnvelopeValuesAt(startVersion uint64, at time.Time, step time.Duration, events ...cqrs.Event) []cqrs.Envelope {
	values := make([]cqrs.Envelope, len(events))
	for i, event := range events {
		values[i] = cqrs.Envelope{
			EventID:    uuid.New(),
			StreamID:   event.AggregateID(),
			Event:      event,
			Version:    startVersion + uint64(i),
			OccurredAt: at.Add(time.Duration(i) * step),
			Metadata:   cqrs.NewEventMetadata(),
		}
	}
	return values
}
