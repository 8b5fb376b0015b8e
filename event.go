package bankledger

import (
	"time"

	"github.com/google/uuid"
)

var now = time.Now

// Event is a domain event describing a change that has happened to an account.
type Event interface {
	AggregateID() string
	EventType() string
}

// Envelope carries an Event together with the bookkeeping the store needs:
// identity, stream position and the metadata captured at creation time.
//
// An Envelope is built fully populated and must not be mutated afterwards;
// callers never observe a half-built envelope.
type Envelope struct {
	EventID    uuid.UUID
	StreamID   string
	Metadata   EventMetadata
	Event      Event
	Version    uint64
	OccurredAt time.Time
}

// EnvelopeOption customizes an Envelope at creation time.
type EnvelopeOption func(*Envelope)

// WithMetadata replaces the envelope metadata.
func WithMetadata(md EventMetadata) EnvelopeOption {
	return func(e *Envelope) {
		e.Metadata = md
	}
}

// WithOccurredAt overrides the envelope timestamp. Intended for replay
// tooling and tests; normal command flows use the wall clock.
func WithOccurredAt(t time.Time) EnvelopeOption {
	return func(e *Envelope) {
		e.OccurredAt = t
	}
}

// NewEnvelope wraps an event in a fully populated envelope at the given
// stream position.
func NewEnvelope(event Event, version uint64, options ...EnvelopeOption) Envelope {
	envelope := Envelope{
		EventID:    uuid.New(),
		StreamID:   event.AggregateID(),
		Metadata:   NewEventMetadata(),
		Event:      event,
		Version:    version,
		OccurredAt: now(),
	}

	for _, option := range options {
		option(&envelope)
	}

	return envelope
}
