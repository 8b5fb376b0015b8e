package bankledger

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Serializer converts envelopes to and from a self-describing JSON wire
// form. The encoding carries an explicit event-type discriminator: the
// store is polymorphic over a closed set of event variants and an unknown
// tag must fail hard rather than be misread from structural shape.
//
// Round-trip identity holds: Deserialize(Serialize(e)) is field-for-field
// equal to e, with timestamps encoded at nanosecond resolution.
type Serializer struct{}

// NewSerializer returns a Serializer backed by the package event registry.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// wireEnvelope is the serialized layout. Payload holds the variant-specific
// fields; EventType identifies which registered variant decodes it.
type wireEnvelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	StreamID   string          `json:"stream_id"`
	EventType  string          `json:"event_type"`
	Version    uint64          `json:"version"`
	OccurredAt time.Time       `json:"occurred_at"`
	Metadata   wireMetadata    `json:"metadata"`
	Payload    json.RawMessage `json:"payload"`
}

type wireMetadata struct {
	CorrelationID string            `json:"correlation_id"`
	CausationID   string            `json:"causation_id,omitempty"`
	UserID        string            `json:"user_id,omitempty"`
	UserAgent     string            `json:"user_agent,omitempty"`
	IPAddress     string            `json:"ip_address,omitempty"`
	SchemaVersion int               `json:"schema_version"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// Serialize encodes an envelope to wire bytes.
func (s *Serializer) Serialize(envelope Envelope) ([]byte, error) {
	if envelope.Event == nil {
		return nil, &SerializationError{Err: fmt.Errorf("envelope has no event")}
	}

	payload, err := json.Marshal(envelope.Event)
	if err != nil {
		return nil, &SerializationError{EventType: envelope.Event.EventType(), Err: err}
	}

	wire := wireEnvelope{
		EventID:    envelope.EventID,
		StreamID:   envelope.StreamID,
		EventType:  envelope.Event.EventType(),
		Version:    envelope.Version,
		OccurredAt: envelope.OccurredAt,
		Metadata: wireMetadata{
			CorrelationID: envelope.Metadata.CorrelationID,
			CausationID:   envelope.Metadata.CausationID,
			UserID:        envelope.Metadata.UserID,
			UserAgent:     envelope.Metadata.UserAgent,
			IPAddress:     envelope.Metadata.IPAddress,
			SchemaVersion: envelope.Metadata.SchemaVersion,
			Extra:         envelope.Metadata.Extra,
		},
		Payload: payload,
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, &SerializationError{EventType: envelope.Event.EventType(), Err: err}
	}
	return data, nil
}

// Deserialize decodes wire bytes back into an envelope. Malformed input or
// an unregistered event-type tag fails with *SerializationError.
func (s *Serializer) Deserialize(data []byte) (Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return Envelope{}, &SerializationError{Err: fmt.Errorf("malformed wire envelope: %w", err)}
	}

	if wire.EventType == "" {
		return Envelope{}, &SerializationError{Err: fmt.Errorf("wire envelope missing event type discriminator")}
	}

	event, err := s.decodePayload(wire.EventType, wire.Payload)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		EventID:  wire.EventID,
		StreamID: wire.StreamID,
		Metadata: EventMetadata{
			CorrelationID: wire.Metadata.CorrelationID,
			CausationID:   wire.Metadata.CausationID,
			UserID:        wire.Metadata.UserID,
			UserAgent:     wire.Metadata.UserAgent,
			IPAddress:     wire.Metadata.IPAddress,
			SchemaVersion: wire.Metadata.SchemaVersion,
			Extra:         wire.Metadata.Extra,
		},
		Event:      event,
		Version:    wire.Version,
		OccurredAt: wire.OccurredAt,
	}, nil
}

// SerializePayload encodes just the variant-specific fields of an event.
// Stores that keep the discriminator and metadata in their own columns use
// this for the payload column.
func (s *Serializer) SerializePayload(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, &SerializationError{EventType: event.EventType(), Err: err}
	}
	return data, nil
}

// DeserializePayload decodes payload bytes into the registered variant for
// the tag.
func (s *Serializer) DeserializePayload(eventType string, payload []byte) (Event, error) {
	return s.decodePayload(eventType, payload)
}

// SerializeMetadata encodes an event metadata block. Map keys are emitted
// in sorted order, so the wire form is deterministic.
func (s *Serializer) SerializeMetadata(md EventMetadata) ([]byte, error) {
	data, err := json.Marshal(wireMetadata{
		CorrelationID: md.CorrelationID,
		CausationID:   md.CausationID,
		UserID:        md.UserID,
		UserAgent:     md.UserAgent,
		IPAddress:     md.IPAddress,
		SchemaVersion: md.SchemaVersion,
		Extra:         md.Extra,
	})
	if err != nil {
		return nil, &SerializationError{Err: err}
	}
	return data, nil
}

// DeserializeMetadata decodes a metadata block.
func (s *Serializer) DeserializeMetadata(data []byte) (EventMetadata, error) {
	var wire wireMetadata
	if err := json.Unmarshal(data, &wire); err != nil {
		return EventMetadata{}, &SerializationError{Err: fmt.Errorf("malformed metadata: %w", err)}
	}
	return EventMetadata{
		CorrelationID: wire.CorrelationID,
		CausationID:   wire.CausationID,
		UserID:        wire.UserID,
		UserAgent:     wire.UserAgent,
		IPAddress:     wire.IPAddress,
		SchemaVersion: wire.SchemaVersion,
		Extra:         wire.Extra,
	}, nil
}

// decodePayload instantiates the registered variant for the tag and
// unmarshals the payload into it.
func (s *Serializer) decodePayload(eventType string, payload json.RawMessage) (Event, error) {
	prototype, err := NewEventByName(eventType)
	if err != nil {
		return nil, &SerializationError{EventType: eventType, Err: err}
	}

	value := reflect.New(reflect.TypeOf(prototype))
	if err := json.Unmarshal(payload, value.Interface()); err != nil {
		return nil, &SerializationError{EventType: eventType, Err: fmt.Errorf("decode payload: %w", err)}
	}

	event, ok := value.Elem().Interface().(Event)
	if !ok {
		return nil, &SerializationError{EventType: eventType, Err: fmt.Errorf("registered type does not implement Event")}
	}
	return event, nil
}
