package bankledger

import (
	"maps"

	"github.com/google/uuid"
)

// CurrentSchemaVersion is the metadata schema version stamped on newly
// created events.
const CurrentSchemaVersion = 1

// EventMetadata is the contextual information attached to an event at
// creation time. It is immutable once the event is appended; the With*
// helpers return copies.
type EventMetadata struct {
	// CorrelationID groups all events belonging to one logical operation.
	// It is never empty: a fresh id is assigned when none is supplied.
	CorrelationID string
	// CausationID links to the event or command that triggered this event.
	// Empty for events at the root of a causal chain.
	CausationID string
	// UserID identifies the principal that issued the triggering command.
	UserID string
	// UserAgent is the client signature of the triggering request.
	UserAgent string
	// IPAddress is the remote address of the triggering request.
	IPAddress string
	// SchemaVersion versions the event payload layout.
	SchemaVersion int
	// Extra holds additional free-form attributes. The serializer encodes
	// keys in sorted order so the wire form is deterministic.
	Extra map[string]string
}

// NewEventMetadata returns metadata with a fresh correlation id and the
// current schema version.
func NewEventMetadata() EventMetadata {
	return EventMetadata{
		CorrelationID: uuid.NewString(),
		SchemaVersion: CurrentSchemaVersion,
	}
}

// WithCorrelation returns a copy with the correlation id set. An empty id
// keeps the existing one.
func (m EventMetadata) WithCorrelation(id string) EventMetadata {
	if id != "" {
		m.CorrelationID = id
	}
	return m
}

// WithCausation returns a copy with the causation id set.
func (m EventMetadata) WithCausation(id string) EventMetadata {
	m.CausationID = id
	return m
}

// WithActor returns a copy carrying the acting principal.
func (m EventMetadata) WithActor(userID, userAgent, ipAddress string) EventMetadata {
	m.UserID = userID
	m.UserAgent = userAgent
	m.IPAddress = ipAddress
	return m
}

// WithExtra returns a copy with one extra attribute added. The receiver's
// map is not shared with the copy.
func (m EventMetadata) WithExtra(key, value string) EventMetadata {
	extra := make(map[string]string, len(m.Extra)+1)
	maps.Copy(extra, m.Extra)
	extra[key] = value
	m.Extra = extra
	return m
}

// Equal reports whether two metadata values are field-for-field identical.
func (m EventMetadata) Equal(other EventMetadata) bool {
	return m.CorrelationID == other.CorrelationID &&
		m.CausationID == other.CausationID &&
		m.UserID == other.UserID &&
		m.UserAgent == other.UserAgent &&
		m.IPAddress == other.IPAddress &&
		m.SchemaVersion == other.SchemaVersion &&
		maps.Equal(m.Extra, other.Extra)
}
