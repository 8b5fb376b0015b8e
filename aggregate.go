package bankledger

// Aggregate is the interface that all event-sourced aggregates implement.
type Aggregate interface {

	// EntityID returns the unique identifier of the aggregate.
	EntityID() string

	// AggregateVersion returns the committed version of the aggregate.
	AggregateVersion() uint64

	// SetAggregateVersion sets the committed version of the aggregate.
	SetAggregateVersion(version uint64)

	// UncommittedEvents returns all the events that are currently uncommitted.
	UncommittedEvents() []Envelope

	// ClearUncommittedEvents clears all uncommitted events from the aggregate.
	ClearUncommittedEvents()

	// AppendEvent appends a new event to the aggregate's uncommitted list.
	AppendEvent(event Event, options ...EnvelopeOption)
}

// AggregateBase provides the event bookkeeping shared by aggregates: the
// committed version and the buffer of uncommitted events. The aggregate
// exclusively owns the buffer until the caller commits it to the EventStore
// and clears it; from then on the events are owned by the store.
type AggregateBase struct {
	id     string
	v      uint64
	events []Envelope
}

// NewAggregateBase creates an aggregate base for the given id.
func NewAggregateBase(id string) *AggregateBase {
	return &AggregateBase{
		id:     id,
		events: make([]Envelope, 0),
	}
}

// EntityID implements the EntityID method of the Aggregate interface.
func (a *AggregateBase) EntityID() string {
	return a.id
}

// AggregateVersion implements the AggregateVersion method of the Aggregate interface.
func (a *AggregateBase) AggregateVersion() uint64 {
	return a.v
}

// SetAggregateVersion implements the SetAggregateVersion method of the Aggregate interface.
func (a *AggregateBase) SetAggregateVersion(v uint64) {
	a.v = v
}

// UncommittedEvents implements the UncommittedEvents method of the Aggregate interface.
func (a *AggregateBase) UncommittedEvents() []Envelope {
	return a.events
}

// ClearUncommittedEvents implements the ClearUncommittedEvents method of the
// Aggregate interface. Called after a successful store append.
func (a *AggregateBase) ClearUncommittedEvents() {
	a.events = nil
}

// AppendEvent appends an event for later retrieval by UncommittedEvents.
func (a *AggregateBase) AppendEvent(event Event, options ...EnvelopeOption) {
	version := a.AggregateVersion() + uint64(len(a.events)) + 1
	a.events = append(a.events, NewEnvelope(event, version, options...))
}
