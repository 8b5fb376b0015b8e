package bankledger

import (
	"context"
)

// EventStore defines the contract for an append-only event store. An
// EventStore persists events for a given aggregate id in sequential order,
// allowing full reconstruction of aggregate state at any point in time.
//
// Implementations must guarantee:
//   - Events for a given aggregate are stored and yielded in append order,
//     which equals chronological order.
//   - Optimistic concurrency: Append performs its version check and write in
//     one indivisible critical section. Two concurrent appends against the
//     same stream with the same expected version cannot both succeed.
//   - Atomicity: all events of one Append call are persisted as a unit, or
//     none are. This holds on timeout as well.
//   - Readers never observe a torn event list. A read racing an append may
//     or may not see the new events.
type EventStore interface {
	// Append appends all events to the stream identified by streamID.
	//
	// expectedVersion is the number of events the caller believes the
	// stream currently holds. If the stored count differs, the append is
	// rejected atomically with *ConcurrencyError and nothing is written.
	Append(ctx context.Context, streamID string, events []Envelope, expectedVersion uint64) (AppendResult, error)

	// LoadStream loads all events for the given aggregate id in ascending
	// version order. Returns ErrStreamNotFound if the stream has never
	// been written to.
	LoadStream(ctx context.Context, streamID string) (*Iterator[*Envelope], error)

	// Exists reports whether a stream with at least one event exists.
	Exists(ctx context.Context, streamID string) (bool, error)

	// Count returns the number of events stored for the stream. A missing
	// stream counts as zero.
	Count(ctx context.Context, streamID string) (uint64, error)

	// Delete removes the stream and all its events. Administrative
	// operation; never used by normal command or replay flows.
	Delete(ctx context.Context, streamID string) error

	// Close releases any resources held by the store. Implementations
	// should make Close idempotent.
	Close() error
}

// AppendResult describes the outcome of an append operation.
type AppendResult struct {
	Successful          bool
	StreamID            string
	NextExpectedVersion uint64
}
