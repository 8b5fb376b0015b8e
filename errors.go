package bankledger

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamNotFound is returned when no stream exists for an aggregate id.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrSnapshotNotFound is returned when no snapshot exists for an aggregate id.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidEventBatch is returned when an append mixes streams or
	// contains no usable events.
	ErrInvalidEventBatch = errors.New("invalid event batch")
)

// ConcurrencyError is returned when an append lost an optimistic race: the
// stream moved past the version the caller loaded. Recoverable by reloading
// the aggregate and retrying the command; the store never retries itself.
type ConcurrencyError struct {
	Stream          string
	ExpectedVersion uint64
	ActualVersion   uint64
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("stream %q revision conflict: expected version %d, actual %d",
		e.Stream, e.ExpectedVersion, e.ActualVersion)
}

// InvalidStateError signals an event that violates the aggregate lifecycle,
// such as opening an account twice or mutating an unopened account. Fatal to
// the operation, never retried.
type InvalidStateError struct {
	AggregateID string
	Reason      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("aggregate %q: invalid state: %s", e.AggregateID, e.Reason)
}

// OverdraftError is a business-rule rejection: the requested debit would
// push the balance below the overdraft limit. No event is produced.
type OverdraftError struct {
	AccountID      string
	Balance        int64
	OverdraftLimit int64
	Requested      int64
}

func (e *OverdraftError) Error() string {
	return fmt.Sprintf("account %q: overdraft exceeded: balance %d, limit %d, requested %d",
		e.AccountID, e.Balance, e.OverdraftLimit, e.Requested)
}

// SerializationError signals malformed wire data or an unknown event type
// tag. Fatal and surfaced; never silently dropped or coerced.
type SerializationError struct {
	EventType string
	Err       error
}

func (e *SerializationError) Error() string {
	if e.EventType != "" {
		return fmt.Sprintf("serialization error for event type %q: %v", e.EventType, e.Err)
	}
	return fmt.Sprintf("serialization error: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// EventStoreError wraps a store-specific persistence failure.
type EventStoreError struct {
	Err error
}

func (e *EventStoreError) Error() string {
	return fmt.Sprintf("eventstore error: %v", e.Err)
}

func (e *EventStoreError) Unwrap() error {
	return e.Err
}

// IsConcurrencyError reports whether err is (or wraps) a ConcurrencyError.
func IsConcurrencyError(err error) bool {
	var conflict *ConcurrencyError
	return errors.As(err, &conflict)
}

// IsBusinessRuleViolation reports whether err is a business-rule rejection
// rather than an infrastructure failure. Such errors are final for the
// command; retrying cannot make them succeed.
func IsBusinessRuleViolation(err error) bool {
	var invalid *InvalidStateError
	var overdraft *OverdraftError
	return errors.As(err, &invalid) || errors.As(err, &overdraft)
}

// WrapEventStoreError wraps err in an EventStoreError, passing nil through.
func WrapEventStoreError(err error) error {
	if err == nil {
		return nil
	}
	return &EventStoreError{Err: err}
}
