package bankledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Visitor is invoked once per replayed envelope, in stream order.
type Visitor func(ctx context.Context, envelope *Envelope) error

// Predicate selects which envelopes a filtered replay visits.
type Predicate func(envelope *Envelope) bool

// OnEvent adapts a strongly-typed function into a Visitor that only fires
// for envelopes carrying events of type T. Other event types pass through
// silently, so multiple OnEvent visitors can be combined with Visitors.
func OnEvent[T Event](fn func(ctx context.Context, event T, envelope *Envelope) error) Visitor {
	return func(ctx context.Context, envelope *Envelope) error {
		event, ok := envelope.Event.(T)
		if !ok {
			return nil
		}
		return fn(ctx, event, envelope)
	}
}

// Visitors combines several visitors into one, invoked in order.
func Visitors(visitors ...Visitor) Visitor {
	return func(ctx context.Context, envelope *Envelope) error {
		for _, visitor := range visitors {
			if err := visitor(ctx, envelope); err != nil {
				return err
			}
		}
		return nil
	}
}

// ReplayService reads event history out of an EventStore and feeds it to
// visitors or folds it into fresh aggregates. All operations are read-only
// against the store.
type ReplayService struct {
	store EventStore
}

// NewReplayService creates a ReplayService on top of the given store.
func NewReplayService(store EventStore) *ReplayService {
	return &ReplayService{store: store}
}

// ReplayAll loads the full stream in order and invokes the visitor once per
// event. An aggregate with no events completes with zero invocations; that
// is not an error.
func (r *ReplayService) ReplayAll(ctx context.Context, aggregateID string, visitor Visitor) error {
	return r.ReplayFiltered(ctx, aggregateID, nil, visitor)
}

// ReplayFiltered is ReplayAll restricted to envelopes satisfying the
// predicate, preserving relative order. A nil predicate matches everything.
func (r *ReplayService) ReplayFiltered(ctx context.Context, aggregateID string, predicate Predicate, visitor Visitor) error {
	envelopes, err := r.loadAll(ctx, aggregateID)
	if err != nil {
		return err
	}

	for _, envelope := range envelopes {
		if predicate != nil && !predicate(envelope) {
			continue
		}
		if err := visitor(ctx, envelope); err != nil {
			return fmt.Errorf("replay stream %q at version %d: %w", aggregateID, envelope.Version, err)
		}
	}
	return nil
}

// ReplayToPointInTime folds all events stamped at or before instant into a
// fresh aggregate, bypassing snapshots entirely. If instant precedes all
// events, the returned aggregate is in its initial empty state. The store
// is never mutated.
func (r *ReplayService) ReplayToPointInTime(ctx context.Context, aggregateID string, instant time.Time) (*BankAccount, error) {
	envelopes, err := r.loadAll(ctx, aggregateID)
	if err != nil {
		return nil, err
	}

	retained := make([]*Envelope, 0, len(envelopes))
	for _, envelope := range envelopes {
		if envelope.OccurredAt.After(instant) {
			continue
		}
		retained = append(retained, envelope)
	}

	account := NewBankAccount(aggregateID)
	if err := account.Reconstruct(retained, nil); err != nil {
		return nil, err
	}
	return account, nil
}

// loadAll drains the stream iterator. A missing stream is treated as an
// empty history.
func (r *ReplayService) loadAll(ctx context.Context, aggregateID string) ([]*Envelope, error) {
	iter, err := r.store.LoadStream(ctx, aggregateID)
	if err != nil {
		if errors.Is(err, ErrStreamNotFound) {
			return nil, nil
		}
		return nil, WrapEventStoreError(err)
	}

	envelopes, err := iter.All(ctx)
	if err != nil {
		return nil, WrapEventStoreError(err)
	}
	return envelopes, nil
}
