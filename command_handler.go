package bankledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
)

// CommandHandler handles commands of a specific type, returning the append
// outcome. Handlers implement the business logic for one command: load
// state, decide events, persist them.
type CommandHandler[C Command] func(ctx context.Context, command C) (AppendResult, error)

// Evolver folds a historical envelope into the current state, producing the
// next state. It must be a pure function so replay is deterministic.
type Evolver[T any] func(currentState T, envelope *Envelope) T

// Decider produces the events that should occur given the current state and
// a command. Returning an empty slice means the command had no effect;
// returning an error rejects the command without producing events.
type Decider[T any, C Command] func(state T, cmd C) ([]Event, error)

// CommandHandlerOption customizes a handler built by NewCommandHandler.
type CommandHandlerOption func(*handlerOptions)

type handlerOptions struct {
	// RetryStrategy controls the optimistic retry loop on concurrency
	// conflicts. Default is no retries: the conflict is surfaced to the
	// caller.
	RetryStrategy func() backoff.BackOff

	// MetadataFunc builds the creation-time metadata for each decided
	// event. Default derives correlation/causation from the context.
	MetadataFunc func(ctx context.Context) EventMetadata
}

// WithRetryStrategy sets the backoff strategy used to retry the
// load-decide-append cycle after a *ConcurrencyError. Each retry reloads
// the stream and re-decides against fresh state; no lock is held across
// the reload.
func WithRetryStrategy(strategy func() backoff.BackOff) CommandHandlerOption {
	return func(cfg *handlerOptions) { cfg.RetryStrategy = strategy }
}

// WithMetadataFunc overrides how event metadata is derived from the
// context.
func WithMetadataFunc(fn func(ctx context.Context) EventMetadata) CommandHandlerOption {
	return func(cfg *handlerOptions) { cfg.MetadataFunc = fn }
}

// NewCommandHandler returns a generic command handler for any aggregate
// state type.
//
// Handling a command performs the optimistic cycle:
//  1. Load the full event history for the command's aggregate.
//  2. Evolve the state from the history.
//  3. Decide which new events should occur.
//  4. Wrap them in envelopes with sequential versions and metadata.
//  5. Append under the loaded version as the expected version.
//
// A *ConcurrencyError from the append restarts the cycle against fresh
// state, governed by the configured retry strategy. Business-rule
// rejections from the decider are permanent and surfaced immediately.
func NewCommandHandler[T any, C Command](
	store EventStore,
	initialState func() T,
	evolve Evolver[T],
	decide Decider[T, C],
	opts ...CommandHandlerOption,
) CommandHandler[C] {
	cfg := &handlerOptions{
		RetryStrategy: func() backoff.BackOff { return &backoff.StopBackOff{} },
		MetadataFunc:  MetadataForContext,
	}
	for _, o := range opts {
		o(cfg)
	}

	return func(ctx context.Context, command C) (AppendResult, error) {
		stream := command.AggregateID()

		attempt := func() (AppendResult, error) {
			state := initialState()
			var loadedVersion uint64

			iter, err := store.LoadStream(ctx, stream)
			if err != nil && !errors.Is(err, ErrStreamNotFound) {
				return AppendResult{Successful: false},
					backoff.Permanent(fmt.Errorf("handle command %T for stream %q: load failed: %w", command, stream, err))
			}

			if iter != nil {
				for iter.Next(ctx) {
					envelope := iter.Value()
					loadedVersion = envelope.Version
					state = evolve(state, envelope)
				}
				if err := iter.Err(); err != nil {
					return AppendResult{Successful: false},
						backoff.Permanent(fmt.Errorf("handle command %T for stream %q: iteration failed: %w", command, stream, err))
				}
			}

			events, err := decide(state, command)
			if err != nil {
				return AppendResult{Successful: false},
					backoff.Permanent(fmt.Errorf("handle command %T for stream %q: %w", command, stream, err))
			}

			if len(events) == 0 {
				return AppendResult{Successful: true, StreamID: stream, NextExpectedVersion: loadedVersion}, nil
			}

			metadata := cfg.MetadataFunc(ctx)
			envelopes := make([]Envelope, len(events))
			version := loadedVersion
			for i, event := range events {
				version++
				envelopes[i] = NewEnvelope(event, version, WithMetadata(metadata))
			}

			result, err := store.Append(ctx, stream, envelopes, loadedVersion)
			if err != nil {
				var conflict *ConcurrencyError
				if errors.As(err, &conflict) {
					// Retryable: reload and re-decide against fresh state.
					return AppendResult{Successful: false, StreamID: stream}, err
				}
				return result, backoff.Permanent(fmt.Errorf("handle command %T for stream %q: append failed: %w", command, stream, err))
			}
			return result, nil
		}

		return backoff.RetryWithData(attempt, backoff.WithContext(cfg.RetryStrategy(), ctx))
	}
}
