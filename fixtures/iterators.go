package fixtures

import (
	"context"
	"io"

	cqrs "github.com/terraskye/bankledger"
)

// EmptyIterator returns an iterator that yields no items.
func EmptyIterator() *cqrs.Iterator[*cqrs.Envelope] {
	return cqrs.NewIteratorFunc(func(ctx context.Context) (*cqrs.Envelope, error) {
		return nil, io.EOF
	})
}

// FailingIterator returns an iterator that fails with the given error.
func FailingIterator(err error) *cqrs.Iterator[*cqrs.Envelope] {
	return cqrs.NewIteratorFunc(func(ctx context.Context) (*cqrs.Envelope, error) {
		return nil, err
	})
}

// SingleEnvelopeIterator returns an iterator that yields a single envelope.
func SingleEnvelopeIterator(env *cqrs.Envelope) *cqrs.Iterator[*cqrs.Envelope] {
	returned := false
	return cqrs.NewIteratorFunc(func(ctx context.Context) (*cqrs.Envelope, error) {
		if returned {
			return nil, io.EOF
		}
		returned = true
		return env, nil
	})
}

// EnvelopeIteratorFromEvents creates an iterator from events.
func EnvelopeIteratorFromEvents(events ...cqrs.Event) *cqrs.Iterator[*cqrs.Envelope] {
	return cqrs.NewSliceIterator(EnvelopesFromEvents(events...))
}

// FailAfterNIterator returns an iterator that yields n items, then fails.
func FailAfterNIterator(envelopes []*cqrs.Envelope, n int, err error) *cqrs.Iterator[*cqrs.Envelope] {
	idx := 0
	return cqrs.NewIteratorFunc(func(ctx context.Context) (*cqrs.Envelope, error) {
		if idx >= n {
			return nil, err
		}
		if idx >= len(envelopes) {
			return nil, io.EOF
		}
		env := envelopes[idx]
		idx++
		return env, nil
	})
}

// ContextAwareIterator returns an iterator that respects context cancellation.
func ContextAwareIterator(envelopes []*cqrs.Envelope) *cqrs.Iterator[*cqrs.Envelope] {
	idx := 0
	return cqrs.NewIteratorFunc(func(ctx context.Context) (*cqrs.Envelope, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if idx >= len(envelopes) {
			return nil, io.EOF
		}
		env := envelopes[idx]
		idx++
		return env, nil
	})
}
