package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	cqrs "github.com/terraskye/bankledger"
)

var _ cqrs.EventStore = (*MemoryStore)(nil)

// MemoryStore is a mutex-guarded in-memory EventStore. The version check
// and the write happen under one lock, so two concurrent appends against
// the same stream and the same expected version cannot both succeed.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]*cqrs.Envelope
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string][]*cqrs.Envelope),
	}
}

// Append implements cqrs.EventStore. The whole batch is validated and
// written under the lock: all-or-nothing, visible to readers in submission
// order.
func (m *MemoryStore) Append(ctx context.Context, streamID string, events []cqrs.Envelope, expectedVersion uint64) (cqrs.AppendResult, error) {
	if err := ctx.Err(); err != nil {
		return cqrs.AppendResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(events) == 0 {
		return cqrs.AppendResult{
			Successful:          true,
			StreamID:            streamID,
			NextExpectedVersion: uint64(len(m.events[streamID])),
		}, nil
	}

	for i, env := range events {
		if env.StreamID != streamID {
			return cqrs.AppendResult{}, fmt.Errorf(
				"append to stream %q: %w: event %d has stream ID %q",
				streamID, cqrs.ErrInvalidEventBatch, i, env.StreamID,
			)
		}
	}

	currentVersion := uint64(len(m.events[streamID]))
	if currentVersion != expectedVersion {
		return cqrs.AppendResult{}, &cqrs.ConcurrencyError{
			Stream:          streamID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   currentVersion,
		}
	}

	for i := range events {
		m.events[streamID] = append(m.events[streamID], &events[i])
		currentVersion++
	}

	return cqrs.AppendResult{
		Successful:          true,
		StreamID:            streamID,
		NextExpectedVersion: currentVersion,
	}, nil
}

// LoadStream implements cqrs.EventStore. The iterator walks a snapshot of
// the stream taken under the read lock, so a racing append is never
// observed half-applied.
func (m *MemoryStore) LoadStream(ctx context.Context, streamID string) (*cqrs.Iterator[*cqrs.Envelope], error) {
	m.mu.RLock()
	stored, exists := m.events[streamID]
	events := make([]*cqrs.Envelope, len(stored))
	copy(events, stored)
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("load stream %q: %w", streamID, cqrs.ErrStreamNotFound)
	}

	index := 0
	return cqrs.NewIteratorFunc(func(ctx context.Context) (*cqrs.Envelope, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if index >= len(events) {
			return nil, io.EOF
		}
		ev := events[index]
		index++
		return ev, nil
	}), nil
}

// Exists implements cqrs.EventStore.
func (m *MemoryStore) Exists(ctx context.Context, streamID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events[streamID]) > 0, nil
}

// Count implements cqrs.EventStore. A missing stream counts as zero.
func (m *MemoryStore) Count(ctx context.Context, streamID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.events[streamID])), nil
}

// Delete implements cqrs.EventStore. Administrative only.
func (m *MemoryStore) Delete(ctx context.Context, streamID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, streamID)
	return nil
}

// Close implements cqrs.EventStore. Idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string][]*cqrs.Envelope)
	return nil
}
