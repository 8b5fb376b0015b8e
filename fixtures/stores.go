package fixtures

import (
	"context"
	"sync"

	cqrs "github.com/terraskye/bankledger"
)

// StoreSpy is a configurable mock EventStore for testing.
// It tracks calls and allows injecting custom behavior or failures.
type StoreSpy struct {
	mu sync.Mutex

	// Function overrides for custom behavior
	AppendFn     func(ctx context.Context, streamID string, events []cqrs.Envelope, expectedVersion uint64) (cqrs.AppendResult, error)
	LoadStreamFn func(ctx context.Context, streamID string) (*cqrs.Iterator[*cqrs.Envelope], error)
	CloseFn      func() error

	// Call tracking
	AppendCalls     int
	LoadStreamCalls int
	CloseCalls      int

	// Captured arguments from last call
	LastAppendEvents   []cqrs.Envelope
	LastAppendExpected uint64
	LastLoadStreamID   string

	// Pre-configured data
	events map[string][]*cqrs.Envelope // streamID -> envelopes

	// Error injection
	loadErr   error
	appendErr error
}

// NewStoreSpy creates a new StoreSpy with default behavior.
func NewStoreSpy() *StoreSpy {
	return &StoreSpy{
		events: make(map[string][]*cqrs.Envelope),
	}
}

// WithEvents pre-populates the store with envelopes for a stream.
func (s *StoreSpy) WithEvents(streamID string, events ...*cqrs.Envelope) *StoreSpy {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[streamID] = events
	return s
}

// WithEventsFromSlice pre-populates the store from an Event slice.
func (s *StoreSpy) WithEventsFromSlice(streamID string, events ...cqrs.Event) *StoreSpy {
	envelopes := EnvelopesFromEvents(events...)
	return s.WithEvents(streamID, envelopes...)
}

// FailOnLoad configures the store to return an error on load operations.
func (s *StoreSpy) FailOnLoad(err error) *StoreSpy {
	s.loadErr = err
	return s
}

// FailOnAppend configures the store to return an error on append operations.
func (s *StoreSpy) FailOnAppend(err error) *StoreSpy {
	s.appendErr = err
	return s
}

// Append implements EventStore.Append.
func (s *StoreSpy) Append(ctx context.Context, streamID string, events []cqrs.Envelope, expectedVersion uint64) (cqrs.AppendResult, error) {
	s.mu.Lock()
	s.AppendCalls++
	s.LastAppendEvents = events
	s.LastAppendExpected = expectedVersion
	s.mu.Unlock()

	if s.AppendFn != nil {
		return s.AppendFn(ctx, streamID, events, expectedVersion)
	}

	if s.appendErr != nil {
		return cqrs.AppendResult{Successful: false}, s.appendErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := uint64(len(s.events[streamID]))
	if current != expectedVersion {
		return cqrs.AppendResult{Successful: false}, &cqrs.ConcurrencyError{
			Stream:          streamID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   current,
		}
	}

	for i := range events {
		env := events[i]
		s.events[streamID] = append(s.events[streamID], &env)
	}

	return cqrs.AppendResult{
		Successful:          true,
		StreamID:            streamID,
		NextExpectedVersion: uint64(len(s.events[streamID])),
	}, nil
}

// LoadStream implements EventStore.LoadStream.
func (s *StoreSpy) LoadStream(ctx context.Context, streamID string) (*cqrs.Iterator[*cqrs.Envelope], error) {
	s.mu.Lock()
	s.LoadStreamCalls++
	s.LastLoadStreamID = streamID
	s.mu.Unlock()

	if s.LoadStreamFn != nil {
		return s.LoadStreamFn(ctx, streamID)
	}

	if s.loadErr != nil {
		return nil, s.loadErr
	}

	s.mu.Lock()
	events, ok := s.events[streamID]
	s.mu.Unlock()

	if !ok {
		return nil, cqrs.ErrStreamNotFound
	}

	return cqrs.NewSliceIterator(events), nil
}

// Exists implements EventStore.Exists.
func (s *StoreSpy) Exists(ctx context.Context, streamID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events[streamID]) > 0, nil
}

// Count implements EventStore.Count.
func (s *StoreSpy) Count(ctx context.Context, streamID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.events[streamID])), nil
}

// Delete implements EventStore.Delete.
func (s *StoreSpy) Delete(ctx context.Context, streamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, streamID)
	return nil
}

// Close implements EventStore.Close.
func (s *StoreSpy) Close() error {
	s.mu.Lock()
	s.CloseCalls++
	s.mu.Unlock()

	if s.CloseFn != nil {
		return s.CloseFn()
	}
	return nil
}

// Reset clears all call counts and stored data.
func (s *StoreSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.AppendCalls = 0
	s.LoadStreamCalls = 0
	s.CloseCalls = 0
	s.LastAppendEvents = nil
	s.LastAppendExpected = 0
	s.LastLoadStreamID = ""
	s.events = make(map[string][]*cqrs.Envelope)
	s.loadErr = nil
	s.appendErr = nil
}

// Pre-built store scenarios.

// EmptyStore returns a StoreSpy with no events.
func EmptyStore() *StoreSpy {
	return NewStoreSpy()
}

// FailingStore returns a StoreSpy that fails on all operations.
func FailingStore(err error) *StoreSpy {
	return NewStoreSpy().FailOnLoad(err).FailOnAppend(err)
}

// ConcurrencyConflictStore returns a StoreSpy whose appends always lose the
// optimistic race.
func ConcurrencyConflictStore(streamID string, expected, actual uint64) *StoreSpy {
	store := NewStoreSpy()
	store.AppendFn = func(ctx context.Context, id string, events []cqrs.Envelope, expectedVersion uint64) (cqrs.AppendResult, error) {
		return cqrs.AppendResult{Successful: false}, &cqrs.ConcurrencyError{
			Stream:          streamID,
			ExpectedVersion: expected,
			ActualVersion:   actual,
		}
	}
	return store
}

// StreamNotFoundStore returns a StoreSpy that returns ErrStreamNotFound on load.
func StreamNotFoundStore() *StoreSpy {
	store := NewStoreSpy()
	store.LoadStreamFn = func(ctx context.Context, streamID string) (*cqrs.Iterator[*cqrs.Envelope], error) {
		return nil, cqrs.ErrStreamNotFound
	}
	return store
}

// SnapshotStoreSpy is a configurable mock SnapshotStore for testing.
type SnapshotStoreSpy struct {
	mu sync.Mutex

	// Function overrides
	SaveFn      func(ctx context.Context, snapshot cqrs.Snapshot) error
	GetLatestFn func(ctx context.Context, aggregateID string) (cqrs.Snapshot, error)

	// Call tracking
	SaveCalls      int
	GetLatestCalls int

	// Captured arguments from last call
	LastSaved cqrs.Snapshot

	snapshots map[string]cqrs.Snapshot
	saveErr   error
}

// NewSnapshotStoreSpy creates a new SnapshotStoreSpy.
func NewSnapshotStoreSpy() *SnapshotStoreSpy {
	return &SnapshotStoreSpy{
		snapshots: make(map[string]cqrs.Snapshot),
	}
}

// WithSnapshot pre-populates the spy.
func (s *SnapshotStoreSpy) WithSnapshot(snapshot cqrs.Snapshot) *SnapshotStoreSpy {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.AggregateID] = snapshot
	return s
}

// FailOnSave configures the spy to return an error on Save.
func (s *SnapshotStoreSpy) FailOnSave(err error) *SnapshotStoreSpy {
	s.saveErr = err
	return s
}

// Save implements SnapshotStore.Save.
func (s *SnapshotStoreSpy) Save(ctx context.Context, snapshot cqrs.Snapshot) error {
	s.mu.Lock()
	s.SaveCalls++
	s.LastSaved = snapshot
	s.mu.Unlock()

	if s.SaveFn != nil {
		return s.SaveFn(ctx, snapshot)
	}

	if s.saveErr != nil {
		return s.saveErr
	}

	s.mu.Lock()
	s.snapshots[snapshot.AggregateID] = snapshot
	s.mu.Unlock()
	return nil
}

// GetLatest implements SnapshotStore.GetLatest.
func (s *SnapshotStoreSpy) GetLatest(ctx context.Context, aggregateID string) (cqrs.Snapshot, error) {
	s.mu.Lock()
	s.GetLatestCalls++
	s.mu.Unlock()

	if s.GetLatestFn != nil {
		return s.GetLatestFn(ctx, aggregateID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.snapshots[aggregateID]
	if !ok {
		return cqrs.Snapshot{}, cqrs.ErrSnapshotNotFound
	}
	return snapshot, nil
}
