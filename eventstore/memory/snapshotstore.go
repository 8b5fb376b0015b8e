package memory

import (
	"context"
	"fmt"
	"sync"

	cqrs "github.com/terraskye/bankledger"
)

var _ cqrs.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore keeps the latest snapshot per aggregate in memory.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]cqrs.Snapshot
}

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]cqrs.Snapshot),
	}
}

// Save inserts or overwrites the latest snapshot for its aggregate id.
// SnapshotTime must not move backwards; a stale save is rejected rather
// than silently regressing the replay base.
func (s *SnapshotStore) Save(ctx context.Context, snapshot cqrs.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snapshot.AggregateID == "" {
		return fmt.Errorf("save snapshot: aggregate id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.snapshots[snapshot.AggregateID]; ok {
		if snapshot.SnapshotTime.Before(existing.SnapshotTime) {
			return fmt.Errorf("save snapshot for %q: snapshot time %s is older than stored %s",
				snapshot.AggregateID, snapshot.SnapshotTime, existing.SnapshotTime)
		}
	}

	s.snapshots[snapshot.AggregateID] = snapshot
	return nil
}

// GetLatest returns the most recent snapshot for the aggregate id.
func (s *SnapshotStore) GetLatest(ctx context.Context, aggregateID string) (cqrs.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return cqrs.Snapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[aggregateID]
	if !ok {
		return cqrs.Snapshot{}, fmt.Errorf("snapshot for %q: %w", aggregateID, cqrs.ErrSnapshotNotFound)
	}
	return snapshot, nil
}
