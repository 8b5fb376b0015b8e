package bankledger

import (
	"context"
	"time"
)

// SnapshotThreshold is the number of events applied since the last snapshot
// after which an aggregate flags itself snapshot due.
const SnapshotThreshold = 10

// Snapshot is a cached account state at a point in time, used to shorten
// replay. Snapshots are a performance optimization and never a source of
// truth: a stale or missing snapshot yields slower reconstruction, never
// incorrect state.
type Snapshot struct {
	AggregateID    string
	AccountHolder  string
	Balance        int64
	OverdraftLimit int64
	SnapshotTime   time.Time
}

// SnapshotStore keeps the latest snapshot per aggregate. Implementations
// may retain history for audit, but reconstruction reads only the latest.
// No concurrency control is required here.
type SnapshotStore interface {
	// Save inserts or overwrites the latest snapshot for its aggregate id.
	Save(ctx context.Context, snapshot Snapshot) error

	// GetLatest returns the most recent snapshot for the aggregate id, or
	// ErrSnapshotNotFound if none exists.
	GetLatest(ctx context.Context, aggregateID string) (Snapshot, error)
}
