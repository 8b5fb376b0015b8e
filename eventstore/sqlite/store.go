package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	cqrs "github.com/terraskye/bankledger"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	_ cqrs.EventStore    = (*Store)(nil)
	_ cqrs.SnapshotStore = (*Store)(nil)
)

// Store persists event streams and snapshots in a SQLite database. One
// append is one transaction: the version check and the inserts commit
// together or not at all, and the unique (aggregate_id, sequence) index
// backstops any race the count check could miss.
//
// Timestamps are stored as Unix nanoseconds, so no resolution is lost
// between the envelope and the row.
type Store struct {
	db         *sql.DB
	serializer *cqrs.Serializer
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	aggregate_id TEXT    NOT NULL,
	sequence     INTEGER NOT NULL,
	event_id     TEXT    NOT NULL,
	event_type   TEXT    NOT NULL,
	payload      BLOB    NOT NULL,
	metadata     BLOB    NOT NULL,
	timestamp    INTEGER NOT NULL,
	PRIMARY KEY (aggregate_id, sequence)
);

CREATE TABLE IF NOT EXISTS snapshots (
	aggregate_id    TEXT    NOT NULL PRIMARY KEY,
	account_holder  TEXT    NOT NULL,
	balance         INTEGER NOT NULL,
	overdraft_limit INTEGER NOT NULL,
	snapshot_time   INTEGER NOT NULL
);
`

// Open opens (or creates) the store at the configured path and applies the
// schema.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:         db,
		serializer: cqrs.NewSerializer(),
	}, nil
}

// Append implements cqrs.EventStore.
func (s *Store) Append(ctx context.Context, streamID string, events []cqrs.Envelope, expectedVersion uint64) (result cqrs.AppendResult, err error) {
	if err := ctx.Err(); err != nil {
		return cqrs.AppendResult{}, err
	}

	for i, env := range events {
		if env.StreamID != streamID {
			return cqrs.AppendResult{}, fmt.Errorf(
				"append to stream %q: %w: event %d has stream ID %q",
				streamID, cqrs.ErrInvalidEventBatch, i, env.StreamID,
			)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cqrs.AppendResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var currentVersion uint64
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE aggregate_id = ?`, streamID,
	).Scan(&currentVersion); err != nil {
		return cqrs.AppendResult{}, fmt.Errorf("count stream %q: %w", streamID, err)
	}

	if currentVersion != expectedVersion {
		err = &cqrs.ConcurrencyError{
			Stream:          streamID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   currentVersion,
		}
		return cqrs.AppendResult{}, err
	}

	version := currentVersion
	for i := range events {
		env := &events[i]
		version++

		var payload, metadata []byte
		payload, err = s.serializer.SerializePayload(env.Event)
		if err != nil {
			return cqrs.AppendResult{}, err
		}
		metadata, err = s.serializer.SerializeMetadata(env.Metadata)
		if err != nil {
			return cqrs.AppendResult{}, err
		}

		if _, err = tx.ExecContext(ctx,
			`INSERT INTO events (aggregate_id, sequence, event_id, event_type, payload, metadata, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			streamID, version, env.EventID.String(), env.Event.EventType(),
			payload, metadata, env.OccurredAt.UnixNano(),
		); err != nil {
			if isConstraintError(err) {
				err = &cqrs.ConcurrencyError{
					Stream:          streamID,
					ExpectedVersion: expectedVersion,
					ActualVersion:   version,
				}
				return cqrs.AppendResult{}, err
			}
			return cqrs.AppendResult{}, fmt.Errorf("insert event %d for stream %q: %w", version, streamID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return cqrs.AppendResult{}, fmt.Errorf("commit append to stream %q: %w", streamID, err)
	}

	return cqrs.AppendResult{
		Successful:          true,
		StreamID:            streamID,
		NextExpectedVersion: version,
	}, nil
}

// LoadStream implements cqrs.EventStore. The full stream is materialized
// inside one query, so the returned iterator never yields a torn list.
func (s *Store) LoadStream(ctx context.Context, streamID string) (*cqrs.Iterator[*cqrs.Envelope], error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sequence, event_id, event_type, payload, metadata, timestamp
		 FROM events WHERE aggregate_id = ? ORDER BY sequence ASC`, streamID)
	if err != nil {
		return nil, fmt.Errorf("query stream %q: %w", streamID, err)
	}
	defer rows.Close()

	var envelopes []*cqrs.Envelope
	for rows.Next() {
		var (
			sequence  uint64
			eventID   string
			eventType string
			payload   []byte
			metadata  []byte
			nanos     int64
		)
		if err := rows.Scan(&sequence, &eventID, &eventType, &payload, &metadata, &nanos); err != nil {
			return nil, fmt.Errorf("scan stream %q: %w", streamID, err)
		}

		event, err := s.serializer.DeserializePayload(eventType, payload)
		if err != nil {
			return nil, err
		}
		md, err := s.serializer.DeserializeMetadata(metadata)
		if err != nil {
			return nil, err
		}
		id, err := uuid.Parse(eventID)
		if err != nil {
			return nil, fmt.Errorf("parse event id %q: %w", eventID, err)
		}

		envelopes = append(envelopes, &cqrs.Envelope{
			EventID:    id,
			StreamID:   streamID,
			Metadata:   md,
			Event:      event,
			Version:    sequence,
			OccurredAt: time.Unix(0, nanos),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stream %q: %w", streamID, err)
	}

	if len(envelopes) == 0 {
		return nil, fmt.Errorf("load stream %q: %w", streamID, cqrs.ErrStreamNotFound)
	}

	return cqrs.NewSliceIterator(envelopes), nil
}

// Exists implements cqrs.EventStore.
func (s *Store) Exists(ctx context.Context, streamID string) (bool, error) {
	count, err := s.Count(ctx, streamID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count implements cqrs.EventStore.
func (s *Store) Count(ctx context.Context, streamID string) (uint64, error) {
	var count uint64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE aggregate_id = ?`, streamID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count stream %q: %w", streamID, err)
	}
	return count, nil
}

// Delete implements cqrs.EventStore. Administrative only.
func (s *Store) Delete(ctx context.Context, streamID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE aggregate_id = ?`, streamID); err != nil {
		return fmt.Errorf("delete stream %q: %w", streamID, err)
	}
	return nil
}

// Save implements cqrs.SnapshotStore. Only the latest row per aggregate is
// kept; reconstruction never reads anything else.
func (s *Store) Save(ctx context.Context, snapshot cqrs.Snapshot) error {
	if snapshot.AggregateID == "" {
		return fmt.Errorf("save snapshot: aggregate id is required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (aggregate_id, account_holder, balance, overdraft_limit, snapshot_time)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (aggregate_id) DO UPDATE SET
			account_holder = excluded.account_holder,
			balance = excluded.balance,
			overdraft_limit = excluded.overdraft_limit,
			snapshot_time = excluded.snapshot_time
		 WHERE excluded.snapshot_time >= snapshots.snapshot_time`,
		snapshot.AggregateID, snapshot.AccountHolder, snapshot.Balance,
		snapshot.OverdraftLimit, snapshot.SnapshotTime.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot for %q: %w", snapshot.AggregateID, err)
	}
	return nil
}

// GetLatest implements cqrs.SnapshotStore.
func (s *Store) GetLatest(ctx context.Context, aggregateID string) (cqrs.Snapshot, error) {
	var (
		snapshot cqrs.Snapshot
		nanos    int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT aggregate_id, account_holder, balance, overdraft_limit, snapshot_time
		 FROM snapshots WHERE aggregate_id = ?`, aggregateID,
	).Scan(&snapshot.AggregateID, &snapshot.AccountHolder, &snapshot.Balance,
		&snapshot.OverdraftLimit, &nanos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cqrs.Snapshot{}, fmt.Errorf("snapshot for %q: %w", aggregateID, cqrs.ErrSnapshotNotFound)
		}
		return cqrs.Snapshot{}, fmt.Errorf("get snapshot for %q: %w", aggregateID, err)
	}

	snapshot.SnapshotTime = time.Unix(0, nanos)
	return snapshot, nil
}

// Close implements cqrs.EventStore. Nil-safe so callers can defer it in
// all startup paths.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT ||
		code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
