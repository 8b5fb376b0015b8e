package logging

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	cqrs "github.com/terraskye/bankledger"
)

var _ cqrs.SnapshotStore = (*snapshotStoreLogger)(nil)

type snapshotStoreLogger struct {
	logger *logrus.Entry
	next   cqrs.SnapshotStore
}

// WithSnapshotStoreLogging wraps a SnapshotStore with logging. A snapshot
// miss is logged at debug only; reconstruction falls back to the full
// stream and carries on.
func WithSnapshotStoreLogging(logger *logrus.Entry, next cqrs.SnapshotStore) cqrs.SnapshotStore {
	return &snapshotStoreLogger{logger: logger, next: next}
}

func (l *snapshotStoreLogger) Save(ctx context.Context, snapshot cqrs.Snapshot) error {
	entry := l.logger.WithFields(logrus.Fields{
		"aggregateID":  snapshot.AggregateID,
		"snapshotTime": snapshot.SnapshotTime,
	})

	if err := l.next.Save(ctx, snapshot); err != nil {
		entry.WithError(err).Error("snapshot save failed")
		return err
	}
	entry.Debug("snapshot saved")
	return nil
}

func (l *snapshotStoreLogger) GetLatest(ctx context.Context, aggregateID string) (cqrs.Snapshot, error) {
	snapshot, err := l.next.GetLatest(ctx, aggregateID)
	if err != nil {
		if errors.Is(err, cqrs.ErrSnapshotNotFound) {
			l.logger.WithField("aggregateID", aggregateID).Debug("snapshot miss")
		} else {
			l.logger.WithField("aggregateID", aggregateID).WithError(err).Error("snapshot load failed")
		}
		return snapshot, err
	}
	return snapshot, nil
}
