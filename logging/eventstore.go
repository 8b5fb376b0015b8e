package logging

import (
	"context"

	"github.com/sirupsen/logrus"
	cqrs "github.com/terraskye/bankledger"
)

var _ cqrs.EventStore = (*eventStoreLogger)(nil)

type eventStoreLogger struct {
	logger *logrus.Entry
	next   cqrs.EventStore
}

// WithEventStoreLogging wraps an EventStore so every append and load is
// logged with its stream id. Failed appends log at error level; a lost
// optimistic race logs at warn, since the caller is expected to retry.
func WithEventStoreLogging(logger *logrus.Entry, next cqrs.EventStore) cqrs.EventStore {
	return &eventStoreLogger{logger: logger, next: next}
}

func (l *eventStoreLogger) Append(ctx context.Context, streamID string, events []cqrs.Envelope, expectedVersion uint64) (cqrs.AppendResult, error) {
	entry := l.logger.WithFields(logrus.Fields{
		"stream":          streamID,
		"events":          len(events),
		"expectedVersion": expectedVersion,
	})
	entry.Debug("appending events")

	result, err := l.next.Append(ctx, streamID, events, expectedVersion)
	if err != nil {
		if cqrs.IsConcurrencyError(err) {
			entry.WithError(err).Warn("append lost optimistic race")
		} else {
			entry.WithError(err).Error("append failed")
		}
		return result, err
	}

	entry.WithField("nextExpectedVersion", result.NextExpectedVersion).Debug("events appended")
	return result, nil
}

func (l *eventStoreLogger) LoadStream(ctx context.Context, streamID string) (*cqrs.Iterator[*cqrs.Envelope], error) {
	iter, err := l.next.LoadStream(ctx, streamID)
	if err != nil {
		l.logger.WithField("stream", streamID).WithError(err).Debug("load stream failed")
		return iter, err
	}
	return iter, nil
}

func (l *eventStoreLogger) Exists(ctx context.Context, streamID string) (bool, error) {
	return l.next.Exists(ctx, streamID)
}

func (l *eventStoreLogger) Count(ctx context.Context, streamID string) (uint64, error) {
	return l.next.Count(ctx, streamID)
}

func (l *eventStoreLogger) Delete(ctx context.Context, streamID string) error {
	err := l.next.Delete(ctx, streamID)
	if err != nil {
		l.logger.WithField("stream", streamID).WithError(err).Error("delete stream failed")
		return err
	}
	l.logger.WithField("stream", streamID).Info("stream deleted")
	return nil
}

func (l *eventStoreLogger) Close() error {
	return l.next.Close()
}
