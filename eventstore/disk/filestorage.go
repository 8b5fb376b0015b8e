package disk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	cqrs "github.com/terraskye/bankledger"
)

var _ cqrs.EventStore = (*FilesStore)(nil)

// FilesStore is a file-per-event EventStore for tooling and tests: one
// directory per stream, one JSON file per event, named by zero-padded
// sequence so lexical order equals append order. A process-wide mutex
// serializes appends; the version check and the writes happen under it.
type FilesStore struct {
	baseDir    string
	serializer *cqrs.Serializer
	mu         sync.Mutex
}

// NewFileStore creates a FilesStore rooted at dir.
func NewFileStore(dir string) (*FilesStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FilesStore{
		baseDir:    dir,
		serializer: cqrs.NewSerializer(),
	}, nil
}

func (f *FilesStore) streamDir(id string) string {
	return filepath.Join(f.baseDir, id)
}

// Append implements cqrs.EventStore. Events are written to temporary files
// first and renamed into place only after the whole batch serialized, so a
// failed append leaves no partially visible events.
func (f *FilesStore) Append(ctx context.Context, streamID string, events []cqrs.Envelope, expectedVersion uint64) (cqrs.AppendResult, error) {
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

	f.mu.Lock()
	defer f.mu.Unlock()

	sdir := f.streamDir(streamID)
	currentVersion := f.countLocked(streamID)

	if len(events) == 0 {
		return cqrs.AppendResult{Successful: true, StreamID: streamID, NextExpectedVersion: currentVersion}, nil
	}

	if currentVersion != expectedVersion {
		return cqrs.AppendResult{}, &cqrs.ConcurrencyError{
			Stream:          streamID,
			ExpectedVersion: expectedVersion,
			ActualVersion:   currentVersion,
		}
	}

	if err := os.MkdirAll(sdir, 0o755); err != nil {
		return cqrs.AppendResult{}, err
	}

	// Serialize the batch up front; only then move files into place.
	pending := make([]pendingFile, 0, len(events))
	version := currentVersion
	for i := range events {
		version++

		data, err := f.serializer.Serialize(events[i])
		if err != nil {
			removeAll(pending)
			return cqrs.AppendResult{}, err
		}

		fname := fmt.Sprintf("%010d-%s.json", version, events[i].Event.EventType())
		path := filepath.Join(sdir, fname)
		tmp := path + ".tmp"

		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			removeAll(pending)
			return cqrs.AppendResult{}, err
		}
		pending = append(pending, pendingFile{tmp: tmp, path: path})
	}

	for _, p := range pending {
		if err := os.Rename(p.tmp, p.path); err != nil {
			return cqrs.AppendResult{}, err
		}
	}

	return cqrs.AppendResult{
		Successful:          true,
		StreamID:            streamID,
		NextExpectedVersion: version,
	}, nil
}

type pendingFile struct {
	tmp  string
	path string
}

func removeAll(pending []pendingFile) {
	for _, p := range pending {
		_ = os.Remove(p.tmp)
	}
}

// LoadStream implements cqrs.EventStore. The listing and the file reads
// happen under the append mutex, so a concurrent append is observed either
// entirely or not at all.
func (f *FilesStore) LoadStream(ctx context.Context, streamID string) (*cqrs.Iterator[*cqrs.Envelope], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := f.streamDir(streamID)
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load stream %q: %w", streamID, cqrs.ErrStreamNotFound)
		}
		return nil, err
	}

	envelopes := make([]*cqrs.Envelope, 0, len(files))
	for _, fi := range files {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, fi.Name()))
		if err != nil {
			return nil, cqrs.WrapEventStoreError(err)
		}

		envelope, err := f.serializer.Deserialize(data)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, &envelope)
	}

	return cqrs.NewSliceIterator(envelopes), nil
}

// Exists implements cqrs.EventStore.
func (f *FilesStore) Exists(ctx context.Context, streamID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(streamID) > 0, nil
}

// Count implements cqrs.EventStore.
func (f *FilesStore) Count(ctx context.Context, streamID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(streamID), nil
}

// Delete implements cqrs.EventStore. Administrative only.
func (f *FilesStore) Delete(ctx context.Context, streamID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return os.RemoveAll(f.streamDir(streamID))
}

// Close implements cqrs.EventStore. Nothing is held open between calls.
func (f *FilesStore) Close() error {
	return nil
}

// countLocked counts committed event files in the stream directory. The
// caller holds the mutex. Temporary files from an in-flight append do not
// count; their sequence numbers parse but their names end in .tmp.
func (f *FilesStore) countLocked(streamID string) uint64 {
	files, err := os.ReadDir(f.streamDir(streamID))
	if err != nil {
		return 0
	}

	var max uint64
	for _, fi := range files {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), ".json") {
			continue
		}
		parts := strings.SplitN(fi.Name(), "-", 2)
		if len(parts) < 2 {
			continue
		}
		ver, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			continue
		}
		if ver > max {
			max = ver
		}
	}
	return max
}
