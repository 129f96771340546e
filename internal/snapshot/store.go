// Package snapshot persists the result of the last bulk scrape.
package snapshot

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"jobmatch/internal/errors"
	"jobmatch/internal/types"

	"github.com/gofrs/flock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const lockRetryInterval = 200 * time.Millisecond

// Store reads and replaces the snapshot
type Store interface {
	Save(ctx context.Context, snap *types.Snapshot) error
	Load(ctx context.Context) (types.Snapshot, error)
	Job(ctx context.Context, id string) (types.JobEntry, error)
}

// Publisher is told about every successful save. Failures are logged only.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, snap types.Snapshot, data []byte) error
}

// MetricsRecorder receives one observation per save
type MetricsRecorder interface {
	TrackSnapshotWrite(ctx context.Context, success bool, jobs int)
}

// FileStore keeps the snapshot in a single JSON file. Writers serialize on
// <path>.lock and replace the file by rename, so readers never see a partial file.
type FileStore struct {
	path        string
	lockTimeout time.Duration
	publishers  []Publisher
	metrics     MetricsRecorder
	logger      *errors.Logger
	now         func() time.Time
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store for path
func NewFileStore(path string, lockTimeout time.Duration, logger *errors.Logger) *FileStore {
	if logger == nil {
		logger = errors.NopLogger()
	}
	return &FileStore{
		path:        path,
		lockTimeout: lockTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// WithPublishers adds post-save publishers and returns the store
func (s *FileStore) WithPublishers(p ...Publisher) *FileStore {
	s.publishers = append(s.publishers, p...)
	return s
}

// WithMetrics attaches a recorder and returns the store
func (s *FileStore) WithMetrics(m MetricsRecorder) *FileStore {
	s.metrics = m
	return s
}

// Path returns the snapshot file location
func (s *FileStore) Path() string { return s.path }

// Save stamps last_updated and total_jobs and atomically replaces the file
func (s *FileStore) Save(ctx context.Context, snap *types.Snapshot) error {
	ctx, span := otel.Tracer("jobmatch.snapshot").Start(ctx, "snapshot.save")
	defer span.End()

	if snap.Jobs == nil {
		snap.Jobs = []types.JobEntry{}
	}
	snap.TotalJobs = len(snap.Jobs)
	snap.LastUpdated = s.now().UTC()
	span.SetAttributes(attribute.Int("snapshot.jobs", snap.TotalJobs))

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		s.track(ctx, false, snap.TotalJobs)
		return errors.NewInternalError(errors.ErrCodeSnapshotWrite, "failed to encode snapshot", err)
	}

	if err := s.writeLocked(ctx, data); err != nil {
		span.RecordError(err)
		s.track(ctx, false, snap.TotalJobs)
		return err
	}
	s.track(ctx, true, snap.TotalJobs)

	s.logger.Info("Snapshot saved", "path", s.path, "total_jobs", snap.TotalJobs)

	for _, p := range s.publishers {
		if err := p.Publish(ctx, *snap, data); err != nil {
			s.logger.Warn("Snapshot publisher failed", "publisher", p.Name(), "error", err.Error())
		}
	}
	return nil
}

func (s *FileStore) writeLocked(ctx context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.NewIOError(errors.ErrCodeSnapshotWrite,
			fmt.Sprintf("cannot create snapshot directory %s", dir), err)
	}

	unlock, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return writeAtomic(s.path, data)
}

// acquireLock retries TryLock until lockTimeout or cancellation
func (s *FileStore) acquireLock(ctx context.Context) (func(), error) {
	lockPath := s.path + ".lock"
	l := flock.New(lockPath)
	deadline := s.now().Add(s.lockTimeout)

	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeSnapshotLocked, "cannot acquire snapshot lock", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if s.now().After(deadline) {
			return nil, errors.NewIOError(errors.ErrCodeSnapshotLocked,
				fmt.Sprintf("another writer holds the snapshot lock (%s)", lockPath), nil)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// writeAtomic writes to a temp file in the target directory, syncs it and renames it over path
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeSnapshotWrite, "cannot create temp snapshot file", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.NewIOError(errors.ErrCodeSnapshotWrite, "cannot write temp snapshot file", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.NewIOError(errors.ErrCodeSnapshotWrite, "cannot sync temp snapshot file", err)
	}
	if err = tmp.Close(); err != nil {
		return errors.NewIOError(errors.ErrCodeSnapshotWrite, "cannot close temp snapshot file", err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.NewIOError(errors.ErrCodeSnapshotWrite, "cannot set snapshot permissions", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.NewIOError(errors.ErrCodeSnapshotWrite, "cannot replace snapshot file", err)
	}
	return nil
}

// Load returns the stored snapshot, or an empty one when none was written yet
func (s *FileStore) Load(ctx context.Context) (types.Snapshot, error) {
	_, span := otel.Tracer("jobmatch.snapshot").Start(ctx, "snapshot.load")
	defer span.End()

	data, err := os.ReadFile(s.path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return types.Snapshot{Jobs: []types.JobEntry{}}, nil
	}
	if err != nil {
		return types.Snapshot{}, errors.NewIOError(errors.ErrCodeSnapshotRead,
			fmt.Sprintf("cannot read snapshot %s", s.path), err)
	}

	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return types.Snapshot{}, errors.NewInternalError(errors.ErrCodeSnapshotRead,
			fmt.Sprintf("snapshot %s is corrupt", s.path), err)
	}
	if snap.Jobs == nil {
		snap.Jobs = []types.JobEntry{}
	}
	return snap, nil
}

// Job finds one entry by id
func (s *FileStore) Job(ctx context.Context, id string) (types.JobEntry, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return types.JobEntry{}, err
	}
	for _, job := range snap.Jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return types.JobEntry{}, errors.NewNotFoundError(errors.ErrCodeJobNotFound,
		fmt.Sprintf("job %s not found", id), nil).WithContext("id", id)
}

func (s *FileStore) track(ctx context.Context, success bool, jobs int) {
	if s.metrics != nil {
		s.metrics.TrackSnapshotWrite(ctx, success, jobs)
	}
}
