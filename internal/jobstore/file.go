package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"blogsmith/internal/domain"
	"blogsmith/internal/storage"
)

// DefaultFileKey is the snapshot key used by FileStore.
const DefaultFileKey = "blog-jobs.json"

// FileStore keeps jobs in memory and rewrites a JSON snapshot after every
// mutation so jobs survive a restart of a single-node deployment.
type FileStore struct {
	mu    sync.Mutex
	jobs  map[string]*domain.Job
	blobs *storage.FileStore
	key   string
	now   func() time.Time
}

// NewFileStore loads the snapshot at key from blobs, starting empty when the
// snapshot does not exist yet.
func NewFileStore(ctx context.Context, blobs *storage.FileStore, key string) (*FileStore, error) {
	if blobs == nil {
		return nil, errors.New("jobstore: file storage is required")
	}
	if key == "" {
		key = DefaultFileKey
	}
	s := &FileStore{jobs: make(map[string]*domain.Job), blobs: blobs, key: key, now: time.Now}
	data, err := blobs.Read(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("jobstore: load snapshot: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.jobs); err != nil {
		return nil, fmt.Errorf("jobstore: decode snapshot: %w", err)
	}
	return s, nil
}

func (s *FileStore) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.TrackingID]; ok {
		return domain.ErrDuplicateKey
	}
	s.jobs[job.TrackingID] = job.Clone()
	if err := s.flush(ctx); err != nil {
		delete(s.jobs, job.TrackingID)
		return err
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, trackingID string) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[trackingID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

func (s *FileStore) Merge(ctx context.Context, trackingID string, patch domain.JobPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[trackingID]
	if !ok {
		return nil
	}
	prev := job.Clone()
	if !job.Apply(patch, s.now()) {
		return nil
	}
	if err := s.flush(ctx); err != nil {
		s.jobs[trackingID] = prev
		return err
	}
	return nil
}

func (s *FileStore) ListAll(ctx context.Context) ([]domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job.Clone())
	}
	s.mu.Unlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, trackingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[trackingID]
	if !ok {
		return nil
	}
	delete(s.jobs, trackingID)
	if err := s.flush(ctx); err != nil {
		s.jobs[trackingID] = job
		return err
	}
	return nil
}

// flush must be called with mu held.
func (s *FileStore) flush(ctx context.Context) error {
	data, err := json.MarshalIndent(s.jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("jobstore: encode snapshot: %w", err)
	}
	if _, err := s.blobs.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("jobstore: write snapshot: %w", err)
	}
	return nil
}

var _ domain.JobStore = (*FileStore)(nil)
