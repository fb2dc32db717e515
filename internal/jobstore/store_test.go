package jobstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogsmith/internal/domain"
	"blogsmith/internal/storage"
)

func newTestJob(id string, createdAt time.Time) *domain.Job {
	return domain.NewJob(id, "Go concurrency", domain.DefaultBlogSettings(), createdAt)
}

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) domain.JobStore) {
	t.Run("create and get", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		job := newTestJob("blog_1_aaa", time.Now().UTC().Truncate(time.Millisecond))

		require.NoError(t, store.Create(ctx, job))
		got, err := store.Get(ctx, job.TrackingID)
		require.NoError(t, err)
		assert.Equal(t, job.TrackingID, got.TrackingID)
		assert.Equal(t, domain.JobStatusInit, got.Status)
		assert.Equal(t, 0, got.Progress)
		assert.Nil(t, got.Title)
	})

	t.Run("duplicate create", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		job := newTestJob("blog_1_dup", time.Now())
		require.NoError(t, store.Create(ctx, job))
		err := store.Create(ctx, job)
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	t.Run("get missing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(context.Background(), "blog_0_missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("merge missing is a no-op", func(t *testing.T) {
		store := newStore(t)
		err := store.Merge(context.Background(), "blog_0_missing", domain.Progress(10, "x"))
		require.NoError(t, err)
		_, err = store.Get(context.Background(), "blog_0_missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("merge ignored after terminal", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		job := newTestJob("blog_1_term", time.Now())
		require.NoError(t, store.Create(ctx, job))
		require.NoError(t, store.Merge(ctx, job.TrackingID, domain.Progress(20, "Generating title...")))
		require.NoError(t, store.Merge(ctx, job.TrackingID, domain.Failed(errors.New("boom"))))
		require.NoError(t, store.Merge(ctx, job.TrackingID, domain.Progress(40, "late")))

		got, err := store.Get(ctx, job.TrackingID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusFailed, got.Status)
		assert.Equal(t, 0, got.Progress)
		assert.Equal(t, "boom", got.Error)
	})

	t.Run("completed carries results", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		job := newTestJob("blog_1_done", time.Now())
		require.NoError(t, store.Create(ctx, job))
		patch := domain.Completed("Title", "<p>body</p>", 512, []string{"https://img/1"}, domain.Rating{Score: 9, Review: "good"})
		require.NoError(t, store.Merge(ctx, job.TrackingID, patch))

		got, err := store.Get(ctx, job.TrackingID)
		require.NoError(t, err)
		require.NotNil(t, got.Title)
		require.NotNil(t, got.Rating)
		assert.Equal(t, "Title", *got.Title)
		assert.Equal(t, 512, *got.WordCount)
		assert.Equal(t, []string{"https://img/1"}, got.Images)
		assert.Equal(t, 9, got.Rating.Score)
		assert.Equal(t, 100, got.Progress)
	})

	t.Run("list newest first", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			require.NoError(t, store.Create(ctx, newTestJob(fmt.Sprintf("blog_%d_x", i), base.Add(time.Duration(i)*time.Minute))))
		}
		jobs, err := store.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, jobs, 3)
		assert.Equal(t, "blog_2_x", jobs[0].TrackingID)
		assert.Equal(t, "blog_0_x", jobs[2].TrackingID)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		job := newTestJob("blog_1_del", time.Now())
		require.NoError(t, store.Create(ctx, job))
		require.NoError(t, store.Delete(ctx, job.TrackingID))
		require.NoError(t, store.Delete(ctx, job.TrackingID))
		_, err := store.Get(ctx, job.TrackingID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		jobs, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})

	t.Run("concurrent merges", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			id := fmt.Sprintf("blog_%d_conc", i)
			require.NoError(t, store.Create(ctx, newTestJob(id, time.Now())))
			wg.Add(1)
			go func() {
				defer wg.Done()
				for p := 10; p <= 90; p += 10 {
					assert.NoError(t, store.Merge(ctx, id, domain.Progress(p, "step")))
				}
			}()
		}
		wg.Wait()
		for i := 0; i < 8; i++ {
			got, err := store.Get(ctx, fmt.Sprintf("blog_%d_conc", i))
			require.NoError(t, err)
			assert.Equal(t, 90, got.Progress)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) domain.JobStore {
		return NewMemoryStore()
	})
}

func TestFileStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) domain.JobStore {
		blobs, err := storage.NewFileStore(t.TempDir())
		require.NoError(t, err)
		store, err := NewFileStore(context.Background(), blobs, "")
		require.NoError(t, err)
		return store
	})
}

func TestFileStoreReloadsSnapshot(t *testing.T) {
	ctx := context.Background()
	blobs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	first, err := NewFileStore(ctx, blobs, "jobs.json")
	require.NoError(t, err)
	require.NoError(t, first.Create(ctx, newTestJob("blog_1_persist", time.Now())))
	require.NoError(t, first.Merge(ctx, "blog_1_persist", domain.Progress(40, "Writing draft...")))

	second, err := NewFileStore(ctx, blobs, "jobs.json")
	require.NoError(t, err)
	got, err := second.Get(ctx, "blog_1_persist")
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress)
	assert.Equal(t, domain.JobStatusInProgress, got.Status)
}

func TestRedisStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) domain.JobStore {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return NewRedisStore(client)
	})
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestPruningDeletesTerminalJobs(t *testing.T) {
	ctx := context.Background()
	store := NewPruning(NewMemoryStore(), 20*time.Millisecond, zerolog.Nop())
	defer store.Close()

	require.NoError(t, store.Create(ctx, newTestJob("blog_1_prune", time.Now())))
	require.NoError(t, store.Create(ctx, newTestJob("blog_1_keep", time.Now())))
	require.NoError(t, store.Merge(ctx, "blog_1_keep", domain.Progress(40, "Writing draft...")))
	require.NoError(t, store.Merge(ctx, "blog_1_prune", domain.Completed("t", "c", 1, nil, domain.Rating{Score: 9})))
	assert.Equal(t, 1, store.Pending())

	got, err := store.Get(ctx, "blog_1_prune")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)

	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, "blog_1_prune")
		return errors.Is(err, domain.ErrNotFound)
	}, time.Second, 5*time.Millisecond)

	_, err = store.Get(ctx, "blog_1_keep")
	assert.NoError(t, err)
	assert.Equal(t, 0, store.Pending())
}

func TestPruningCloseStopsTimers(t *testing.T) {
	ctx := context.Background()
	store := NewPruning(NewMemoryStore(), 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, store.Create(ctx, newTestJob("blog_1_closed", time.Now())))
	require.NoError(t, store.Merge(ctx, "blog_1_closed", domain.Failed(errors.New("x"))))
	store.Close()

	time.Sleep(50 * time.Millisecond)
	_, err := store.Get(ctx, "blog_1_closed")
	assert.NoError(t, err)
}
