package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"blogsmith/internal/domain"
)

const (
	redisJobKeyPrefix = "blogsmith:job:"
	redisJobIndexKey  = "blogsmith:jobs"
	redisMergeRetries = 5
)

// RedisStore keeps each job as a JSON string plus a sorted-set index scored by
// creation time.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func redisJobKey(id string) string { return redisJobKeyPrefix + id }

func (s *RedisStore) Create(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	ok, err := s.client.SetNX(ctx, redisJobKey(job.TrackingID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	if !ok {
		return domain.ErrDuplicateKey
	}
	score := float64(job.CreatedAt.UnixMilli())
	if err := s.client.ZAdd(ctx, redisJobIndexKey, redis.Z{Score: score, Member: job.TrackingID}).Err(); err != nil {
		return fmt.Errorf("index job: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, trackingID string) (*domain.Job, error) {
	data, err := s.client.Get(ctx, redisJobKey(trackingID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// Merge performs an optimistic read-modify-write guarded by WATCH.
func (s *RedisStore) Merge(ctx context.Context, trackingID string, patch domain.JobPatch) error {
	key := redisJobKey(trackingID)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var job domain.Job
		if err := json.Unmarshal(data, &job); err != nil {
			return fmt.Errorf("decode job: %w", err)
		}
		if !job.Apply(patch, s.now()) {
			return nil
		}
		updated, err := json.Marshal(&job)
		if err != nil {
			return fmt.Errorf("encode job: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}
	for i := 0; i < redisMergeRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("merge job: %w", err)
		}
		return nil
	}
	return fmt.Errorf("merge job %s: %w", trackingID, domain.ErrConflict)
}

func (s *RedisStore) ListAll(ctx context.Context) ([]domain.Job, error) {
	ids, err := s.client.ZRevRange(ctx, redisJobIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list job ids: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Job{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisJobKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}
	out := make([]domain.Job, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var job domain.Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			continue
		}
		out = append(out, job)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, trackingID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisJobKey(trackingID))
		pipe.ZRem(ctx, redisJobIndexKey, trackingID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

var _ domain.JobStore = (*RedisStore)(nil)
