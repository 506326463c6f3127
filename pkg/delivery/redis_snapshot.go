package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/daoboard/notifier/pkg/logger"
)

// DefaultRedisSnapshotKey is the hash holding queued jobs.
const DefaultRedisSnapshotKey = "notifier:email-queue"

// RedisSnapshot keeps queued jobs in a Redis hash keyed by job id.
type RedisSnapshot struct {
	client redis.Cmdable
	key    string
	logger *slog.Logger
}

// NewRedisSnapshot returns a snapshot stored under key. An empty key
// falls back to DefaultRedisSnapshotKey.
func NewRedisSnapshot(client redis.Cmdable, key string, log *slog.Logger) *RedisSnapshot {
	if key == "" {
		key = DefaultRedisSnapshotKey
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisSnapshot{client: client, key: key, logger: log}
}

// Load returns jobs ordered by enqueue time. Entries that fail to decode
// are skipped.
func (s *RedisSnapshot) Load(ctx context.Context) ([]Job, error) {
	entries, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}

	jobs := make([]Job, 0, len(entries))
	for id, raw := range entries {
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			s.logger.WarnContext(ctx, "skipping malformed queued job",
				logger.JobID(id),
				logger.Error(err),
			)
			continue
		}
		jobs = append(jobs, job)
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].EnqueuedAt.Equal(jobs[j].EnqueuedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].EnqueuedAt.Before(jobs[j].EnqueuedAt)
	})
	return jobs, nil
}

func (s *RedisSnapshot) Save(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	if err := s.client.HSet(ctx, s.key, job.ID, raw).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	return nil
}

func (s *RedisSnapshot) Remove(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, s.key, id).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	return nil
}

func (s *RedisSnapshot) Count(ctx context.Context) (int, error) {
	n, err := s.client.HLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	return int(n), nil
}
