package delivery_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoboard/notifier/pkg/delivery"
	"github.com/daoboard/notifier/pkg/logger"
)

func sampleJob(id string, at time.Time) delivery.Job {
	return delivery.Job{
		ID:         id,
		Recipients: []string{"a@x.com", "b@x.com"},
		Subject:    "Sujet " + id,
		Body:       "Corps",
		Type:       "dao_created",
		EnqueuedAt: at.UTC().Truncate(time.Millisecond),
	}
}

func TestFileSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "email-queue.json")
	snap := delivery.NewFileSnapshot(path)
	now := time.Now()

	require.NoError(t, snap.Save(ctx, sampleJob("j1", now)))
	require.NoError(t, snap.Save(ctx, sampleJob("j2", now.Add(time.Second))))
	require.NoError(t, snap.Save(ctx, sampleJob("j1", now)))

	jobs, err := snap.Load(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "j2", jobs[0].ID)
	assert.Equal(t, "j1", jobs[1].ID)
	assert.Equal(t, sampleJob("j2", now.Add(time.Second)), jobs[0])

	require.NoError(t, snap.Remove(ctx, "j2"))
	require.NoError(t, snap.Remove(ctx, "missing"))
	n, err := snap.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"enqueuedAt"`)
	assert.Contains(t, string(raw), `"recipients"`)
}

func TestFileSnapshot_MissingOrMalformedIsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	jobs, err := delivery.NewFileSnapshot(filepath.Join(dir, "absent.json")).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	snap := delivery.NewFileSnapshot(bad)
	jobs, err = snap.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	require.NoError(t, snap.Save(ctx, sampleJob("j1", time.Now())))
	n, err := snap.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFileSnapshot_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snap := delivery.NewFileSnapshot(filepath.Join(t.TempDir(), "q.json"))

	done := make(chan struct{})
	for i := range 20 {
		go func() {
			defer func() { done <- struct{}{} }()
			assert.NoError(t, snap.Save(ctx, sampleJob(string(rune('a'+i)), time.Now())))
		}()
	}
	for range 20 {
		<-done
	}

	n, err := snap.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestRedisSnapshot(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	key := "notifier:test:" + t.Name()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	snap := delivery.NewRedisSnapshot(client, key, logger.Discard())
	now := time.Now()
	require.NoError(t, snap.Save(ctx, sampleJob("late", now.Add(time.Second))))
	require.NoError(t, snap.Save(ctx, sampleJob("early", now)))
	require.NoError(t, client.HSet(ctx, key, "broken", "{").Err())

	jobs, err := snap.Load(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "early", jobs[0].ID)

	require.NoError(t, snap.Remove(ctx, "early"))
	n, err := snap.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
