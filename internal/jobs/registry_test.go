package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

var testParams = model.SearchParams{Keyword: "AI founders", Location: "Berlin", Platform: "linkedin", MaxResults: 5}

func newTestRedisRegistry(t *testing.T) (*RedisRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	reg := NewRedisRegistryFromClient(client, "jobs:", time.Hour)
	t.Cleanup(func() { _ = reg.Close() })
	return reg, mr
}

// registries runs fn against every Registry implementation.
func registries(t *testing.T, fn func(t *testing.T, reg Registry)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryRegistry())
	})
	t.Run("redis", func(t *testing.T) {
		reg, _ := newTestRedisRegistry(t)
		fn(t, reg)
	})
}

func TestRegistry_CompleteLifecycle(t *testing.T) {
	registries(t, func(t *testing.T, reg Registry) {
		ctx := context.Background()

		id, err := reg.Create(ctx, testParams)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		job, err := reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, job.Status)
		assert.Equal(t, testParams, job.Params)
		assert.Nil(t, job.Results)
		assert.Empty(t, job.Error)

		require.NoError(t, reg.Start(ctx, id))
		job, err = reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusRunning, job.Status)

		leads := []model.Lead{{ID: "li_1", Name: "Ada Lovelace", Platform: model.PlatformLinkedIn}}
		require.NoError(t, reg.Complete(ctx, id, leads))
		job, err = reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
		assert.Equal(t, leads, job.Results)
		assert.Empty(t, job.Error)
		assert.False(t, job.UpdatedAt.Before(job.CreatedAt))
	})
}

func TestRegistry_FailLifecycle(t *testing.T) {
	registries(t, func(t *testing.T, reg Registry) {
		ctx := context.Background()
		id, err := reg.Create(ctx, testParams)
		require.NoError(t, err)
		require.NoError(t, reg.Start(ctx, id))

		require.NoError(t, reg.Fail(ctx, id, "boom", "internal"))
		job, err := reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusFailed, job.Status)
		assert.Equal(t, "boom", job.Error)
		assert.Equal(t, "internal", job.ErrorKind)
		assert.Nil(t, job.Results)
	})
}

func TestRegistry_CompleteWithoutStart(t *testing.T) {
	registries(t, func(t *testing.T, reg Registry) {
		ctx := context.Background()
		id, err := reg.Create(ctx, testParams)
		require.NoError(t, err)

		require.NoError(t, reg.Complete(ctx, id, nil))
		job, err := reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
		assert.NotNil(t, job.Results)
		assert.Empty(t, job.Results)
	})
}

func TestRegistry_TerminalStatesAreFinal(t *testing.T) {
	registries(t, func(t *testing.T, reg Registry) {
		ctx := context.Background()
		id, err := reg.Create(ctx, testParams)
		require.NoError(t, err)
		require.NoError(t, reg.Complete(ctx, id, []model.Lead{{ID: "x_1", Name: "A"}}))

		assert.ErrorIs(t, reg.Start(ctx, id), ErrInvalidTransition)
		assert.ErrorIs(t, reg.Fail(ctx, id, "late", ""), ErrInvalidTransition)
		assert.ErrorIs(t, reg.Complete(ctx, id, nil), ErrInvalidTransition)

		job, err := reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
		assert.Len(t, job.Results, 1)
	})
}

func TestRegistry_StartTwice(t *testing.T) {
	registries(t, func(t *testing.T, reg Registry) {
		ctx := context.Background()
		id, err := reg.Create(ctx, testParams)
		require.NoError(t, err)
		require.NoError(t, reg.Start(ctx, id))
		assert.ErrorIs(t, reg.Start(ctx, id), ErrInvalidTransition)
	})
}

func TestRegistry_NotFound(t *testing.T) {
	registries(t, func(t *testing.T, reg Registry) {
		ctx := context.Background()
		job, err := reg.Get(ctx, "nope")
		assert.Nil(t, job)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, reg.Start(ctx, "nope"), ErrNotFound)
		assert.ErrorIs(t, reg.Complete(ctx, "nope", nil), ErrNotFound)
		assert.ErrorIs(t, reg.Fail(ctx, "nope", "x", ""), ErrNotFound)
	})
}

func TestRegistry_GetIsIdempotent(t *testing.T) {
	registries(t, func(t *testing.T, reg Registry) {
		ctx := context.Background()
		id, err := reg.Create(ctx, testParams)
		require.NoError(t, err)
		require.NoError(t, reg.Complete(ctx, id, []model.Lead{{ID: "tt_1", Name: "A"}}))

		a, err := reg.Get(ctx, id)
		require.NoError(t, err)
		b, err := reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestMemoryRegistry_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()
	id, err := reg.Create(ctx, testParams)
	require.NoError(t, err)
	require.NoError(t, reg.Complete(ctx, id, []model.Lead{{ID: "li_1", Name: "Ada"}}))

	snap, err := reg.Get(ctx, id)
	require.NoError(t, err)
	snap.Results[0].Name = "mutated"
	snap.Status = model.JobStatusFailed

	again, err := reg.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.Results[0].Name)
	assert.Equal(t, model.JobStatusCompleted, again.Status)
}

func TestMemoryRegistry_Timestamps(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reg.nowFunc = func() time.Time { return now }

	id, err := reg.Create(ctx, testParams)
	require.NoError(t, err)
	now = now.Add(time.Minute)
	require.NoError(t, reg.Start(ctx, id))

	job, err := reg.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), job.CreatedAt)
	assert.Equal(t, now, job.UpdatedAt)

	// A rejected transition does not touch updated_at.
	now = now.Add(time.Minute)
	require.Error(t, reg.Start(ctx, id))
	job, err = reg.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-time.Minute), job.UpdatedAt)
}

func TestMemoryRegistry_Concurrent(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	var wg sync.WaitGroup
	ids := make(chan string, 100)
	for range 100 {
		wg.Go(func() {
			id, err := reg.Create(ctx, testParams)
			assert.NoError(t, err)
			assert.NoError(t, reg.Start(ctx, id))
			assert.NoError(t, reg.Complete(ctx, id, nil))
			ids <- id
		})
	}
	wg.Wait()
	close(ids)

	assert.Equal(t, 100, reg.Len())
	for id := range ids {
		job, err := reg.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, job.Status)
	}
}

func TestRedisRegistry_KeyAndTTL(t *testing.T) {
	ctx := context.Background()
	reg, mr := newTestRedisRegistry(t)

	id, err := reg.Create(ctx, testParams)
	require.NoError(t, err)
	assert.True(t, mr.Exists("jobs:"+id))
	assert.Equal(t, time.Hour, mr.TTL("jobs:"+id))

	require.NoError(t, reg.Start(ctx, id))
	assert.Equal(t, time.Hour, mr.TTL("jobs:"+id), "transitions keep the TTL")

	require.NoError(t, reg.Ping(ctx))
}

func TestRedisRegistry_ConcurrentTransitions(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRedisRegistry(t)
	id, err := reg.Create(ctx, testParams)
	require.NoError(t, err)

	// Exactly one of the racing terminal transitions wins.
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for range 8 {
		wg.Go(func() {
			if reg.Complete(ctx, id, nil) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestRedisRegistry_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	reg, mr := newTestRedisRegistry(t)
	require.NoError(t, mr.Set("jobs:bad", "{not json"))

	_, err := reg.Get(ctx, "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
