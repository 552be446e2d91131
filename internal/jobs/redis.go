package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// maxTxRetries bounds optimistic-lock retries for one transition.
const maxTxRetries = 10

// RedisRegistry stores job snapshots as JSON in Redis so several API
// processes can share them. Transitions use WATCH/MULTI so concurrent writers
// never interleave on one key.
type RedisRegistry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	nowFunc func() time.Time
}

// NewRedisRegistry connects to addr. A zero ttl keeps jobs forever.
func NewRedisRegistry(addr, prefix string, ttl time.Duration) *RedisRegistry {
	return NewRedisRegistryFromClient(redis.NewClient(&redis.Options{Addr: addr}), prefix, ttl)
}

// NewRedisRegistryFromClient wraps an existing client.
func NewRedisRegistryFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Ping checks connectivity.
func (r *RedisRegistry) Ping(ctx context.Context) error {
	return eris.Wrap(r.client.Ping(ctx).Err(), "jobs: redis ping")
}

// Close closes the Redis client.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

func (r *RedisRegistry) key(id string) string {
	return r.prefix + id
}

func (r *RedisRegistry) Create(ctx context.Context, params model.SearchParams) (string, error) {
	job := newJob(params, r.nowFunc())
	payload, err := json.Marshal(job)
	if err != nil {
		return "", eris.Wrap(err, "jobs: marshal job")
	}
	if err := r.client.Set(ctx, r.key(job.ID), payload, r.ttl).Err(); err != nil {
		return "", eris.Wrap(err, "jobs: create job")
	}
	return job.ID, nil
}

func (r *RedisRegistry) Start(ctx context.Context, id string) error {
	return r.apply(ctx, id, toRunning)
}

func (r *RedisRegistry) Complete(ctx context.Context, id string, results []model.Lead) error {
	return r.apply(ctx, id, toCompleted(results))
}

func (r *RedisRegistry) Fail(ctx context.Context, id string, message, kind string) error {
	return r.apply(ctx, id, toFailed(message, kind))
}

func (r *RedisRegistry) Get(ctx context.Context, id string) (*model.Job, error) {
	return r.load(ctx, r.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisRegistry) load(ctx context.Context, c getter, id string) (*model.Job, error) {
	val, err := c.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, eris.Wrapf(ErrNotFound, "job %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "jobs: get job %s", id)
	}
	var job model.Job
	if err := json.Unmarshal(val, &job); err != nil {
		return nil, eris.Wrapf(err, "jobs: decode job %s", id)
	}
	return &job, nil
}

func (r *RedisRegistry) apply(ctx context.Context, id string, t transition) error {
	key := r.key(id)
	txf := func(tx *redis.Tx) error {
		job, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := t(job); err != nil {
			return err
		}
		job.UpdatedAt = r.nowFunc()
		payload, err := json.Marshal(job)
		if err != nil {
			return eris.Wrap(err, "jobs: marshal job")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, redis.KeepTTL)
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return eris.Errorf("jobs: job %s: too much contention", id)
}
