// Package jobs tracks asynchronous scrapes through the
// pending → running → completed | failed lifecycle.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	// ErrNotFound is returned for an unknown job ID.
	ErrNotFound = eris.New("job not found")
	// ErrInvalidTransition is returned when a transition is not allowed from
	// the job's current state.
	ErrInvalidTransition = eris.New("invalid job transition")
)

// Registry stores jobs and applies state transitions atomically per job.
// Get returns a snapshot; mutating it does not affect the registry.
type Registry interface {
	Create(ctx context.Context, params model.SearchParams) (string, error)
	Start(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, results []model.Lead) error
	Fail(ctx context.Context, id string, message, kind string) error
	Get(ctx context.Context, id string) (*model.Job, error)
}

// transition mutates a job in place or rejects the change.
type transition func(job *model.Job) error

func toRunning(job *model.Job) error {
	if job.Status != model.JobStatusPending {
		return eris.Wrapf(ErrInvalidTransition, "job %s: start from %s", job.ID, job.Status)
	}
	job.Status = model.JobStatusRunning
	return nil
}

// toCompleted is allowed from any non-terminal state.
func toCompleted(results []model.Lead) transition {
	return func(job *model.Job) error {
		if job.Status.Terminal() {
			return eris.Wrapf(ErrInvalidTransition, "job %s: complete from %s", job.ID, job.Status)
		}
		job.Status = model.JobStatusCompleted
		job.Results = make([]model.Lead, len(results))
		copy(job.Results, results)
		job.Error = ""
		job.ErrorKind = ""
		return nil
	}
}

func toFailed(message, kind string) transition {
	return func(job *model.Job) error {
		if job.Status.Terminal() {
			return eris.Wrapf(ErrInvalidTransition, "job %s: fail from %s", job.ID, job.Status)
		}
		job.Status = model.JobStatusFailed
		job.Results = nil
		job.Error = message
		job.ErrorKind = kind
		return nil
	}
}

func newJob(params model.SearchParams, now time.Time) *model.Job {
	return &model.Job{
		ID:        uuid.NewString(),
		Status:    model.JobStatusPending,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MemoryRegistry keeps jobs in a mutex-guarded map for the process lifetime.
type MemoryRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job

	nowFunc func() time.Time
}

// NewMemoryRegistry returns an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		jobs:    make(map[string]*model.Job),
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRegistry) Create(_ context.Context, params model.SearchParams) (string, error) {
	job := newJob(params, r.nowFunc())
	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()
	return job.ID, nil
}

func (r *MemoryRegistry) Start(_ context.Context, id string) error {
	return r.apply(id, toRunning)
}

func (r *MemoryRegistry) Complete(_ context.Context, id string, results []model.Lead) error {
	return r.apply(id, toCompleted(results))
}

func (r *MemoryRegistry) Fail(_ context.Context, id string, message, kind string) error {
	return r.apply(id, toFailed(message, kind))
}

func (r *MemoryRegistry) Get(_ context.Context, id string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "job %s", id)
	}
	snap := job.Clone()
	return &snap, nil
}

// Len returns the number of tracked jobs.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

func (r *MemoryRegistry) apply(id string, t transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return eris.Wrapf(ErrNotFound, "job %s", id)
	}
	// Work on a copy so a rejected transition leaves the job untouched.
	next := job.Clone()
	if err := t(&next); err != nil {
		return err
	}
	next.UpdatedAt = r.nowFunc()
	r.jobs[id] = &next
	return nil
}
