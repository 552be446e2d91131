package jobs

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/scrape"
)

// DefaultMaxConcurrent bounds simultaneously running scrapes.
const DefaultMaxConcurrent = 4

// Scraper is the scrape operation a Runner executes.
type Scraper interface {
	Scrape(ctx context.Context, params model.SearchParams) ([]model.Lead, error)
}

// CompletionHook is called after a job reaches Completed.
type CompletionHook func(ctx context.Context, job *model.Job)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxConcurrent caps how many jobs run at once. Waiting jobs stay Pending.
func WithMaxConcurrent(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithCompletionHook registers fn to run after each successful job.
func WithCompletionHook(fn CompletionHook) RunnerOption {
	return func(r *Runner) {
		r.onComplete = fn
	}
}

// Runner creates jobs, executes scrapes and records outcomes in a Registry.
type Runner struct {
	registry   Registry
	scraper    Scraper
	sem        *semaphore.Weighted
	onComplete CompletionHook
	wg         sync.WaitGroup
}

// NewRunner returns a Runner over registry and scraper.
func NewRunner(registry Registry, scraper Scraper, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: registry,
		scraper:  scraper,
		sem:      semaphore.NewWeighted(DefaultMaxConcurrent),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit creates a Pending job and runs it in the background. It returns as
// soon as the job exists.
func (r *Runner) Submit(ctx context.Context, params model.SearchParams) (string, error) {
	id, err := r.registry.Create(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "jobs: submit")
	}

	// Jobs cannot be cancelled; detach from the request context.
	bg := context.WithoutCancel(ctx)
	r.wg.Go(func() {
		if err := r.sem.Acquire(bg, 1); err != nil {
			r.record(bg, id, nil, err)
			return
		}
		defer r.sem.Release(1)
		r.execute(bg, id, params)
	})
	return id, nil
}

// Run executes a job synchronously and returns its final snapshot.
func (r *Runner) Run(ctx context.Context, params model.SearchParams) (*model.Job, error) {
	id, err := r.registry.Create(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "jobs: run")
	}
	r.execute(ctx, id, params)
	return r.registry.Get(ctx, id)
}

// Poll returns the current snapshot of job id.
func (r *Runner) Poll(ctx context.Context, id string) (*model.Job, error) {
	return r.registry.Get(ctx, id)
}

// Wait blocks until every submitted job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) execute(ctx context.Context, id string, params model.SearchParams) {
	if err := r.registry.Start(ctx, id); err != nil {
		zap.L().Error("jobs: start failed", zap.String("job_id", id), zap.Error(err))
		if ferr := r.registry.Fail(ctx, id, "start job: "+err.Error(), string(scrape.KindInternal)); ferr != nil {
			zap.L().Error("jobs: record start failure", zap.String("job_id", id), zap.Error(ferr))
		}
		return
	}

	zap.L().Info("jobs: running",
		zap.String("job_id", id),
		zap.String("platform", params.Platform),
		zap.String("keyword", params.Keyword),
	)

	leads, err := r.scrape(ctx, params)
	r.record(ctx, id, leads, err)
}

// scrape converts a panic in the scraper into an error.
func (r *Runner) scrape(ctx context.Context, params model.SearchParams) (leads []model.Lead, err error) {
	defer func() {
		if p := recover(); p != nil {
			leads = nil
			err = eris.Errorf("scrape panicked: %v", p)
		}
	}()
	return r.scraper.Scrape(ctx, params)
}

func (r *Runner) record(ctx context.Context, id string, leads []model.Lead, err error) {
	log := zap.L().With(zap.String("job_id", id))

	if err != nil {
		kind := scrape.KindOf(err)
		if ferr := r.registry.Fail(ctx, id, err.Error(), string(kind)); ferr != nil {
			log.Error("jobs: record failure", zap.Error(ferr))
			return
		}
		log.Warn("jobs: failed", zap.String("kind", string(kind)), zap.Error(err))
		return
	}

	if cerr := r.registry.Complete(ctx, id, leads); cerr != nil {
		log.Error("jobs: record completion", zap.Error(cerr))
		return
	}
	log.Info("jobs: completed", zap.Int("leads", len(leads)))

	if r.onComplete != nil {
		job, gerr := r.registry.Get(ctx, id)
		if gerr != nil {
			log.Error("jobs: load completed job", zap.Error(gerr))
			return
		}
		r.onComplete(ctx, job)
	}
}
